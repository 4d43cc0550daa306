package sales

import (
	"context"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe.
	OpenTimeout time.Duration
}

var DefaultBreakerConfig = BreakerConfig{MaxFailures: 5, OpenTimeout: 30 * time.Second}

// BreakerStore guards a TransactionStore with a circuit breaker. While the
// breaker is open calls fail fast with gobreaker.ErrOpenState.
type BreakerStore struct {
	next TransactionStore
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next TransactionStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "transaction-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) Create(ctx context.Context, tx *domain.Transaction) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Create(ctx, tx)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *BreakerStore) CreateLineItem(ctx context.Context, item domain.LineItem) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.CreateLineItem(ctx, item)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *BreakerStore) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.Transaction), nil
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
