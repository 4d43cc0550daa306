// Package sales turns a finished checkout into a stored transaction.
//
// Completing a sale has two phases. Record builds the transaction and adds it
// to the register's recent sales right away. Sync then writes it to the
// transaction store, adjusts cached stock and invalidates the inventory cache.
// Sync failures are logged and never undo the recorded sale.
package sales

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultSyncTimeout = 30 * time.Second

type TransactionStore interface {
	Create(ctx context.Context, tx *domain.Transaction) (string, error)
	CreateLineItem(ctx context.Context, item domain.LineItem) (string, error)
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

type InventoryCache interface {
	ApplySale(sold map[int64]int)
	Invalidate()
}

type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, tx *domain.Transaction) error
}

type Config struct {
	TaxRate     decimal.Decimal
	SyncTimeout time.Duration
}

type Persister struct {
	store     TransactionStore
	inventory InventoryCache
	events    EventPublisher
	recent    *RecentSales
	taxRate   decimal.Decimal
	timeout   time.Duration
	logger    *zap.Logger

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

// NewPersister wires the persister. events may be nil when no broker is configured.
func NewPersister(store TransactionStore, inventory InventoryCache, events EventPublisher, recent *RecentSales, cfg Config, logger *zap.Logger) *Persister {
	timeout := cfg.SyncTimeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &Persister{
		store:     store,
		inventory: inventory,
		events:    events,
		recent:    recent,
		taxRate:   cfg.TaxRate,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Record builds the transaction for lines and adds it to the recent sales.
func (p *Persister) Record(lines []domain.CartLine, customer *domain.CustomerRef, method domain.PaymentMethod) *domain.Transaction {
	tx := domain.NewTransaction(p.newID(), lines, customer, method, p.taxRate, p.now().UTC())
	p.recent.Add(*tx)
	return tx
}

// Sync writes tx and its line items to the store, then reconciles inventory.
// Line items are written concurrently once the transaction exists. Stock is
// only touched when every line item was stored.
func (p *Persister) Sync(ctx context.Context, tx *domain.Transaction) error {
	log := logger.FromContext(ctx, p.logger).With(zap.String("transaction_id", tx.ID))

	id, err := p.store.Create(ctx, tx)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, li := range tx.LineItems {
		li := li
		li.TransactionID = id
		g.Go(func() error {
			if _, err := p.store.CreateLineItem(gctx, li); err != nil {
				return fmt.Errorf("create line item %s-%d: %w", li.ItemType, li.ItemID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if sold := tx.ProductQuantities(); len(sold) > 0 {
		p.inventory.ApplySale(sold)
	}
	p.inventory.Invalidate()
	log.Info("transaction stored", zap.Int("line_items", len(tx.LineItems)), zap.String("total", tx.Total.StringFixed(2)))

	if p.events != nil {
		if err := p.events.PublishSaleCompleted(ctx, tx); err != nil {
			log.Warn("failed to publish sale event", zap.Error(err))
		}
	}
	return nil
}

// Complete records the sale and starts Sync in the background on a context
// that outlives the request. It returns the recorded transaction.
func (p *Persister) Complete(ctx context.Context, lines []domain.CartLine, customer *domain.CustomerRef, method domain.PaymentMethod) *domain.Transaction {
	tx := p.Record(lines, customer, method)

	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		if err := p.Sync(syncCtx, tx); err != nil {
			logger.FromContext(syncCtx, p.logger).Error("failed to sync transaction",
				zap.String("transaction_id", tx.ID), zap.Error(err))
		}
	}()
	return tx
}

// Wait blocks until background syncs finish or ctx is done.
func (p *Persister) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) Recent() []domain.Transaction {
	return p.recent.List()
}
