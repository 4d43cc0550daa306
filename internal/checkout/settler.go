package checkout

import (
	"context"
	"time"

	"github.com/fjod/go_pos/internal/domain"
)

// Settler settles a payment. There is no gateway: settlement is simulated.
type Settler interface {
	Settle(ctx context.Context, method domain.PaymentMethod) error
}

// SimulatedSettler waits for Delay and always succeeds. The wait is not
// cancellable; a payment that started processing runs to completion.
type SimulatedSettler struct {
	Delay time.Duration
}

func (s SimulatedSettler) Settle(context.Context, domain.PaymentMethod) error {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	return nil
}
