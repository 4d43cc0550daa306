package pos

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/history"
	"github.com/fjod/go_pos/internal/sales"
	"github.com/fjod/go_pos/internal/session"
	"go.uber.org/zap"
)

// ErrCartLocked is returned for cart changes while a payment is processing or
// waiting to be finalized.
var ErrCartLocked = errors.New("cart is locked by checkout")

// Register is one POS terminal: its session, checkout machine and sales.
type Register struct {
	ID string

	// mu orders cart changes against the start of a payment.
	mu        sync.Mutex
	session   *session.Session
	checkout  *checkout.Machine
	persister *sales.Persister
	history   *history.View
	customers *CustomerBook
	logger    *zap.Logger
}

func (r *Register) locked() bool {
	switch r.checkout.Status() {
	case domain.CheckoutStatusProcessing, domain.CheckoutStatusSuccess:
		return true
	}
	return false
}

// UpdateCart runs fn against the session unless checkout holds the cart.
func (r *Register) UpdateCart(fn func(s *session.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked() {
		return ErrCartLocked
	}
	fn(r.session)
	return nil
}

func (r *Register) SelectCustomer(ctx context.Context, c domain.Customer) error {
	r.customers.Remember(c)
	return r.UpdateCart(func(s *session.Session) {
		s.SelectCustomer(ctx, c)
	})
}

func (r *Register) ClearCustomer() error {
	return r.UpdateCart(func(s *session.Session) {
		s.ClearCustomer()
	})
}

// Preseed replaces the active cart and selected customer.
func (r *Register) Preseed(lines []domain.CartLine, customer *domain.Customer) error {
	if customer != nil {
		r.customers.Remember(*customer)
	}
	return r.UpdateCart(func(s *session.Session) {
		s.Preseed(lines, customer)
	})
}

func (r *Register) Cart() session.View {
	return r.session.View()
}

func (r *Register) Checkout() *checkout.Machine {
	return r.checkout
}

// Submit runs the payment. The cart is checked and locked under r.mu; the
// settlement itself runs without it, so a second submit fails right away with
// checkout.ErrCheckoutInProgress.
func (r *Register) Submit(ctx context.Context) error {
	r.mu.Lock()
	method, err := r.checkout.Begin()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.checkout.Settle(ctx, method)
}

func (r *Register) History(ctx context.Context, f history.Filter) history.Page {
	return r.history.List(ctx, f)
}

// completePayment runs before checkout clears the cart, so the sale is
// recorded from the lines that were paid for.
func (r *Register) completePayment(ctx context.Context, method domain.PaymentMethod) {
	lines := r.session.Lines()
	var ref *domain.CustomerRef
	if c := r.session.Customer(); c != nil {
		ref = c.Ref()
	}
	tx := r.persister.Complete(ctx, lines, ref, method)
	r.logger.Info("sale completed",
		zap.String("transaction_id", tx.ID),
		zap.String("method", string(method)),
		zap.String("total", tx.Total.StringFixed(2)))
}
