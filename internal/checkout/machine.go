// Package checkout drives a register's payment flow:
//
//	Idle -> PaymentMethodSelected -> Validating -> Processing -> Success -> Done
//
// Cancel returns to Idle from any state before Processing. While Processing the
// machine refuses every other action, which is what keeps one register from
// running two payments at once.
package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"go.uber.org/zap"
)

// Cart is the part of the register session checkout needs.
type Cart interface {
	IsEmpty() bool
	ClearCart()
	ClearCustomer()
}

// CompletedFunc is called once per finished sale, before the cart is cleared.
type CompletedFunc func(ctx context.Context, method domain.PaymentMethod)

type Snapshot struct {
	Status        domain.CheckoutStatus `json:"status"`
	Open          bool                  `json:"open"`
	Method        domain.PaymentMethod  `json:"method,omitempty"`
	Eligible      bool                  `json:"eligible"`
	InvalidFields []string              `json:"invalid_fields,omitempty"`
}

type Machine struct {
	mu          sync.Mutex
	status      domain.CheckoutStatus
	open        bool
	method      domain.PaymentMethod
	form        CardForm
	cart        Cart
	settler     Settler
	onCompleted CompletedFunc
	logger      *zap.Logger
}

func NewMachine(cart Cart, settler Settler, onCompleted CompletedFunc, logger *zap.Logger) *Machine {
	return &Machine{
		status:      domain.CheckoutStatusIdle,
		cart:        cart,
		settler:     settler,
		onCompleted: onCompleted,
		logger:      logger,
	}
}

// transition must be called with m.mu held.
func (m *Machine) transition(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(m.status, to) {
		return IllegalTransitionError
	}
	m.logger.Debug("checkout transition", zap.Stringer("from", m.status), zap.Stringer("to", to))
	m.status = to
	return nil
}

// reset must be called with m.mu held.
func (m *Machine) reset(status domain.CheckoutStatus) {
	m.status = status
	m.open = false
	m.method = ""
	m.form = CardForm{}
}

// Open starts a checkout for the current cart.
func (m *Machine) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case domain.CheckoutStatusProcessing:
		return ErrCheckoutInProgress
	case domain.CheckoutStatusSuccess:
		return IllegalTransitionError
	}
	if m.cart.IsEmpty() {
		return ErrEmptyCart
	}
	m.reset(domain.CheckoutStatusIdle)
	m.open = true
	return nil
}

func (m *Machine) SelectMethod(method domain.PaymentMethod) error {
	if !method.Valid() {
		return ErrInvalidMethod
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == domain.CheckoutStatusProcessing {
		return ErrCheckoutInProgress
	}
	if !m.open {
		return IllegalTransitionError
	}
	if err := m.transition(domain.CheckoutStatusPaymentMethodSelected); err != nil {
		return err
	}
	m.method = method
	return nil
}

func (m *Machine) UpdateCardForm(form CardForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == domain.CheckoutStatusProcessing {
		return ErrCheckoutInProgress
	}
	if m.status != domain.CheckoutStatusPaymentMethodSelected || m.method != domain.PaymentMethodCard {
		return IllegalTransitionError
	}
	m.form = form
	return nil
}

// Submit validates the form and settles the payment. It returns once the
// machine reached Success, or with the reason it did not.
func (m *Machine) Submit(ctx context.Context) error {
	method, err := m.Begin()
	if err != nil {
		return err
	}
	return m.Settle(ctx, method)
}

// Begin validates the checkout and the cart and moves to Processing.
func (m *Machine) Begin() (domain.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case domain.CheckoutStatusProcessing, domain.CheckoutStatusSuccess:
		return "", ErrCheckoutInProgress
	case domain.CheckoutStatusIdle:
		return "", ErrNoPaymentMethod
	}
	if m.status == domain.CheckoutStatusPaymentMethodSelected && m.cart.IsEmpty() {
		return "", ErrEmptyCart
	}
	if err := m.transition(domain.CheckoutStatusValidating); err != nil {
		return "", err
	}
	if m.method == domain.PaymentMethodCard {
		if fields := m.form.Invalid(); len(fields) > 0 {
			m.status = domain.CheckoutStatusPaymentMethodSelected
			return "", &ValidationError{Fields: fields}
		}
	}
	_ = m.transition(domain.CheckoutStatusProcessing)
	return m.method, nil
}

// Settle runs the settlement of a payment started by Begin.
func (m *Machine) Settle(ctx context.Context, method domain.PaymentMethod) error {
	if m.Status() != domain.CheckoutStatusProcessing {
		return IllegalTransitionError
	}

	m.logger.Info("processing payment", zap.String("method", string(method)))
	err := m.settler.Settle(ctx, method)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Error("settlement failed", zap.Error(err))
		m.status = domain.CheckoutStatusPaymentMethodSelected
		return err
	}
	return m.transition(domain.CheckoutStatusSuccess)
}

// Cancel closes the checkout. Before Processing it leaves the cart untouched.
// Closing the success screen finalizes the sale like Done.
func (m *Machine) Cancel(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case domain.CheckoutStatusProcessing:
		return ErrCheckoutInProgress
	case domain.CheckoutStatusSuccess:
		m.finalize(ctx)
		return nil
	}
	m.reset(domain.CheckoutStatusIdle)
	return nil
}

// Done completes a successful checkout: it reports the payment, then clears the
// cart, the selected customer and the form.
func (m *Machine) Done(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.CheckoutStatusSuccess {
		return IllegalTransitionError
	}
	m.finalize(ctx)
	return nil
}

// finalize must be called with m.mu held and status Success.
func (m *Machine) finalize(ctx context.Context) {
	if m.onCompleted != nil {
		m.onCompleted(ctx, m.method)
	}
	m.cart.ClearCart()
	m.cart.ClearCustomer()
	m.reset(domain.CheckoutStatusDone)
}

func (m *Machine) Status() domain.CheckoutStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Status: m.status,
		Open:   m.open,
		Method: m.method,
	}
	switch m.method {
	case domain.PaymentMethodCard:
		s.InvalidFields = m.form.Invalid()
		s.Eligible = len(s.InvalidFields) == 0
	case domain.PaymentMethodCash:
		s.Eligible = true
	}
	return s
}
