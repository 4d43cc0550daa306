package session

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_pos/internal/cache"
	"github.com/fjod/go_pos/internal/cart"
	"github.com/fjod/go_pos/internal/cartstore"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartPersister is the customer cart store as the session sees it.
type CartPersister interface {
	Save(customerID string, lines []domain.CartLine) <-chan cartstore.Result
	Load(ctx context.Context, customerID string) ([]domain.CartLine, error)
}

// Session is the state of one register: its cart and the selected customer.
// All access goes through its methods.
type Session struct {
	mu       sync.Mutex
	cart     *cart.Manager
	customer *domain.Customer
	store    CartPersister
	logger   *zap.Logger
}

type View struct {
	Lines    []domain.CartLine `json:"lines"`
	Total    decimal.Decimal   `json:"total"`
	Count    int               `json:"count"`
	Customer *domain.Customer  `json:"customer,omitempty"`
}

func New(store CartPersister, logger *zap.Logger) *Session {
	return &Session{
		cart:   cart.NewManager(),
		store:  store,
		logger: logger,
	}
}

// persist must be called with s.mu held.
func (s *Session) persist(changed bool) {
	if !changed || s.customer == nil {
		return
	}
	s.store.Save(s.customer.ID, s.cart.Lines())
}

func (s *Session) AddOrSetLine(item domain.Item, itemType domain.ItemType, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.AddOrSetLine(item, itemType, quantity))
}

func (s *Session) Increment(item domain.Item, itemType domain.ItemType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.Increment(item, itemType))
}

func (s *Session) Decrement(item domain.Item, itemType domain.ItemType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.Decrement(item, itemType))
}

func (s *Session) IncrementKey(key domain.CartKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.cart.IncrementKey(key)
	s.persist(changed)
	return changed
}

func (s *Session) DecrementKey(key domain.CartKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.DecrementKey(key))
}

func (s *Session) Remove(key domain.CartKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.Remove(key))
}

func (s *Session) SetQuantity(key domain.CartKey, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.SetQuantity(key, quantity))
}

func (s *Session) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(s.cart.Clear())
}

// SelectCustomer attaches c to the register. A non-empty stored cart for c
// replaces the in-memory cart. Without one, a cart that belonged to another
// customer is dropped and an anonymous cart is handed to c.
func (s *Session) SelectCustomer(ctx context.Context, c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.customer
	s.customer = &c
	lines, err := s.store.Load(ctx, c.ID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("load customer cart failed", zap.String("customer_id", c.ID), zap.Error(err))
	}

	switch {
	case err == nil && len(lines) > 0:
		s.cart.Replace(lines)
	case prev != nil && prev.ID != c.ID:
		s.cart.Clear()
	}
}

func (s *Session) ClearCustomer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = nil
}

// Preseed replaces cart and customer from an external navigation event.
func (s *Session) Preseed(lines []domain.CartLine, c *domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = nil
	if c != nil {
		cc := *c
		s.customer = &cc
	}
	s.cart.Replace(lines)
	s.persist(true)
}

func (s *Session) Customer() *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

func (s *Session) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

func (s *Session) Contains(itemID int64, itemType domain.ItemType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Contains(itemID, itemType)
}

func (s *Session) QuantityOf(itemID int64, itemType domain.ItemType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.QuantityOf(itemID, itemType)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Lines: s.cart.Lines(),
		Total: s.cart.Total(),
		Count: s.cart.Count(),
	}
	if s.customer != nil {
		c := *s.customer
		v.Customer = &c
	}
	return v
}
