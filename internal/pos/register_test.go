package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_pos/internal/cache"
	"github.com/fjod/go_pos/internal/cartstore"
	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/history"
	"github.com/fjod/go_pos/internal/sales"
	"github.com/fjod/go_pos/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	widget = domain.Item{ID: 7, Name: "Widget", Price: decimal.RequireFromString("25.00"), Type: domain.ItemTypeProduct, Stock: 10}
	ann    = domain.Customer{ID: "cust-a", Name: "Ann"}
	bob    = domain.Customer{ID: "cust-b", Name: "Bob"}
)

func newTestRegistry(t *testing.T, store *MockTransactionStore) *Registry {
	return newTestRegistryWithSettler(t, store, checkout.SimulatedSettler{})
}

func newTestRegistryWithSettler(t *testing.T, store *MockTransactionStore, settler checkout.Settler) *Registry {
	cartStore := cartstore.New(cache.NewMemoryStore(), zap.NewNop())
	t.Cleanup(func() { cartStore.Close() })

	return NewRegistry(Deps{
		CartStore:    cartStore,
		Transactions: store,
		Inventory:    &MockInventory{},
		Settler:      settler,
		Sales:        sales.Config{TaxRate: decimal.NewFromInt(8)},
	}, zap.NewNop())
}

func waitSyncs(t *testing.T, reg *Registry) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reg.Wait(ctx))
}

func pay(t *testing.T, r *Register) {
	ctx := context.Background()
	require.NoError(t, r.Checkout().Open())
	require.NoError(t, r.Checkout().SelectMethod(domain.PaymentMethodCash))
	require.NoError(t, r.Submit(ctx))
	require.NoError(t, r.Checkout().Done(ctx))
}

func TestRegistry_GetReusesRegisters(t *testing.T) {
	reg := newTestRegistry(t, &MockTransactionStore{})

	assert.Same(t, reg.Get(""), reg.Get(DefaultRegisterID))
	assert.NotSame(t, reg.Get("a"), reg.Get("b"))
}

func TestRegister_CustomerCartsRestore(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, &MockTransactionStore{}).Get("main")

	require.NoError(t, r.SelectCustomer(ctx, ann))
	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 2)
	}))

	require.NoError(t, r.SelectCustomer(ctx, bob))
	assert.Empty(t, r.Cart().Lines, "bob has no stored cart")

	require.NoError(t, r.SelectCustomer(ctx, ann))
	lines := r.Cart().Lines
	require.Len(t, lines, 1)
	assert.Equal(t, widget.ID, lines[0].ItemID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestRegister_DoneRecordsSaleAndClears(t *testing.T) {
	store := &MockTransactionStore{}
	reg := newTestRegistry(t, store)
	r := reg.Get("main")

	require.NoError(t, r.SelectCustomer(context.Background(), ann))
	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 4)
	}))

	pay(t, r)
	waitSyncs(t, reg)

	view := r.Cart()
	assert.Empty(t, view.Lines)
	assert.Nil(t, view.Customer)

	require.Len(t, store.Created, 1)
	tx := store.Created[0]
	assert.Equal(t, "100.00", tx.Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", tx.TaxAmount.StringFixed(2))
	assert.Equal(t, "108.00", tx.Total.StringFixed(2))
	require.NotNil(t, tx.Customer)
	assert.Equal(t, ann.ID, tx.Customer.ID)
	assert.Len(t, store.LineItems, 1)
}

func TestRegister_DoneClearsEvenWhenBackendFails(t *testing.T) {
	store := &MockTransactionStore{Err: errors.New("db down")}
	reg := newTestRegistry(t, store)
	r := reg.Get("main")

	require.NoError(t, r.SelectCustomer(context.Background(), ann))
	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 4)
	}))

	pay(t, r)
	waitSyncs(t, reg)

	view := r.Cart()
	assert.Empty(t, view.Lines)
	assert.Nil(t, view.Customer)

	page := r.History(context.Background(), history.DefaultFilter())
	assert.True(t, page.Partial)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, "108.00", page.Transactions[0].Total.StringFixed(2))
	assert.Equal(t, "Ann", page.Transactions[0].Customer.Name)
}

func TestRegister_ReselectAfterSaleStartsEmpty(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, &MockTransactionStore{})
	r := reg.Get("main")

	require.NoError(t, r.SelectCustomer(ctx, ann))
	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 1)
	}))
	pay(t, r)
	waitSyncs(t, reg)

	require.NoError(t, r.SelectCustomer(ctx, ann))
	assert.Empty(t, r.Cart().Lines)
}

func TestRegister_CartLockedAfterPayment(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, &MockTransactionStore{}).Get("main")

	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 1)
	}))
	require.NoError(t, r.Checkout().Open())
	require.NoError(t, r.Checkout().SelectMethod(domain.PaymentMethodCash))
	require.NoError(t, r.Submit(ctx))

	err := r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 9)
	})
	assert.ErrorIs(t, err, ErrCartLocked)
	assert.ErrorIs(t, r.Preseed(nil, nil), ErrCartLocked)
	assert.Equal(t, 1, r.Cart().Count)

	require.NoError(t, r.Checkout().Done(ctx))
	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 9)
	}))
}

func TestRegister_Preseed(t *testing.T) {
	reg := newTestRegistry(t, &MockTransactionStore{})
	r := reg.Get("main")

	lines := []domain.CartLine{domain.NewCartLine(widget, domain.ItemTypeProduct, 3)}
	require.NoError(t, r.Preseed(lines, &bob))

	view := r.Cart()
	require.NotNil(t, view.Customer)
	assert.Equal(t, bob.ID, view.Customer.ID)
	assert.Equal(t, 3, view.Count)

	c, ok := reg.Customers().Lookup(bob.ID)
	require.True(t, ok)
	assert.Equal(t, "Bob", c.Name)
}

func TestRegister_HistoryShowsRecentSales(t *testing.T) {
	store := &MockTransactionStore{}
	reg := newTestRegistry(t, store)
	r := reg.Get("main")

	for i := 0; i < 2; i++ {
		require.NoError(t, r.UpdateCart(func(s *session.Session) {
			s.Increment(widget, domain.ItemTypeProduct)
		}))
		pay(t, r)
	}
	waitSyncs(t, reg)

	page := r.History(context.Background(), history.DefaultFilter())
	assert.False(t, page.Partial)
	require.Len(t, page.Transactions, 2, "stored and recent copies are not duplicated")
	assert.False(t, page.Transactions[0].CreatedAt.Before(page.Transactions[1].CreatedAt))

	onlyServices := history.Filter{IncludeServices: true}
	assert.Empty(t, r.History(context.Background(), onlyServices).Transactions)
}

// gateSettler holds settlement until release is closed.
type gateSettler struct {
	started chan struct{}
	release chan struct{}
}

func (g gateSettler) Settle(context.Context, domain.PaymentMethod) error {
	g.started <- struct{}{}
	<-g.release
	return nil
}

func TestRegister_SubmitRejectsCartEmptiedAfterOpen(t *testing.T) {
	ctx := context.Background()
	store := &MockTransactionStore{}
	reg := newTestRegistry(t, store)
	r := reg.Get("main")

	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 1)
	}))
	require.NoError(t, r.Checkout().Open())
	require.NoError(t, r.Checkout().SelectMethod(domain.PaymentMethodCash))

	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.Remove(domain.NewCartKey(domain.ItemTypeProduct, widget.ID))
	}))

	assert.ErrorIs(t, r.Submit(ctx), checkout.ErrEmptyCart)
	assert.Equal(t, domain.CheckoutStatusPaymentMethodSelected, r.Checkout().Status())
	assert.ErrorIs(t, r.Checkout().Done(ctx), checkout.IllegalTransitionError)

	waitSyncs(t, reg)
	assert.Empty(t, store.Created)
	assert.Empty(t, r.History(ctx, history.DefaultFilter()).Transactions)
}

func TestRegister_ConcurrentSubmitFailsFast(t *testing.T) {
	ctx := context.Background()
	settler := gateSettler{started: make(chan struct{}, 1), release: make(chan struct{})}
	r := newTestRegistryWithSettler(t, &MockTransactionStore{}, settler).Get("main")

	require.NoError(t, r.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(widget, domain.ItemTypeProduct, 1)
	}))
	require.NoError(t, r.Checkout().Open())
	require.NoError(t, r.Checkout().SelectMethod(domain.PaymentMethodCash))

	first := make(chan error, 1)
	go func() { first <- r.Submit(ctx) }()
	<-settler.started

	second := make(chan error, 1)
	go func() { second <- r.Submit(ctx) }()
	select {
	case err := <-second:
		assert.ErrorIs(t, err, checkout.ErrCheckoutInProgress)
	case <-time.After(time.Second):
		t.Fatal("second submit waited for the running settlement")
	}

	assert.ErrorIs(t, r.UpdateCart(func(*session.Session) {}), ErrCartLocked)

	close(settler.release)
	require.NoError(t, <-first)
	assert.Equal(t, domain.CheckoutStatusSuccess, r.Checkout().Status())
	assert.ErrorIs(t, r.Submit(ctx), checkout.ErrCheckoutInProgress)
}
