package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCatalog implements inventory.Catalog for testing
type MockCatalog struct{}

func (MockCatalog) ListSellable(context.Context) ([]domain.Item, error) {
	return []domain.Item{
		{ID: 1, Name: "Haircut", Price: decimal.RequireFromString("25.00"), Type: domain.ItemTypeService},
		{ID: 1, Name: "Shampoo", Price: decimal.RequireFromString("12.50"), Type: domain.ItemTypeProduct, Stock: 40},
		{ID: 2, Name: "Comb", Price: decimal.RequireFromString("3.00"), Type: domain.ItemTypeProduct, Stock: 100},
	}, nil
}

// MockDirectory implements CustomerDirectory for testing
type MockDirectory struct {
	mu        sync.Mutex
	customers []domain.Customer
	SearchErr error
}

func (m *MockDirectory) Search(_ context.Context, q string) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	var out []domain.Customer
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockDirectory) Create(_ context.Context, data domain.NewCustomer) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Customer{ID: "cust-" + strings.ToLower(data.Name), Name: data.Name, Email: data.Email, CreatedAt: time.Now()}
	m.customers = append(m.customers, c)
	return &c, nil
}

// MockTransactionStore implements sales.TransactionStore for testing
type MockTransactionStore struct {
	mu      sync.Mutex
	created []domain.Transaction
}

func (m *MockTransactionStore) Create(_ context.Context, tx *domain.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *tx)
	return tx.ID, nil
}

func (m *MockTransactionStore) CreateLineItem(context.Context, domain.LineItem) (string, error) {
	return "li", nil
}

func (m *MockTransactionStore) ListAll(context.Context) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, len(m.created))
	copy(out, m.created)
	return out, nil
}
