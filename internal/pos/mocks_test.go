package pos

import (
	"context"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
)

// MockTransactionStore implements sales.TransactionStore for testing
type MockTransactionStore struct {
	mu        sync.Mutex
	Err       error
	Created   []domain.Transaction
	LineItems []domain.LineItem
}

func (m *MockTransactionStore) Create(_ context.Context, tx *domain.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Created = append(m.Created, *tx)
	return tx.ID, nil
}

func (m *MockTransactionStore) CreateLineItem(_ context.Context, item domain.LineItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LineItems = append(m.LineItems, item)
	return "li", nil
}

func (m *MockTransactionStore) ListAll(context.Context) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.Transaction, len(m.Created))
	copy(out, m.Created)
	return out, nil
}

// MockInventory implements sales.InventoryCache for testing
type MockInventory struct {
	mu          sync.Mutex
	Invalidated int
}

func (m *MockInventory) ApplySale(map[int64]int) {}

func (m *MockInventory) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated++
}
