package sales

import (
	"context"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
)

// MockStore implements TransactionStore for testing
type MockStore struct {
	mu sync.Mutex

	// CreateID, when set, is the id the backend assigns instead of tx.ID.
	CreateID      string
	CreateErr     error
	LineItemErr   error
	ListErr       error
	Created       []*domain.Transaction
	LineItems     []domain.LineItem
	ListResult    []domain.Transaction
	CreateCalls   int
	LineItemCalls int
}

func (m *MockStore) Create(_ context.Context, tx *domain.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, tx)
	if m.CreateID != "" {
		return m.CreateID, nil
	}
	return tx.ID, nil
}

func (m *MockStore) CreateLineItem(_ context.Context, item domain.LineItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LineItemCalls++
	if m.LineItemErr != nil {
		return "", m.LineItemErr
	}
	m.LineItems = append(m.LineItems, item)
	return "li", nil
}

func (m *MockStore) ListAll(context.Context) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListResult, m.ListErr
}

// MockInventory implements InventoryCache for testing
type MockInventory struct {
	mu          sync.Mutex
	Sold        []map[int64]int
	Invalidated int
}

func (m *MockInventory) ApplySale(sold map[int64]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sold = append(m.Sold, sold)
}

func (m *MockInventory) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated++
}

// MockPublisher implements EventPublisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	Err       error
	Published []string
}

func (m *MockPublisher) PublishSaleCompleted(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, tx.ID)
	return nil
}
