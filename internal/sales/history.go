package sales

import (
	"sync"

	"github.com/fjod/go_pos/internal/domain"
)

const DefaultHistoryLimit = 50

// RecentSales is the register's in-memory list of sales it completed, newest
// first. It holds at most limit entries.
type RecentSales struct {
	mu      sync.RWMutex
	entries []domain.Transaction
	limit   int
}

func NewRecentSales(limit int) *RecentSales {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RecentSales{limit: limit}
}

func (r *RecentSales) Add(tx domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]domain.Transaction, 0, min(len(r.entries)+1, r.limit))
	entries = append(entries, tx)
	for _, e := range r.entries {
		if len(entries) == r.limit {
			break
		}
		entries = append(entries, e)
	}
	r.entries = entries
}

func (r *RecentSales) List() []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *RecentSales) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
