package pos

import (
	"sync"

	"github.com/fjod/go_pos/internal/domain"
)

// CustomerBook remembers customers the registers have seen, for display.
type CustomerBook struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

func NewCustomerBook() *CustomerBook {
	return &CustomerBook{customers: make(map[string]domain.Customer)}
}

func (b *CustomerBook) Remember(cs ...domain.Customer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range cs {
		b.customers[c.ID] = c
	}
}

func (b *CustomerBook) Lookup(id string) (domain.Customer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.customers[id]
	return c, ok
}
