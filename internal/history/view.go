// Package history assembles the sales history shown at the register: stored
// transactions merged with the sales this register completed but the store may
// not have yet.
package history

import (
	"context"
	"sort"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"go.uber.org/zap"
)

type Source interface {
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

type Recent interface {
	Recent() []domain.Transaction
}

// Customers resolves display data for customers the register knows about.
type Customers interface {
	Lookup(id string) (domain.Customer, bool)
}

type Page struct {
	Transactions []domain.Transaction `json:"transactions"`
	// Partial is set when stored transactions could not be fetched.
	Partial bool `json:"partial,omitempty"`
}

type View struct {
	source    Source
	recent    Recent
	customers Customers
	logger    *zap.Logger
}

func NewView(source Source, recent Recent, customers Customers, logger *zap.Logger) *View {
	return &View{source: source, recent: recent, customers: customers, logger: logger}
}

func (v *View) decorate(tx *domain.Transaction) {
	if tx.Customer == nil || v.customers == nil {
		return
	}
	c, ok := v.customers.Lookup(tx.Customer.ID)
	if !ok {
		return
	}
	ref := *tx.Customer
	ref.Name = c.Name
	tx.Customer = &ref
}

// List returns matching transactions newest first. Recent sales replace stored
// records with the same id.
func (v *View) List(ctx context.Context, f Filter) Page {
	recent := v.recent.Recent()
	seen := make(map[string]struct{}, len(recent))
	merged := make([]domain.Transaction, 0, len(recent))
	for _, tx := range recent {
		seen[tx.ID] = struct{}{}
		merged = append(merged, tx)
	}

	var partial bool
	stored, err := v.source.ListAll(ctx)
	if err != nil {
		logger.FromContext(ctx, v.logger).Warn("failed to fetch stored transactions, showing recent sales only", zap.Error(err))
		partial = true
	}
	for _, tx := range stored {
		if _, dup := seen[tx.ID]; dup {
			continue
		}
		seen[tx.ID] = struct{}{}
		merged = append(merged, tx)
	}

	for i := range merged {
		v.decorate(&merged[i])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return Page{Transactions: f.Apply(merged), Partial: partial}
}
