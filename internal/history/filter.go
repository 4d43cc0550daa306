package history

import (
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

// Filter selects history records. A nil bound is not applied. Price bounds
// compare against the transaction total; date bounds are inclusive.
type Filter struct {
	IncludeServices bool
	IncludeProducts bool
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	StartDate       *time.Time
	EndDate         *time.Time
}

func DefaultFilter() Filter {
	return Filter{IncludeServices: true, IncludeProducts: true}
}

func (f Filter) includes(t domain.ItemType) bool {
	switch t {
	case domain.ItemTypeService:
		return f.IncludeServices
	case domain.ItemTypeProduct:
		return f.IncludeProducts
	}
	return false
}

func (f Filter) matchesType(tx domain.Transaction) bool {
	if !f.IncludeServices && !f.IncludeProducts {
		return false
	}
	if f.IncludeServices && f.IncludeProducts {
		return true
	}
	// nothing itemized to filter on
	if len(tx.LineItems) == 0 {
		return true
	}
	for _, li := range tx.LineItems {
		if f.includes(li.ItemType) {
			return true
		}
	}
	return false
}

func (f Filter) Match(tx domain.Transaction) bool {
	if !f.matchesType(tx) {
		return false
	}
	if f.MinPrice != nil && tx.Total.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && tx.Total.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.StartDate != nil && tx.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// Apply returns the records matching f, keeping their order. txs is not modified.
func (f Filter) Apply(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}
