package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(t ItemType, id int64, price string, qty int) CartLine {
	return CartLine{ItemID: id, ItemType: t, Name: "item", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []CartLine
		rate     string
		subtotal string
		tax      string
		total    string
	}{
		{
			name:     "eight percent of one hundred",
			lines:    []CartLine{line(ItemTypeProduct, 1, "25.00", 4)},
			rate:     "8",
			subtotal: "100",
			tax:      "8",
			total:    "108",
		},
		{
			name:     "tax rounded to cents",
			lines:    []CartLine{line(ItemTypeService, 1, "9.99", 1), line(ItemTypeProduct, 1, "0.33", 3)},
			rate:     "8.25",
			subtotal: "10.98",
			tax:      "0.91",
			total:    "11.89",
		},
		{
			name:     "empty",
			rate:     "8",
			subtotal: "0",
			tax:      "0",
			total:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, tax, total := Totals(tt.lines, decimal.RequireFromString(tt.rate))
			assert.True(t, decimal.RequireFromString(tt.subtotal).Equal(subtotal), "subtotal %s", subtotal)
			assert.True(t, decimal.RequireFromString(tt.tax).Equal(tax), "tax %s", tax)
			assert.True(t, decimal.RequireFromString(tt.total).Equal(total), "total %s", total)
		})
	}
}

func TestNewTransaction(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lines := []CartLine{
		line(ItemTypeService, 7, "40.00", 1),
		line(ItemTypeProduct, 7, "15.00", 2),
	}
	customer := &CustomerRef{ID: "c1", Name: "Ann"}

	tx := NewTransaction("tx-1", lines, customer, PaymentMethodCard, decimal.NewFromInt(8), at)

	require.Len(t, tx.LineItems, 2)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, at, tx.CreatedAt)
	assert.Equal(t, customer, tx.Customer)
	assert.Equal(t, PaymentMethodCard, tx.PaymentMethod)
	assert.Equal(t, "tx-1", tx.LineItems[1].TransactionID)
	assert.True(t, decimal.NewFromInt(30).Equal(tx.LineItems[1].LineTotal))
	assert.True(t, decimal.NewFromInt(70).Equal(tx.Subtotal))
	assert.True(t, decimal.RequireFromString("5.6").Equal(tx.TaxAmount))
	assert.True(t, decimal.RequireFromString("75.6").Equal(tx.Total))
}

func TestTransaction_ProductQuantities(t *testing.T) {
	tx := NewTransaction("tx", []CartLine{
		line(ItemTypeService, 1, "10", 5),
		line(ItemTypeProduct, 1, "10", 2),
		line(ItemTypeProduct, 2, "10", 3),
	}, nil, PaymentMethodCash, decimal.Zero, time.Now())

	assert.Equal(t, map[int64]int{1: 2, 2: 3}, tx.ProductQuantities())
}

func TestCartLine_KeyDistinguishesTypes(t *testing.T) {
	svc := line(ItemTypeService, 3, "1", 1)
	prod := line(ItemTypeProduct, 3, "1", 1)
	assert.NotEqual(t, svc.Key(), prod.Key())
	assert.Equal(t, NewCartKey(ItemTypeProduct, 3), prod.Key())
}
