package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCash
}

type LineItem struct {
	ID            string          `json:"id,omitempty"`
	TransactionID string          `json:"transaction_id"`
	ItemID        int64           `json:"item_id"`
	ItemType      ItemType        `json:"item_type"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// Transaction is a completed sale. It is never modified after creation.
type Transaction struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Customer      *CustomerRef    `json:"customer,omitempty"`
	LineItems     []LineItem      `json:"line_items,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// Totals computes subtotal, tax and total for the given lines. taxRate is a
// percentage, so 8 means 8%.
func Totals(lines []CartLine, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	tax = subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}

// NewTransaction builds the transaction record for a sale of lines.
func NewTransaction(id string, lines []CartLine, customer *CustomerRef, method PaymentMethod, taxRate decimal.Decimal, at time.Time) *Transaction {
	subtotal, tax, total := Totals(lines, taxRate)
	items := make([]LineItem, len(lines))
	for i, l := range lines {
		items[i] = LineItem{
			TransactionID: id,
			ItemID:        l.ItemID,
			ItemType:      l.ItemType,
			Name:          l.Name,
			UnitPrice:     l.UnitPrice,
			Quantity:      l.Quantity,
			LineTotal:     l.LineTotal(),
		}
	}
	return &Transaction{
		ID:            id,
		CreatedAt:     at,
		Customer:      customer,
		LineItems:     items,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		Total:         total,
		PaymentMethod: method,
	}
}

// ProductQuantities sums sold quantities per product id. Services are skipped.
func (t *Transaction) ProductQuantities() map[int64]int {
	sold := make(map[int64]int)
	for _, li := range t.LineItems {
		if li.ItemType != ItemTypeProduct {
			continue
		}
		sold[li.ItemID] += li.Quantity
	}
	return sold
}
