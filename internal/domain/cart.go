package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	ItemID    int64           `json:"item_id"`
	ItemType  ItemType        `json:"item_type"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func NewCartLine(item Item, itemType ItemType, quantity int) CartLine {
	return CartLine{
		ItemID:    item.ID,
		ItemType:  itemType,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
	}
}

func (l CartLine) Key() CartKey {
	return CartKey{Type: l.ItemType, ID: l.ItemID}
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
