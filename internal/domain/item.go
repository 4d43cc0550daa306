package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTypeService ItemType = "service"
	ItemTypeProduct ItemType = "product"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeService || t == ItemTypeProduct
}

func (t ItemType) String() string {
	return string(t)
}

// Item is a sellable catalog entry. Stock is only meaningful for products.
type Item struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Type  ItemType        `json:"type"`
	Stock int32           `json:"stock,omitempty"`
}

// CartKey identifies a cart line. Services and products may share numeric ids,
// so the type is part of the identity.
type CartKey struct {
	Type ItemType
	ID   int64
}

func NewCartKey(t ItemType, id int64) CartKey {
	return CartKey{Type: t, ID: id}
}

func (k CartKey) String() string {
	return fmt.Sprintf("%s-%d", k.Type, k.ID)
}
