// Package cart holds the in-memory cart of a register session.
//
// Every mutation is synchronous and reports whether the cart changed, so the
// session can decide whether to persist. Invalid quantities never produce an
// error; they remove the line.
package cart

import (
	"github.com/fjod/go_pos/internal/domain"
	"github.com/shopspring/decimal"
)

type Manager struct {
	lines []domain.CartLine
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) find(key domain.CartKey) int {
	for i := range m.lines {
		if m.lines[i].Key() == key {
			return i
		}
	}
	return -1
}

// AddOrSetLine overwrites the quantity of an existing line instead of adding
// to it. Increment is the additive operation.
func (m *Manager) AddOrSetLine(item domain.Item, itemType domain.ItemType, quantity int) bool {
	key := domain.NewCartKey(itemType, item.ID)
	if quantity <= 0 {
		return m.Remove(key)
	}
	if i := m.find(key); i >= 0 {
		if m.lines[i].Quantity == quantity {
			return false
		}
		m.lines[i].Quantity = quantity
		return true
	}
	m.lines = append(m.lines, domain.NewCartLine(item, itemType, quantity))
	return true
}

func (m *Manager) Increment(item domain.Item, itemType domain.ItemType) bool {
	if i := m.find(domain.NewCartKey(itemType, item.ID)); i >= 0 {
		m.lines[i].Quantity++
		return true
	}
	return m.AddOrSetLine(item, itemType, 1)
}

func (m *Manager) Decrement(item domain.Item, itemType domain.ItemType) bool {
	return m.DecrementKey(domain.NewCartKey(itemType, item.ID))
}

// DecrementKey is Decrement for callers that only know the line identity.
func (m *Manager) DecrementKey(key domain.CartKey) bool {
	i := m.find(key)
	if i < 0 {
		return false
	}
	if m.lines[i].Quantity <= 1 {
		return m.Remove(key)
	}
	m.lines[i].Quantity--
	return true
}

// IncrementKey adds one to an existing line. Unknown keys are ignored because
// there is no item data to build a new line from.
func (m *Manager) IncrementKey(key domain.CartKey) bool {
	i := m.find(key)
	if i < 0 {
		return false
	}
	m.lines[i].Quantity++
	return true
}

func (m *Manager) Remove(key domain.CartKey) bool {
	i := m.find(key)
	if i < 0 {
		return false
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	return true
}

func (m *Manager) SetQuantity(key domain.CartKey, quantity int) bool {
	if quantity <= 0 {
		return m.Remove(key)
	}
	i := m.find(key)
	if i < 0 || m.lines[i].Quantity == quantity {
		return false
	}
	m.lines[i].Quantity = quantity
	return true
}

// Replace swaps the whole cart. Lines with non-positive quantity are dropped and
// duplicate keys collapse into the first position with the last quantity seen.
func (m *Manager) Replace(lines []domain.CartLine) {
	m.lines = nil
	for _, l := range lines {
		if i := m.find(l.Key()); i >= 0 {
			m.lines[i].Quantity = l.Quantity
			continue
		}
		m.lines = append(m.lines, l)
	}
	kept := m.lines[:0]
	for _, l := range m.lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	m.lines = kept
}

func (m *Manager) Clear() bool {
	if len(m.lines) == 0 {
		return false
	}
	m.lines = nil
	return true
}

func (m *Manager) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Manager) IsEmpty() bool {
	return len(m.lines) == 0
}

func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (m *Manager) Count() int {
	count := 0
	for _, l := range m.lines {
		count += l.Quantity
	}
	return count
}

func (m *Manager) Contains(itemID int64, itemType domain.ItemType) bool {
	return m.find(domain.NewCartKey(itemType, itemID)) >= 0
}

func (m *Manager) QuantityOf(itemID int64, itemType domain.ItemType) int {
	if i := m.find(domain.NewCartKey(itemType, itemID)); i >= 0 {
		return m.lines[i].Quantity
	}
	return 0
}
