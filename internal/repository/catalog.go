package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/google/uuid"
)

type ItemCatalog struct {
	db *sql.DB
}

func NewItemCatalog(r *Repository) *ItemCatalog {
	return &ItemCatalog{db: r.db}
}

// ListSellable returns sellable services followed by sellable products.
func (c *ItemCatalog) ListSellable(ctx context.Context) ([]domain.Item, error) {
	query := `
		SELECT id, name, price, 'service', 0 FROM services WHERE sellable = TRUE
		UNION ALL
		SELECT id, name, price, 'product', stock FROM products WHERE sellable = TRUE
		ORDER BY 4 DESC, 1
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		var itemType string
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &itemType, &it.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Type = domain.ItemType(itemType)
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

type CustomerDirectory struct {
	db *sql.DB
}

func NewCustomerDirectory(r *Repository) *CustomerDirectory {
	return &CustomerDirectory{db: r.db}
}

// Search matches customers by name, email or phone. An empty query lists all.
func (d *CustomerDirectory) Search(ctx context.Context, q string) ([]domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM customers
		WHERE LOWER(name) LIKE $1 OR LOWER(email) LIKE $1 OR phone LIKE $1
		ORDER BY name
	`

	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	rows, err := d.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return customers, nil
}

func (d *CustomerDirectory) Create(ctx context.Context, data domain.NewCustomer) (*domain.Customer, error) {
	if strings.TrimSpace(data.Name) == "" {
		return nil, ErrCustomerNameRequired
	}
	c := &domain.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(data.Name),
		Email:     strings.TrimSpace(data.Email),
		Phone:     strings.TrimSpace(data.Phone),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	query := `INSERT INTO customers (id, name, email, phone, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := d.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Phone, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}
