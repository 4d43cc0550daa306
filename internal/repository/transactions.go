package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/google/uuid"
)

// TransactionStore persists completed sales.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(r *Repository) *TransactionStore {
	return &TransactionStore{db: r.db}
}

// Create inserts the transaction header and returns its id. Line items are
// written separately with CreateLineItem.
func (s *TransactionStore) Create(ctx context.Context, tx *domain.Transaction) (string, error) {
	id := tx.ID
	if id == "" {
		id = uuid.NewString()
	}

	var customerID sql.NullString
	if tx.Customer != nil {
		customerID = sql.NullString{String: tx.Customer.ID, Valid: true}
	}

	query := `INSERT INTO transactions (id, created_at, customer_id, subtotal, tax_amount, total, payment_method)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		id,
		tx.CreatedAt.UTC(),
		customerID,
		tx.Subtotal,
		tx.TaxAmount,
		tx.Total,
		string(tx.PaymentMethod))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// CreateLineItem inserts one line of a stored transaction. Product lines also
// take their quantity off the product stock, never below zero.
func (s *TransactionStore) CreateLineItem(ctx context.Context, item domain.LineItem) (string, error) {
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin line item: %w", err)
	}
	defer dbTx.Rollback()

	query := `INSERT INTO transaction_line_items (id, transaction_id, item_id, item_type, name, unit_price, quantity, line_total)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = dbTx.ExecContext(ctx, query,
		id,
		item.TransactionID,
		item.ItemID,
		string(item.ItemType),
		item.Name,
		item.UnitPrice,
		item.Quantity,
		item.LineTotal)
	if err != nil {
		return "", fmt.Errorf("insert line item: %w", err)
	}

	if item.ItemType == domain.ItemTypeProduct {
		update := `UPDATE products SET stock = CASE WHEN stock > $1 THEN stock - $1 ELSE 0 END WHERE id = $2`
		if _, err := dbTx.ExecContext(ctx, update, item.Quantity, item.ItemID); err != nil {
			return "", fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return "", fmt.Errorf("commit line item: %w", err)
	}
	return id, nil
}

// ListAll returns every stored transaction, newest first, with its line items
// and the customer name when the customer is known.
func (s *TransactionStore) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT t.id, t.created_at, t.customer_id, c.name, t.subtotal, t.tax_amount, t.total, t.payment_method
	          FROM transactions t
	          LEFT JOIN customers c ON c.id = t.customer_id
	          ORDER BY t.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var (
			tx           domain.Transaction
			customerID   sql.NullString
			customerName sql.NullString
			method       string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.CreatedAt,
			&customerID,
			&customerName,
			&tx.Subtotal,
			&tx.TaxAmount,
			&tx.Total,
			&method,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		tx.PaymentMethod = domain.PaymentMethod(method)
		if customerID.Valid {
			tx.Customer = &domain.CustomerRef{ID: customerID.String, Name: customerName.String}
		}
		index[tx.ID] = len(txs)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	if err := s.attachLineItems(ctx, txs, index); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *TransactionStore) attachLineItems(ctx context.Context, txs []domain.Transaction, index map[string]int) error {
	if len(txs) == 0 {
		return nil
	}

	query := `SELECT id, transaction_id, item_id, item_type, name, unit_price, quantity, line_total
	          FROM transaction_line_items
	          ORDER BY transaction_id, item_type DESC, item_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			li       domain.LineItem
			itemType string
		)
		if err := rows.Scan(
			&li.ID,
			&li.TransactionID,
			&li.ItemID,
			&itemType,
			&li.Name,
			&li.UnitPrice,
			&li.Quantity,
			&li.LineTotal,
		); err != nil {
			return fmt.Errorf("scan line item row: %w", err)
		}
		li.ItemType = domain.ItemType(itemType)
		i, ok := index[li.TransactionID]
		if !ok {
			continue
		}
		txs[i].LineItems = append(txs[i].LineItems, li)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}
