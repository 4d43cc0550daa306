package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	SalesTopic         = "pos-sales"
	EventSaleCompleted = "sale.completed"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type SalePublisher struct {
	writer MessageWriter
}

func NewSalePublisher(brokers ...string) *SalePublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  SalesTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &SalePublisher{writer: w}
}

func NewSalePublisherWithWriter(w MessageWriter) *SalePublisher {
	return &SalePublisher{writer: w}
}

type saleItem struct {
	ItemID    int64           `json:"item_id"`
	ItemType  domain.ItemType `json:"item_type"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"line_total"`
}

type saleCompleted struct {
	TransactionID string               `json:"transaction_id"`
	CustomerID    string               `json:"customer_id,omitempty"`
	Items         []saleItem           `json:"items"`
	Subtotal      string               `json:"subtotal"`
	TaxAmount     string               `json:"tax_amount"`
	Total         string               `json:"total"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	CompletedAt   time.Time            `json:"completed_at"`
}

func newSaleCompleted(tx *domain.Transaction) saleCompleted {
	ev := saleCompleted{
		TransactionID: tx.ID,
		Items:         make([]saleItem, len(tx.LineItems)),
		Subtotal:      tx.Subtotal.StringFixed(2),
		TaxAmount:     tx.TaxAmount.StringFixed(2),
		Total:         tx.Total.StringFixed(2),
		PaymentMethod: tx.PaymentMethod,
		CompletedAt:   tx.CreatedAt,
	}
	if tx.Customer != nil {
		ev.CustomerID = tx.Customer.ID
	}
	for i, li := range tx.LineItems {
		ev.Items[i] = saleItem{
			ItemID:    li.ItemID,
			ItemType:  li.ItemType,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal.StringFixed(2),
		}
	}
	return ev
}

// PublishSaleCompleted writes one sale.completed event keyed by transaction id.
func (p *SalePublisher) PublishSaleCompleted(ctx context.Context, tx *domain.Transaction) error {
	payload, err := json.Marshal(newSaleCompleted(tx))
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(tx.ID), // transaction id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventSaleCompleted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write sale event: %w", err)
	}
	return nil
}

func (p *SalePublisher) Close() error {
	return p.writer.Close()
}
