package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Invalidator interface {
	Invalidate()
}

// SaleConsumer listens for sales made at any register and marks the local
// inventory cache stale, so stock shown here follows sales made elsewhere.
type SaleConsumer struct {
	reader    MessageReader
	inventory Invalidator
	logger    *zap.Logger
}

// NewSaleConsumer reads the sales topic. Each instance needs its own groupID
// to see every sale.
func NewSaleConsumer(groupID string, inventory Invalidator, logger *zap.Logger, brokers ...string) *SaleConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    SalesTopic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewSaleConsumerWithReader(reader, inventory, logger)
}

func NewSaleConsumerWithReader(reader MessageReader, inventory Invalidator, logger *zap.Logger) *SaleConsumer {
	return &SaleConsumer{reader: reader, inventory: inventory, logger: logger}
}

func (c *SaleConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.consume(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("failed to consume sale event", zap.Error(err))
		}
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func (c *SaleConsumer) consume(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("read message: %w", err)
	}

	if eventType(m) != EventSaleCompleted {
		return nil
	}
	c.inventory.Invalidate()
	c.logger.Debug("inventory invalidated by sale", zap.String("transaction_id", string(m.Key)))
	return nil
}

func (c *SaleConsumer) Close() error {
	return c.reader.Close()
}
