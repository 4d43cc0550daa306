package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockReader struct {
	mu       sync.Mutex
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (m *MockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if m.Err != nil {
		err := m.Err
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(m.Messages) > 0 {
		msg := m.Messages[0]
		m.Messages = m.Messages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *MockReader) Close() error {
	m.Closed = true
	return nil
}

type MockInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (m *MockInvalidator) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *MockInvalidator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func saleMessage(key, eventType string) kafka.Message {
	return kafka.Message{
		Key:     []byte(key),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}

func TestSaleConsumer_InvalidatesOnSaleEvents(t *testing.T) {
	reader := &MockReader{Messages: []kafka.Message{
		saleMessage("tx-1", EventSaleCompleted),
		saleMessage("x", "something.else"),
		saleMessage("tx-2", EventSaleCompleted),
	}}
	inv := &MockInvalidator{}
	c := NewSaleConsumerWithReader(reader, inv, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return inv.Calls() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, 2, inv.Calls())
}

func TestSaleConsumer_ReadError(t *testing.T) {
	reader := &MockReader{Err: errors.New("broker gone")}
	inv := &MockInvalidator{}
	c := NewSaleConsumerWithReader(reader, inv, zap.NewNop())

	err := c.consume(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read message")
	assert.Zero(t, inv.Calls())
}

func TestSaleConsumer_Close(t *testing.T) {
	reader := &MockReader{}
	require.NoError(t, NewSaleConsumerWithReader(reader, &MockInvalidator{}, zap.NewNop()).Close())
	assert.True(t, reader.Closed)
}
