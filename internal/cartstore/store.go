// Package cartstore keeps each customer's last cart in a key/value store.
//
// Saves are write-behind: they are queued to a single worker and never block
// the caller. Each save hands back a channel with its Result, which callers are
// free to ignore. Loads drain the queue first so a reader always sees the
// register's own earlier writes.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_pos/internal/cache"
	"github.com/fjod/go_pos/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultQueueSize = 256
	defaultTimeout   = 2 * time.Second
)

var (
	ErrClosed    = errors.New("cart store is closed")
	ErrQueueFull = errors.New("cart save queue is full")
)

// Result is the outcome of one write-behind save.
type Result struct {
	Key string
	Err error
}

type job struct {
	key     string
	lines   []domain.CartLine
	result  chan Result
	barrier chan struct{}
}

type Store struct {
	kv      cache.KeyValueStore
	logger  *zap.Logger
	timeout time.Duration
	sfg     singleflight.Group

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

func New(kv cache.KeyValueStore, logger *zap.Logger) *Store {
	s := &Store{
		kv:      kv,
		logger:  logger,
		timeout: defaultTimeout,
		queue:   make(chan job, defaultQueueSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func Key(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}

func (s *Store) run() {
	defer close(s.done)
	for j := range s.queue {
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		err := s.write(j.key, j.lines)
		if err != nil {
			s.logger.Warn("cart save failed", zap.String("key", j.key), zap.Error(err))
		}
		j.result <- Result{Key: j.key, Err: err}
		close(j.result)
	}
}

func (s *Store) write(key string, lines []domain.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.kv.Set(ctx, key, data)
}

// Save queues the full cart of customerID for storage and returns immediately.
// When the queue is full the save is dropped and reported as ErrQueueFull.
func (s *Store) Save(customerID string, lines []domain.CartLine) <-chan Result {
	key := Key(customerID)
	result := make(chan Result, 1)

	snapshot := make([]domain.CartLine, len(lines))
	copy(snapshot, lines)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		result <- Result{Key: key, Err: ErrClosed}
		close(result)
		return result
	}
	select {
	case s.queue <- job{key: key, lines: snapshot, result: result}:
	default:
		s.logger.Warn("cart save dropped", zap.String("key", key), zap.Error(ErrQueueFull))
		result <- Result{Key: key, Err: ErrQueueFull}
		close(result)
	}
	return result
}

// Flush blocks until every save queued before the call has been written.
func (s *Store) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.queue <- job{barrier: barrier}:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load returns the stored cart of customerID. A customer without a stored cart
// yields cache.ErrNotFound.
func (s *Store) Load(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}

	key := Key(customerID)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		var lines []domain.CartLine
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, fmt.Errorf("unmarshal cart failed: %w", err)
		}
		return lines, nil
	})
	if err != nil {
		return nil, err
	}

	lines := v.([]domain.CartLine)
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

// Close drains pending saves and stops the worker.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return nil
}
