package cache

import (
	"context"
	"errors"
)

// KeyValueStore is the durable byte store customer carts are kept in.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

var ErrNotFound = errors.New("key not found")
