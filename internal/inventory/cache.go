// Package inventory keeps the register's view of sellable items and their stock.
//
// Stock changes in two phases. ApplySale adjusts cached levels right after a
// sale is committed, and Invalidate marks the cache stale so the next read
// refetches authoritative levels from the catalog.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_pos/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrItemNotFound = errors.New("item not found")

// Catalog is the read-only item source.
type Catalog interface {
	ListSellable(ctx context.Context) ([]domain.Item, error)
}

type Cache struct {
	mu      sync.RWMutex
	items   []domain.Item
	index   map[domain.CartKey]int
	loaded  bool
	stale   bool
	gen     uint64
	catalog Catalog
	group   singleflight.Group
	logger  *zap.Logger
}

func NewCache(catalog Catalog, logger *zap.Logger) *Cache {
	return &Cache{
		catalog: catalog,
		index:   make(map[domain.CartKey]int),
		logger:  logger,
	}
}

// Refresh reloads every item from the catalog.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("items", func() (interface{}, error) {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		items, err := c.catalog.ListSellable(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sellable items: %w", err)
		}

		index := make(map[domain.CartKey]int, len(items))
		for i, it := range items {
			index[domain.NewCartKey(it.Type, it.ID)] = i
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.items = items
		c.index = index
		c.loaded = true
		// an invalidation that raced the fetch keeps the cache stale
		c.stale = gen != c.gen
		return nil, nil
	})
	return err
}

func (c *Cache) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.loaded && !c.stale
	loaded := c.loaded
	c.mu.RUnlock()
	if fresh {
		return nil
	}

	if err := c.Refresh(ctx); err != nil {
		if !loaded {
			return err
		}
		c.logger.Warn("inventory refresh failed, serving cached items", zap.Error(err))
	}
	return nil
}

// Items returns the sellable items, refetching first when the cache is stale.
func (c *Cache) Items(ctx context.Context) ([]domain.Item, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Item, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *Cache) Lookup(ctx context.Context, key domain.CartKey) (domain.Item, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return domain.Item{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	return c.items[i], nil
}

// ApplySale takes sold quantities, keyed by product id, off the cached stock.
// Levels never go below zero. Unknown products are ignored.
func (c *Cache) ApplySale(sold map[int64]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, qty := range sold {
		i, ok := c.index[domain.NewCartKey(domain.ItemTypeProduct, id)]
		if !ok {
			continue
		}
		left := int64(c.items[i].Stock) - int64(qty)
		if left < 0 {
			left = 0
		}
		c.items[i].Stock = int32(left)
	}
}

// Invalidate marks the cache stale. The next read refetches from the catalog.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
	c.gen++
}

func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded || c.stale
}
