package cache

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Cache is a scoped read cache over ristretto. Keys are grouped by
// scope so a write to a wallet can invalidate every cached read that
// might include it, without tracking individual keys at call sites.
type Cache struct {
	inner *ristretto.Cache

	mu     sync.Mutex
	scopes map[string]map[string]struct{}
}

func New() (*Cache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Cache{
		inner:  inner,
		scopes: make(map[string]map[string]struct{}),
	}, nil
}

func (c *Cache) Set(scope, key string, value any) {
	if c == nil {
		return
	}
	full := scope + "/" + key
	c.mu.Lock()
	keys, ok := c.scopes[scope]
	if !ok {
		keys = make(map[string]struct{})
		c.scopes[scope] = keys
	}
	keys[full] = struct{}{}
	c.mu.Unlock()
	c.inner.Set(full, value, 1)
}

func (c *Cache) Get(scope, key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.inner.Get(scope + "/" + key)
}

// ClearScope drops every key registered under the scope.
func (c *Cache) ClearScope(scope string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	keys := c.scopes[scope]
	delete(c.scopes, scope)
	c.mu.Unlock()
	for key := range keys {
		c.inner.Del(key)
	}
}

// Wait blocks until buffered writes are applied. Reads immediately
// after a Set need this; ristretto admits entries asynchronously.
func (c *Cache) Wait() {
	if c != nil {
		c.inner.Wait()
	}
}

func (c *Cache) Close() {
	if c != nil {
		c.inner.Close()
	}
}
