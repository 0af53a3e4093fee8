package tokencache

import (
	"context"
	"sync"
)

// Cache is an in-memory implementation of tokencache.Cache for tests and for
// running without a persisted device session.
type Cache struct {
	mu    sync.Mutex
	token string
	ok    bool
}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) Load(ctx context.Context) (string, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.ok, nil
}

func (c *Cache) Save(ctx context.Context, token string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.ok = true
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.ok = false
	return nil
}
