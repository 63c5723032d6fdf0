package dataset

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

// Cache holds the last bundle a Loader produced. Concurrent callers that miss
// share one in-flight load.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu       sync.RWMutex
	bundle   Bundle
	loadedAt time.Time
	gen      uint64
}

// NewCache creates an empty cache over loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Get returns the cached bundle, loading it first when the cache is empty or
// forceRefresh is set.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) (Bundle, error) {
	if !forceRefresh {
		c.mu.RLock()
		b := c.bundle
		c.mu.RUnlock()
		if b != nil {
			return b, nil
		}
	}

	ch := c.group.DoChan("bundle", func() (any, error) {
		c.mu.RLock()
		gen, cached := c.gen, c.bundle
		c.mu.RUnlock()
		// a flight that finished between our cache check and DoChan already filled it
		if cached != nil && !forceRefresh {
			return cached, nil
		}

		start := time.Now()
		b, err := c.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			logger.Error("Dataset load failed", "error", err)
			return nil, err
		}

		c.mu.Lock()
		// an Invalidate during the load wins; the caller still gets fresh data
		if c.gen == gen {
			c.bundle = b
			c.loadedAt = time.Now()
		}
		c.mu.Unlock()
		logger.Info("Dataset loaded", "records", b.Count(), "duration", time.Since(start))
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Bundle), nil
	}
}

// Invalidate drops the cached bundle; the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.bundle = nil
	c.loadedAt = time.Time{}
	c.gen++
	c.mu.Unlock()
	c.group.Forget("bundle")
}

// LoadedAt reports when the cached bundle was loaded; zero when empty.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
