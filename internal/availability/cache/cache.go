// Package cache keeps short-lived availability projections in front of storage.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"bizqueue/pkg/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// StatusCache is read-through: take a Generation before loading from storage
// and hand it to Add, so a load that raced an Invalidate is never cached.
type StatusCache interface {
	Get(businessID string) (model.AvailabilityStatus, bool)
	Generation() uint64
	// Add reports whether status was stored.
	Add(status model.AvailabilityStatus, gen uint64) bool
	Invalidate(businessID string)
}

type lruStatusCache struct {
	mu          sync.Mutex
	values      *expirable.LRU[string, model.AvailabilityStatus]
	invalidated *expirable.LRU[string, uint64]
	generation  uint64
	// highest generation among forgotten invalidations; ids without a record
	// are compared against it. Written from the ttl reaper too.
	floor atomic.Uint64
}

// NewStatusCache bounds staleness by ttl even when an invalidation is missed.
func NewStatusCache(size int, ttl time.Duration) StatusCache {
	c := &lruStatusCache{
		values: expirable.NewLRU[string, model.AvailabilityStatus](size, nil, ttl),
	}
	c.invalidated = expirable.NewLRU[string, uint64](size, func(_ string, gen uint64) {
		for {
			cur := c.floor.Load()
			if gen <= cur || c.floor.CompareAndSwap(cur, gen) {
				return
			}
		}
	}, ttl)
	return c
}

func (c *lruStatusCache) Get(businessID string) (model.AvailabilityStatus, bool) {
	return c.values.Get(businessID)
}

func (c *lruStatusCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *lruStatusCache) Add(status model.AvailabilityStatus, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.invalidated.Get(status.BusinessID)
	if !ok {
		last = c.floor.Load()
	}
	if last > gen {
		return false
	}
	c.values.Add(status.BusinessID, status)
	return true
}

func (c *lruStatusCache) Invalidate(businessID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.invalidated.Add(businessID, c.generation)
	c.values.Remove(businessID)
}
