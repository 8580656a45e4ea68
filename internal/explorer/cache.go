// Package explorer provides the client-side state containers behind both
// frontends: the listing cache, the selection set, the copy/cut clipboard
// and the filter/sort/paginate view pipeline.
package explorer

import (
	"context"
	"sync"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/events"
)

// ListAPI is the slice of the agent client the cache needs.
type ListAPI interface {
	List(ctx context.Context, path string) ([]agent.Entry, error)
	Drives(ctx context.Context) ([]agent.Entry, error)
}

// DrivesKey is the cache key for the drive listing.
const DrivesKey = ""

// Cache holds one listing per visited folder path, keyed by the exact
// normalized path string. Entries never expire on their own: mutation flows
// call Invalidate and reload. Thread-safe for concurrent access.
type Cache struct {
	api ListAPI
	bus *events.Bus

	mu       sync.RWMutex
	listings map[string][]agent.Entry
}

// NewCache creates an empty listing cache.
func NewCache(api ListAPI, bus *events.Bus) *Cache {
	return &Cache{
		api:      api,
		bus:      bus,
		listings: make(map[string][]agent.Entry),
	}
}

// Load returns the cached listing for path, fetching it on a miss.
// The DrivesKey path loads the drive roots.
func (c *Cache) Load(ctx context.Context, path string) ([]agent.Entry, error) {
	c.mu.RLock()
	cached, ok := c.listings[path]
	c.mu.RUnlock()
	if ok {
		return copyEntries(cached), nil
	}

	return c.fetch(ctx, path)
}

// Refresh always fetches. On success the entry is replaced; on failure the
// prior entry stays usable and the error is returned.
func (c *Cache) Refresh(ctx context.Context, path string) ([]agent.Entry, error) {
	return c.fetch(ctx, path)
}

// fetch loads a listing from the agent and stores it. The fetch runs outside
// the lock; concurrent loads of the same path may fetch twice and the last
// write wins.
func (c *Cache) fetch(ctx context.Context, path string) ([]agent.Entry, error) {
	var entries []agent.Entry
	var err error

	if path == DrivesKey {
		entries, err = c.api.Drives(ctx)
	} else {
		entries, err = c.api.List(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.listings[path] = entries
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.PublishListing(events.EventListingLoaded, path, len(entries))
	}

	return copyEntries(entries), nil
}

// Invalidate drops the cached listings for the given paths. Unknown paths
// are ignored; the next Load fetches fresh.
func (c *Cache) Invalidate(paths ...string) {
	c.mu.Lock()
	dropped := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := c.listings[path]; ok {
			delete(c.listings, path)
			dropped = append(dropped, path)
		}
	}
	c.mu.Unlock()

	if c.bus != nil {
		for _, path := range dropped {
			c.bus.PublishListing(events.EventListingInvalidated, path, 0)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.listings = make(map[string][]agent.Entry)
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.PublishListing(events.EventListingInvalidated, DrivesKey, 0)
	}
}

// Peek returns the cached listing without fetching.
func (c *Cache) Peek(path string) ([]agent.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.listings[path]
	if !ok {
		return nil, false
	}
	return copyEntries(cached), true
}

// Size returns the number of cached listings.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}

func copyEntries(entries []agent.Entry) []agent.Entry {
	result := make([]agent.Entry, len(entries))
	copy(result, entries)
	return result
}
