package inmemory

import (
	"sync"
	"time"

	albumdomain "latergram-go/internal/domain/album"
)

// InMemoryOverviewCache holds per-user album overviews with a TTL. Entries
// are invalidated explicitly on membership transitions and lazily on read.
type InMemoryOverviewCache struct {
	mu    sync.RWMutex
	items map[string]overviewItem
}

type overviewItem struct {
	value     *albumdomain.Overview
	expiresAt time.Time
}

func NewInMemoryOverviewCache() *InMemoryOverviewCache {
	return &InMemoryOverviewCache{
		items: make(map[string]overviewItem),
	}
}

func (c *InMemoryOverviewCache) Get(userID string) (*albumdomain.Overview, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	return item.value, true
}

func (c *InMemoryOverviewCache) Set(userID string, overview *albumdomain.Overview, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.items[userID] = overviewItem{
		value:     overview,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryOverviewCache) Delete(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

func (c *InMemoryOverviewCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]overviewItem)
	c.mu.Unlock()
}
