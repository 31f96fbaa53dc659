package menu

import (
	"fmt"
	"sync"
	"time"

	"qrdine-backend/internal/models"
)

// ItemCache holds the last fetched menu for ttl so every customer screen
// does not hit the menu service. A ttl of zero or less disables it.
type ItemCache struct {
	mutex sync.Mutex
	ttl   time.Duration
	now   func() time.Time

	items     []models.MenuItem
	fetchedAt time.Time
	valid     bool

	hits          int64
	misses        int64
	expirations   int64
	invalidations int64
}

func NewItemCache(ttl time.Duration) *ItemCache {
	return &ItemCache{ttl: ttl, now: time.Now}
}

// Get returns the cached menu. An expired menu is dropped on read.
func (c *ItemCache) Get() ([]models.MenuItem, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) > c.ttl {
		c.items, c.valid = nil, false
		c.expirations++
	}
	if !c.valid {
		c.misses++
		return nil, false
	}
	c.hits++
	return c.items, true
}

func (c *ItemCache) Set(items []models.MenuItem) {
	if c.ttl <= 0 {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items, c.fetchedAt, c.valid = items, c.now(), true
}

// Invalidate drops the cached menu so the next read refetches it. It
// reports whether there was anything to drop.
func (c *ItemCache) Invalidate() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	was := c.valid
	c.items, c.valid = nil, false
	if was {
		c.invalidations++
	}
	return was
}

// GetStats returns cache statistics for monitoring
func (c *ItemCache) GetStats() map[string]interface{} {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	stats := map[string]interface{}{
		"cached":        c.valid,
		"items":         len(c.items),
		"hits":          c.hits,
		"misses":        c.misses,
		"hit_rate":      fmt.Sprintf("%.2f%%", hitRate),
		"expirations":   c.expirations,
		"invalidations": c.invalidations,
		"ttl_seconds":   int(c.ttl.Seconds()),
	}
	if c.valid {
		stats["age_seconds"] = int(c.now().Sub(c.fetchedAt).Seconds())
	}
	return stats
}
