package cache

import (
	"context"
	"sync"
	"time"

	"lendshare/internal/models"
)

// MemoryViewCache is the in-process fallback behind the Redis cache.
type MemoryViewCache struct {
	entries sync.Map
	ttl     time.Duration
}

type memoryEntry struct {
	views     []models.ItemView
	expiresAt time.Time
}

func NewMemoryViewCache(ttl time.Duration) *MemoryViewCache {
	return &MemoryViewCache{ttl: ttl}
}

func (c *MemoryViewCache) GetOwnerItems(_ context.Context, ownerID int64) ([]models.ItemView, bool, error) {
	val, ok := c.entries.Load(ownerID)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.entries.Delete(ownerID)
		return nil, false, nil
	}
	return entry.views, true, nil
}

func (c *MemoryViewCache) SetOwnerItems(_ context.Context, ownerID int64, views []models.ItemView) error {
	entry := &memoryEntry{views: views}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries.Store(ownerID, entry)
	return nil
}

func (c *MemoryViewCache) Invalidate(_ context.Context, ownerID int64) error {
	c.entries.Delete(ownerID)
	return nil
}
