package cache

import (
	"context"
	"sync/atomic"
	"time"

	"lendshare/internal/domain"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
)

// FailoverViewCache serves from the primary cache and falls back to the
// secondary when the primary errors. The primary is retried after a minute.
type FailoverViewCache struct {
	primary   domain.ViewCache
	fallback  domain.ViewCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverViewCache(primary, fallback domain.ViewCache, logger *zerolog.Logger) *FailoverViewCache {
	return &FailoverViewCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverViewCache) GetOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, bool, error) {
	if !c.isDown.Load() {
		views, ok, err := c.primary.GetOwnerItems(ctx, ownerID)
		if err == nil {
			return views, ok, nil
		}
		c.markDown(err)
	}

	if c.isDown.Load() && time.Since(c.lastCheck) > time.Minute {
		views, ok, err := c.primary.GetOwnerItems(ctx, ownerID)
		if err == nil {
			c.isDown.Store(false)
			return views, ok, nil
		}
		c.lastCheck = time.Now()
	}

	return c.fallback.GetOwnerItems(ctx, ownerID)
}

func (c *FailoverViewCache) SetOwnerItems(ctx context.Context, ownerID int64, views []models.ItemView) error {
	if !c.isDown.Load() {
		err := c.primary.SetOwnerItems(ctx, ownerID, views)
		if err == nil {
			return nil
		}
		c.markDown(err)
	}

	return c.fallback.SetOwnerItems(ctx, ownerID, views)
}

// Invalidate clears both caches so a stale fallback entry cannot resurface
// after the primary recovers.
func (c *FailoverViewCache) Invalidate(ctx context.Context, ownerID int64) error {
	var primaryErr error
	if !c.isDown.Load() {
		primaryErr = c.primary.Invalidate(ctx, ownerID)
		if primaryErr != nil {
			c.markDown(primaryErr)
		}
	}

	if err := c.fallback.Invalidate(ctx, ownerID); err != nil {
		return err
	}
	return primaryErr
}

func (c *FailoverViewCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("Primary view cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck = time.Now()
}
