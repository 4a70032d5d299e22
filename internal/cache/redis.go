package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lendshare/internal/config"
	"lendshare/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisViewCache keeps assembled owner item views in Redis so repeated list
// requests skip the aggregation queries.
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{
		client: client,
		ttl:    ttl,
	}
}

func ownerItemsKey(ownerID int64) string {
	return fmt.Sprintf("owner_items:%d", ownerID)
}

func (c *RedisViewCache) GetOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := c.client.Get(ctx, ownerItemsKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item views from redis: %w", err)
	}

	var views []models.ItemView
	if err := json.Unmarshal([]byte(val), &views); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item views: %w", err)
	}
	return views, true, nil
}

func (c *RedisViewCache) SetOwnerItems(ctx context.Context, ownerID int64, views []models.ItemView) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("failed to marshal item views: %w", err)
	}

	if err := c.client.Set(ctx, ownerItemsKey(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set item views in redis: %w", err)
	}
	return nil
}

func (c *RedisViewCache) Invalidate(ctx context.Context, ownerID int64) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, ownerItemsKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete item views from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
