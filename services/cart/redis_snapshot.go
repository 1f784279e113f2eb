package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labbook/models"

	"github.com/go-redis/redis/v8"
)

// RedisSnapshots keeps each cart as a single JSON array under "cart:<key>".
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshots(client *redis.Client, ttl time.Duration) *RedisSnapshots {
	return &RedisSnapshots{client: client, ttl: ttl}
}

func cacheKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

func (r *RedisSnapshots) Load(ctx context.Context, key string) ([]models.CartLineItem, error) {
	data, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []models.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, key string, items []models.CartLineItem) error {
	if items == nil {
		items = []models.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSnapshots) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
