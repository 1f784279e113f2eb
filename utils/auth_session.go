// File: labbook/utils/auth_session.go
package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound is returned when no session is stored under the key.
var ErrSessionNotFound = errors.New("session not found or expired")

// SaveSession stores v as JSON under key with a TTL.
func SaveSession(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", key, err)
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

// GetSession loads the JSON stored under key into v.
func GetSession(ctx context.Context, client *redis.Client, key string, v any) error {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load session %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal session %s: %w", key, err)
	}
	return nil
}

// DeleteSession removes a stored session.
func DeleteSession(ctx context.Context, client *redis.Client, key string) error {
	return client.Del(ctx, key).Err()
}
