// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"labbook/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient holds cart snapshots, booking drafts and checkout locks.
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// OTPCacheClient holds pending sign-in codes.
	OTPCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis connects every Redis client used by the service.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB, "OTP")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	}
	return AuthCacheClient
}

// GetOTPCacheClient returns the Redis client for one-time passcodes.
func GetOTPCacheClient() *redis.Client {
	if OTPCacheClient == nil {
		OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB, "OTP")
	}
	return OTPCacheClient
}
