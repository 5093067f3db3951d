package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		logger.Get().WithError(err).Warn("could not connect to redis cache")
	} else {
		logger.Get().WithField("pong", pong).Info("connected to redis cache")
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// SetClient replaces the shared client. Tests point it at miniredis.
func SetClient(c *redis.Client) {
	client = c
}

// Set stores a value in the cache with the given key and expiration time
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(ctx context.Context, key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes a value from the cache by key
func Delete(ctx context.Context, key string) error {
	return GetClient().Del(ctx, key).Err()
}

// SetJSON stores value as JSON.
func SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Set(ctx, key, raw, expiration)
}

// GetJSON decodes a cached JSON value into dst. The bool reports a hit.
func GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := GetClient().Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// JSONStore exposes the JSON helpers as methods for injection.
type JSONStore struct{}

func (JSONStore) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	return GetJSON(ctx, key, dst)
}

func (JSONStore) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return SetJSON(ctx, key, value, expiration)
}
