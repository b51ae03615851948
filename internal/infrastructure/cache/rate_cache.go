package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateCache stores fetched exchange rate tables keyed by base currency.
// A table maps quote currency codes to the rate from the base.
type RateCache interface {
	// GetRates returns the cached table for a base currency. The bool
	// reports whether a fresh entry was found.
	GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, bool, error)

	// SetRates caches a table for a base currency with the given TTL
	SetRates(ctx context.Context, base string, rates map[string]decimal.Decimal, ttl time.Duration) error
}

const rateKeyPrefix = "fx:rates:"

// RedisRateCache implements RateCache on Redis, shared across instances
type RedisRateCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateCache creates a Redis-backed rate cache
func NewRedisRateCache(cfg RedisConfig, logger *zap.Logger) (*RedisRateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRateCache{client: client, logger: logger}, nil
}

// NewRedisRateCacheWithClient creates a cache over an existing client,
// useful for testing or when sharing a client across components
func NewRedisRateCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisRateCache {
	return &RedisRateCache{client: client, logger: logger}
}

// GetRates returns the cached table for a base currency
func (c *RedisRateCache) GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, bool, error) {
	data, err := c.client.Get(ctx, rateKeyPrefix+base).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read rate cache: %w", err)
	}

	var rates map[string]decimal.Decimal
	if err := json.Unmarshal(data, &rates); err != nil {
		// A corrupt entry is treated as a miss and will be overwritten
		c.logger.Warn("Discarding unreadable rate cache entry",
			zap.String("base", base), zap.Error(err))
		return nil, false, nil
	}
	return rates, true, nil
}

// SetRates caches a table for a base currency
func (c *RedisRateCache) SetRates(ctx context.Context, base string, rates map[string]decimal.Decimal, ttl time.Duration) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode rate table: %w", err)
	}
	if err := c.client.Set(ctx, rateKeyPrefix+base, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate cache: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (c *RedisRateCache) Close() error {
	return c.client.Close()
}

// rateEntry is one cached table with its expiry
type rateEntry struct {
	rates     map[string]decimal.Decimal
	expiresAt time.Time
}

// InMemoryRateCache implements RateCache in process memory. Suitable
// for single-instance deployments and tests; only a handful of base
// currencies are ever cached, so no cleanup goroutine is needed.
type InMemoryRateCache struct {
	mu      sync.RWMutex
	entries map[string]rateEntry
}

// NewInMemoryRateCache creates an in-memory rate cache
func NewInMemoryRateCache() *InMemoryRateCache {
	return &InMemoryRateCache{entries: make(map[string]rateEntry)}
}

// GetRates returns the cached table for a base currency
func (c *InMemoryRateCache) GetRates(_ context.Context, base string) (map[string]decimal.Decimal, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[base]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.rates, true, nil
}

// SetRates caches a table for a base currency
func (c *InMemoryRateCache) SetRates(_ context.Context, base string, rates map[string]decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[base] = rateEntry{rates: rates, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

var (
	_ RateCache = (*RedisRateCache)(nil)
	_ RateCache = (*InMemoryRateCache)(nil)
)
