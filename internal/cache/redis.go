package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	ProductsKey         = "products:active"
	CustomerTypesKey    = "customer_types"
	DashboardSummaryKey = "dashboard:summary"
	revokedTokenPrefix  = "auth:revoked:"
)

// TTLs
const (
	ProductsTTL      = 10 * time.Minute
	CustomerTypesTTL = time.Hour
	DashboardTTL     = 60 * time.Second
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every helper
// below becomes a no-op, so the service runs without a cache.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// Close releases the connection if one was opened
func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Enabled is true when a Redis connection is available
func Enabled() bool {
	return client != nil
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// GetJSON decodes a cached value into dst. A decode failure counts as a miss.
func GetJSON(ctx context.Context, key string, dst interface{}) bool {
	data, ok := GetCached(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes v and caches it
func SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	SetCached(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateProductCaches is called after any product or stock change
func InvalidateProductCaches(ctx context.Context) {
	InvalidatePattern(ctx, "products:*")
	InvalidateKeys(ctx, DashboardSummaryKey)
}

// InvalidateCustomerCaches is called after customer, balance or type changes
func InvalidateCustomerCaches(ctx context.Context) {
	InvalidatePattern(ctx, "customers:*")
	InvalidateKeys(ctx, CustomerTypesKey, DashboardSummaryKey)
}

// InvalidateOrderCaches is called after checkout and every status change
func InvalidateOrderCaches(ctx context.Context) {
	InvalidateKeys(ctx, DashboardSummaryKey)
}

// RevokeToken blocks a session token id until it would have expired anyway
func RevokeToken(ctx context.Context, tokenID string, until time.Time) {
	if client == nil || tokenID == "" {
		return
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	client.Set(ctx, revokedTokenPrefix+tokenID, 1, ttl)
}

// IsRevoked reports whether the token id was logged out
func IsRevoked(ctx context.Context, tokenID string) bool {
	if client == nil || tokenID == "" {
		return false
	}
	n, err := client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	return err == nil && n > 0
}

// IsHealthy returns true if Redis connection is working
func IsHealthy(ctx context.Context) bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// PreWarmKey fills key in the background after an invalidation
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	if client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			return
		}
		SetCached(ctx, key, data, ttl)
	}()
}
