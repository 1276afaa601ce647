package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis adapts any go-redis v9 client to lss.Store, letting a deployment
// share session state across multiple LSS processes instead of being
// confined to a single process's Memory store.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed store. addr is a host:port; db selects
// the logical Redis database.
func NewRedis(addr string, db int) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// NewRedisFromClient wraps an already-constructed client, useful for tests
// against miniredis or a shared connection pool.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Ping verifies connectivity. The health endpoint does not call it; it
// goes through lss.Controller.Ping, which round-trips a Get.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the value for key. Expiry is enforced by Redis itself via the
// TTL passed to Set, so no client-side eviction is needed.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL (0 disables expiry, mapped
// to Redis's "no TTL" sentinel).
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Delete removes key, returning the number of keys actually removed.
func (r *Redis) Delete(ctx context.Context, key string) (int, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return int(n), nil
}

// Scan returns every live key with the given prefix via cursor-based SCAN,
// matching spec §4.E's allowance that a realistic scan need not be
// consistent with concurrent writes.
func (r *Redis) Scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SCAN %s*: %w", prefix, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
