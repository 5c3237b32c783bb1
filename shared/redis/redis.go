package redis

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr string) *RedisClient {
	if addr == "" {
		addr = os.Getenv("REDIS_URL")
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})
	return &RedisClient{client: client}
}

func (r *RedisClient) Set(key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisClient) Get(key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisClient) Del(key string) error {
	return r.client.Del(ctx, key).Err()
}

// SetAdd replaces the members of a set and applies a TTL in one round trip
// batch, used for member-set caching.
func (r *RedisClient) SetAdd(key string, members []interface{}, expiration time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.SAdd(ctx, key, members...)
	}
	if expiration > 0 {
		pipe.Expire(ctx, key, expiration)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SetMembers returns all members of a set. A missing key yields an empty
// slice with no error, so callers must treat empty as a cache miss.
func (r *RedisClient) SetMembers(key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

// Ping verifies the connection, used by health checks.
func (r *RedisClient) Ping() error {
	return r.client.Ping(ctx).Err()
}
