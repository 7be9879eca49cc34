package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the Cache implementation backed by a shared Redis instance, for
// deployments where the API and worker processes must see the same
// invalidations.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(namespace, key string) string {
	return "cache:" + namespace + ":" + key
}

func (r *Redis) Get(ctx context.Context, namespace, key string, dest any) (bool, error) {
	val, err := r.client.Get(ctx, redisKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s/%s: %w", namespace, key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s/%s: %w", namespace, key, err)
	}
	return r.client.Set(ctx, redisKey(namespace, key), data, ttl).Err()
}

func (r *Redis) InvalidateNamespace(ctx context.Context, namespace string) error {
	iter := r.client.Scan(ctx, 0, "cache:"+namespace+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", namespace, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
