package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const viewsKeyPrefix = "resume:views:"

// RedisViews counts share-link views in redis.
type RedisViews struct {
	rdb *redis.Client
}

func NewRedisViews(rdb *redis.Client) *RedisViews {
	return &RedisViews{rdb: rdb}
}

func (v *RedisViews) Incr(ctx context.Context, shareID string) (int64, error) {
	return v.rdb.Incr(ctx, viewsKeyPrefix+shareID).Result()
}

// Get returns 0 for a résumé that was never viewed.
func (v *RedisViews) Get(ctx context.Context, shareID string) (int64, error) {
	n, err := v.rdb.Get(ctx, viewsKeyPrefix+shareID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
