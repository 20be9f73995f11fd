package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache keeps every listing variant as a field of one hash, so a
// single DEL invalidates them all. A companion counter at key+":version"
// is bumped on each invalidation.
type ListingCache struct {
	rdb *redis.Client
}

func NewListingCache(rdb *redis.Client) *ListingCache {
	return &ListingCache{rdb: rdb}
}

func versionKey(key string) string { return key + ":version" }

func (c *ListingCache) Get(ctx context.Context, key, variant string) ([]byte, bool, error) {
	raw, err := c.rdb.HGet(ctx, key, variant).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *ListingCache) Version(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *ListingCache) Set(ctx context.Context, key, variant string, version int64, snapshot []byte, ttl time.Duration) error {
	vk := versionKey(key)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, variant, snapshot)
			pipe.Expire(ctx, key, ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *ListingCache) Invalidate(ctx context.Context, key string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	return err
}
