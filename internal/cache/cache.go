// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	KeyAlerts     = "cache:alerts:default"
	KeyEvacuation = "cache:evacuation:default"
)

var errStale = errors.New("cache generation moved")

// ListCache keeps JSON snapshots of the unfiltered list queries. A nil
// *ListCache is valid and caches nothing.
//
// Every key has a generation counter stored at <key>:gen. Invalidate bumps
// it, and a snapshot is only written when the generation observed before
// the database read is still current.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewListCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ListCache {
	return &ListCache{client: client, ttl: ttl, logger: logger}
}

func genKey(key string) string { return key + ":gen" }

// Get decodes the cached value into dest and reports a hit.
func (c *ListCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Generation returns the current invalidation count for key. ok is false
// when the counter cannot be read, in which case nothing should be cached.
func (c *ListCache) Generation(ctx context.Context, key string) (gen int64, ok bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	gen, err := c.readGen(ctx, c.client, key)
	if err != nil {
		c.logger.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return gen, true
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *ListCache) readGen(ctx context.Context, cmd getter, key string) (int64, error) {
	raw, err := cmd.Get(ctx, genKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// SetIfGeneration stores value only if no invalidation happened since gen
// was read. The check and the write run in one WATCH transaction.
func (c *ListCache) SetIfGeneration(ctx context.Context, key string, gen int64, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.readGen(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey(key))

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("cache write skipped after invalidation", zap.String("key", key))
	default:
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the snapshots and bumps their generations so reads that
// started earlier cannot write them back.
func (c *ListCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, genKey(k))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
