package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"card-scheduler/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedStore serves configurations from Redis and falls back to the wrapped store.
// Redis failures are logged and never fail the call.
//
// UpsertConfig overwrites the cached entry with the stored row, while read-through fills only
// use SET NX. A fill that read the old row before the upsert committed therefore cannot replace
// the fresh entry. If the upsert's write fails the key is deleted instead; a concurrent stale
// fill can then live until the TTL expires.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCachedStore(next Store, redisClient *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("scheduler:config:%s", ownerID)
}

func (c *CachedStore) UpsertConfig(ctx context.Context, cfg Config, now time.Time) (*Config, bool, error) {
	stored, created, err := c.next.UpsertConfig(ctx, cfg, now)
	if err != nil {
		return nil, false, err
	}

	key := cacheKey(cfg.OwnerID)
	data, err := json.Marshal(stored)
	if err == nil {
		err = c.redis.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("owner_id", cfg.OwnerID.String()).Msg("config cache refresh failed")
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			c.logger.Warn().Err(err).Str("owner_id", cfg.OwnerID.String()).Msg("config cache invalidate failed")
		}
	}
	return stored, created, nil
}

func (c *CachedStore) GetConfig(ctx context.Context, ownerID uuid.UUID) (*Config, error) {
	key := cacheKey(ownerID)

	val, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var cfg Config
		if err := json.Unmarshal(val, &cfg); err == nil {
			metrics.IncConfigCache("hit")
			return &cfg, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("config cache read failed")
	}
	metrics.IncConfigCache("miss")

	cfg, err := c.next.GetConfig(ctx, ownerID)
	if err != nil || cfg == nil {
		return cfg, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg, nil
	}
	if err := c.redis.SetNX(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("config cache write failed")
	}
	return cfg, nil
}
