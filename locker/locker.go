package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotOwner is returned by Unlock when the key is held under another value.
var ErrNotOwner = errors.New("lock not owned by this client")

var unlockScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
if v ~= ARGV[1] then
	return -1
end
return redis.call("DEL", KEYS[1])
`)

// Locker hands out short-lived exclusive locks backed by Redis SET NX.
type Locker struct {
	redis  *redis.Client
	logger *zerolog.Logger
}

func New(redisClient *redis.Client, logger *zerolog.Logger) *Locker {
	return &Locker{redis: redisClient, logger: logger}
}

// TryLock attempts to take key for ttl without waiting. On success it returns the value
// that must be passed to Unlock.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	value := uuid.NewString()
	acquired, err := l.redis.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("setnx: %w", err)
	}
	if !acquired {
		l.logger.Debug().Str("key", key).Msg("lock busy")
		return false, "", nil
	}
	return true, value, nil
}

// Unlock releases key if it is still held under value. A lock that already expired is not an error.
func (l *Locker) Unlock(ctx context.Context, key, value string) error {
	res, err := unlockScript.Run(ctx, l.redis, []string{key}, value).Int()
	if err != nil {
		return fmt.Errorf("unlock script: %w", err)
	}
	if res < 0 {
		l.logger.Warn().Str("key", key).Msg("lock ownership mismatch")
		return ErrNotOwner
	}
	return nil
}
