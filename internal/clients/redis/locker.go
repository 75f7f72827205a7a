package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecraft-backend/internal/platform/keylock"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type LockerConfig struct {
	Prefix string
	TTL    time.Duration
	Poll   time.Duration
}

type locker struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewLocker returns a keylock.Locker shared by every replica talking to the same Redis.
// TTL bounds how long a crashed holder can block a key.
func NewLocker(rdb goredis.UniversalClient, cfg LockerConfig, baseLog *logger.Logger) keylock.Locker {
	if cfg.Prefix == "" {
		cfg.Prefix = "coursecraft:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 20 * time.Millisecond
	}
	return &locker{
		rdb:    rdb,
		log:    baseLog.With("service", "RedisLocker"),
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		poll:   cfg.Poll,
	}
}

func (l *locker) Lock(ctx context.Context, keys ...string) (keylock.Unlock, error) {
	keys = keylock.Normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		// Release must run even when the request context is already gone.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(rctx, l.rdb, []string{held[i]}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
				l.log.Warn("redis lock release failed", "key", held[i], "error", err)
			}
		}
	}
	for _, k := range keys {
		rk := l.prefix + k
		if err := l.acquire(ctx, rk, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, rk)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *locker) acquire(ctx context.Context, key, token string) error {
	t := time.NewTicker(l.poll)
	defer t.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
