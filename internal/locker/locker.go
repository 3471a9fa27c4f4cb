// Package locker provides short-lived distributed locks on redis.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotAcquired = errors.New("lock not acquired")
	ErrNotOwner    = errors.New("lock not owned by this client")
)

// delete the key only while it still holds our value
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	client redis.UniversalClient
	log    *zap.Logger
	prefix string

	// retry policy for Acquire
	attempts int
	backoff  time.Duration
}

func NewRedis(client redis.UniversalClient, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{
		client:   client,
		log:      log,
		prefix:   "lock:",
		attempts: 20,
		backoff:  25 * time.Millisecond,
	}
}

func encodeOwner(token string) (string, error) {
	b, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("marshal lock owner: %w", err)
	}
	return string(b), nil
}

// TryLock makes a single SETNX attempt. The returned token must be passed to
// Unlock.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	val, err := encodeOwner(token)
	if err != nil {
		return "", false, err
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key, val, ttl).Result()
	if err != nil {
		r.log.Error("locker.TryLock setnx failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	if !ok {
		r.log.Debug("locker.TryLock busy", zap.String("key", key))
		return "", false, nil
	}
	return token, true, nil
}

// Acquire retries TryLock with a fixed backoff until it wins, the context
// ends or the attempts run out (ErrNotAcquired).
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	for i := 0; i < r.attempts; i++ {
		token, ok, err := r.TryLock(ctx, key, ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.backoff):
		}
	}
	r.log.Warn("locker.Acquire gave up", zap.String("key", key), zap.Int("attempts", r.attempts))
	return "", fmt.Errorf("%s: %w", key, ErrNotAcquired)
}

func (r *Redis) Unlock(ctx context.Context, key, token string) error {
	val, err := encodeOwner(token)
	if err != nil {
		return err
	}
	n, err := unlockScript.Run(ctx, r.client, []string{r.prefix + key}, val).Int()
	if err != nil {
		r.log.Error("locker.Unlock failed", zap.String("key", key), zap.Error(err))
		return err
	}
	if n == 0 {
		// expired, or someone else holds it now
		return fmt.Errorf("%s: %w", key, ErrNotOwner)
	}
	return nil
}
