package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays held by someone else for longer than MaxWait.
var ErrNotAcquired = errors.New("lock: not acquired")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker provides a Redis-backed mutual exclusion lock keyed by resource.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock polls for a held lock. Zero waits until ctx ends.
	MaxWait time.Duration
}

// WithLock executes fn while holding the lock for key. The lock is released
// even if fn fails; only the holder's token can release it, so an expired
// lock taken over by another caller is left alone.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	var deadline <-chan time.Time
	if l.MaxWait > 0 {
		t := time.NewTimer(l.MaxWait)
		defer t.Stop()
		deadline = t.C
	}

	token := uuid.NewString()
	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-deadline:
			timer.Stop()
			return ErrNotAcquired
		case <-timer.C:
		}
	}
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, l.R, []string{key}, token).Err()
}

// OrderKey names the lock guarding mutations of one order.
func OrderKey(orderID uuid.UUID) string {
	return "lock:order:" + orderID.String()
}
