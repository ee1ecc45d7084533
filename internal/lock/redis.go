package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive, expiring locks. Lock returns an owner token that
// Unlock must present, so an expired holder cannot release a successor's lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLock{client: client}, nil
}

func NewRedisLockFromClient(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "lock.RedisLock.Lock"

	token := uuid.NewString()
	result, err := r.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !result {
		return "", false, nil
	}

	return token, true, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "lock.RedisLock.Unlock"

	if err := unlockScript.Run(ctx, r.client, []string{lockKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// Acquire retries Lock until it succeeds, wait elapses or ctx is done.
func Acquire(ctx context.Context, l Locker, key string, ttl, wait time.Duration) (string, error) {
	const op = "lock.Acquire"

	deadline := time.Now().Add(wait)
	backoff := 10 * time.Millisecond

	for {
		token, ok, err := l.Lock(ctx, key, ttl)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			return token, nil
		}
		if !time.Now().Add(backoff).Before(deadline) {
			return "", fmt.Errorf("%s: %s: %w", op, key, ErrNotAcquired)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(backoff):
		}

		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}
