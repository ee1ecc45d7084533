package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalLock is the in-process Locker used when no redis address is configured.
// It only serializes callers inside one process.
type LocalLock struct {
	mu    sync.Mutex
	held  map[string]localEntry
	nowFn func() time.Time
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{
		held:  make(map[string]localEntry),
		nowFn: time.Now,
	}
}

func (l *LocalLock) Lock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expiresAt: now.Add(ttl)}

	return token, true, nil
}

func (l *LocalLock) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.held[key]; ok && e.token == token {
		delete(l.held, key)
	}

	return nil
}
