package memory

import (
	"context"
	"sync"
	"time"
)

type attempts struct {
	count   int
	resetAt time.Time
}

// LoginLimiter counts failed logins per key inside a fixed window. It backs
// the user service when Redis is not configured.
type LoginLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	keys   map[string]attempts
	now    func() time.Time
}

func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		max:    max,
		window: window,
		keys:   make(map[string]attempts),
		now:    time.Now,
	}
}

func (l *LoginLimiter) current(key string) attempts {
	a, ok := l.keys[key]
	if ok && !l.now().Before(a.resetAt) {
		delete(l.keys, key)
		return attempts{}
	}
	return a
}

func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(key).count < l.max, nil
}

func (l *LoginLimiter) Fail(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.current(key)
	if a.count == 0 {
		a.resetAt = l.now().Add(l.window)
	}
	a.count++
	l.keys[key] = a
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
	return nil
}
