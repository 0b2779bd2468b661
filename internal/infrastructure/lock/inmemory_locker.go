package lock

import (
	"context"
	"sync"
	"time"
)

// InMemoryLocker implements the sweep lock inside one process. It is used
// when Redis is disabled and in tests.
type InMemoryLocker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryLocker creates an empty in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// TryLock acquires key for ttl unless an unexpired holder exists
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.entries[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.entries[key] = now.Add(ttl)
	return true, nil
}

// Unlock releases key. Releasing an expired or unknown key is an error.
func (l *InMemoryLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiresAt, held := l.entries[key]
	delete(l.entries, key)
	if !held || !l.now().Before(expiresAt) {
		return ErrLockNotHeld
	}
	return nil
}

// Held reports whether key is currently locked
func (l *InMemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, held := l.entries[key]
	return held && l.now().Before(expiresAt)
}
