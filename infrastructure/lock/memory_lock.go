package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogsmith/blogsmith/scheduler/domain"
)

// MemoryLockProvider is an in-process lock provider for single-node
// deployments and tests. Semantics mirror the Valkey implementation:
// first caller per key wins until the TTL expires or the lock is released.
type MemoryLockProvider struct {
	mu    sync.Mutex
	locks map[string]memoryLockEntry
}

type memoryLockEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLockProvider() *MemoryLockProvider {
	return &MemoryLockProvider{locks: make(map[string]memoryLockEntry)}
}

func (p *MemoryLockProvider) Acquire(_ context.Context, key string, ttl time.Duration) (*domain.Lock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if entry, ok := p.locks[key]; ok && entry.expiresAt.After(now) {
		return nil, domain.ErrLockHeld
	}

	token := uuid.New().String()
	expiresAt := now.Add(ttl)
	p.locks[key] = memoryLockEntry{token: token, expiresAt: expiresAt}

	return &domain.Lock{Key: key, Token: token, ExpiresAt: expiresAt}, nil
}

func (p *MemoryLockProvider) Release(_ context.Context, lock *domain.Lock) {
	if lock == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.locks[lock.Key]; ok && entry.token == lock.Token {
		delete(p.locks, lock.Key)
	}
}
