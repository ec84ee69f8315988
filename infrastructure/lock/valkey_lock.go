package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blogsmith/blogsmith/infrastructure/valkey"
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

// ValkeyLockProvider implements fleet-wide mutual exclusion on top of a
// shared Valkey instance using SET NX EX. The TTL is the only recovery
// mechanism: a crashed holder simply lets the key expire.
type ValkeyLockProvider struct {
	client *valkey.Client
}

func NewValkeyLockProvider(client *valkey.Client) *ValkeyLockProvider {
	return &ValkeyLockProvider{client: client}
}

// Acquire attempts to take the lock for key. Exactly one caller across the
// fleet succeeds per key within the TTL; everyone else gets ErrLockHeld
// immediately.
func (p *ValkeyLockProvider) Acquire(ctx context.Context, key string, ttl time.Duration) (*domain.Lock, error) {
	token := uuid.New().String()
	prefixed := p.client.Key(key)

	ok, err := p.client.SetNX(ctx, prefixed, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	return &domain.Lock{
		Key:       prefixed,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// Release deletes the lock key if this holder still owns it. Best-effort:
// an expired or already released lock is silently ignored.
func (p *ValkeyLockProvider) Release(ctx context.Context, lock *domain.Lock) {
	if lock == nil {
		return
	}

	current, err := p.client.GetString(ctx, lock.Key)
	if err != nil {
		if !valkey.IsNil(err) {
			logrus.WithError(err).Warnf("[LOCK] Failed to inspect lock %s on release", lock.Key)
		}
		return // already expired or gone
	}
	if current != lock.Token {
		// Expired and re-acquired by another instance; not ours to delete.
		return
	}

	if err := p.client.Del(ctx, lock.Key); err != nil {
		logrus.WithError(err).Warnf("[LOCK] Failed to release lock %s", lock.Key)
	}
}
