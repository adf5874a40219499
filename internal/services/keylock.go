package services

import (
	"context"
	"sync"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

// KeyedLocker serializes work per key. Different keys never contend.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done. A wait cut short by ctx
// returns a Conflict error wrapping ctx.Err(). The returned func releases
// the key and is safe to call more than once.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, apperr.New(apperr.Conflict, "another change to this plan is in progress, please retry", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// LockUnit locks one (user, role) consistency unit.
func (l *KeyedLocker) LockUnit(ctx context.Context, userID string, role models.Role) (func(), error) {
	return l.Lock(ctx, unitKey(userID, role))
}

// LockUser locks all four units of a user, always in models.Roles order.
func (l *KeyedLocker) LockUser(ctx context.Context, userID string) (func(), error) {
	unlocks := make([]func(), 0, len(models.Roles))
	unlockAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, r := range models.Roles {
		unlock, err := l.LockUnit(ctx, userID, r)
		if err != nil {
			unlockAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return unlockAll, nil
}

func unitKey(userID string, role models.Role) string {
	return userID + "|" + string(role)
}
