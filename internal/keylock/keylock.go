package keylock

import (
	"context"
	"sync"
)

// KeyLock serializes mutations per key while letting distinct keys proceed
// fully in parallel. Every mutating operation on one auction must run under
// that auction's lock; operations on different auctions never contend.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]chan struct{})}
}

// Acquire blocks until the lock for key is held or ctx is done. On success it
// returns a release function that must be called exactly once.
func (kl *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	kl.mu.Lock()
	ch, ok := kl.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		kl.locks[key] = ch
	}
	kl.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire acquires the lock for key without blocking. It returns a release
// function and true, or nil and false if the lock is already held.
func (kl *KeyLock) TryAcquire(key string) (func(), bool) {
	kl.mu.Lock()
	ch, ok := kl.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		kl.locks[key] = ch
	}
	kl.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return nil, false
	}
}
