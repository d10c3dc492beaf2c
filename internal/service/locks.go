package service

import (
	"context"
	"sync"
)

// ownerLocks serializes writers of the same owner inside this process.
// Entries are dropped once nobody holds or waits for them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	ch   chan struct{}
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// acquire blocks until the owner's lock is free or ctx is done.
func (l *ownerLocks) acquire(ctx context.Context, ownerID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{ch: make(chan struct{}, 1)}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.ch
				l.unref(ownerID, entry)
			})
		}, nil
	case <-ctx.Done():
		l.unref(ownerID, entry)
		return nil, ctx.Err()
	}
}

func (l *ownerLocks) unref(ownerID string, entry *ownerLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()
}
