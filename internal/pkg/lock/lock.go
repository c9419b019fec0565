// Package lock provides per-player locking for resource operations.
// Every read-modify-write against a single player's ledger (currency spend,
// free-pull consumption, quest claim, daily claim) runs under that player's
// lock; operations on different players proceed in parallel.
package lock

import (
	"sync"
)

// playerMutex wraps a mutex with reference counting so idle entries can be
// recycled through the pool.
type playerMutex struct {
	mu       sync.Mutex
	refCount int
}

// PlayerLock is a registry of per-player mutexes. There is no global lock:
// two players never contend with each other.
type PlayerLock struct {
	locks sync.Map // map[int64]*playerMutex
	pool  sync.Pool
}

// NewPlayerLock creates a new PlayerLock instance.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{
		pool: sync.Pool{
			New: func() any {
				return &playerMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given player.
func (pl *PlayerLock) getLock(playerID int64) *playerMutex {
	if v, ok := pl.locks.Load(playerID); ok {
		return v.(*playerMutex)
	}

	newLock := pl.pool.Get().(*playerMutex)
	newLock.refCount = 0

	actual, loaded := pl.locks.LoadOrStore(playerID, newLock)
	if loaded {
		// Another goroutine registered the mutex first.
		pl.pool.Put(newLock)
	}
	return actual.(*playerMutex)
}

// Lock acquires the lock for a player. Call before any ledger-modifying
// sequence that spans more than one statement.
func (pl *PlayerLock) Lock(playerID int64) {
	l := pl.getLock(playerID)
	l.mu.Lock()
	l.refCount++
}

// Unlock releases a player's lock.
func (pl *PlayerLock) Unlock(playerID int64) {
	if v, ok := pl.locks.Load(playerID); ok {
		l := v.(*playerMutex)
		l.refCount--
		l.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (pl *PlayerLock) TryLock(playerID int64) bool {
	l := pl.getLock(playerID)
	if l.mu.TryLock() {
		l.refCount++
		return true
	}
	return false
}

// WithLock executes fn while holding the player's lock.
func (pl *PlayerLock) WithLock(playerID int64, fn func() error) error {
	pl.Lock(playerID)
	defer pl.Unlock(playerID)
	return fn()
}
