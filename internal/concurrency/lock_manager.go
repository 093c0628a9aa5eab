package concurrency

import (
	"sync"

	"github.com/puzpuzpuz/xsync"
)

// periodKeyPrefix scopes locks held across a tenant's period transitions
const periodKeyPrefix = "period:"

// PeriodKey names the per-tenant lock shared by period transitions and the
// jobs that must not interleave with them
func PeriodKey(tenantID string) string {
	return periodKeyPrefix + tenantID
}

// LockManager handles named locks, typically one per tenant and job
type LockManager struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{locks: xsync.NewMapOf[*sync.Mutex]()}
}

// GetLock returns a mutex for the given key
func (lm *LockManager) GetLock(key string) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock
}

// TryLock acquires the key's lock without blocking. When ok is true the
// caller must call unlock.
func (lm *LockManager) TryLock(key string) (unlock func(), ok bool) {
	lock := lm.GetLock(key)
	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}

// Size returns the number of keys that have been locked at least once
func (lm *LockManager) Size() int {
	return lm.locks.Size()
}
