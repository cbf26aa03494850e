package joiner

import (
	"sync"
)

// operationType distinguishes read queries from table mutations so the
// lock manager can pick the matching lock.
type operationType int

const (
	// readOperation marks an operation that only reads the tables.
	// Multiple read operations can proceed concurrently.
	readOperation operationType = iota

	// writeOperation marks an operation that replaces the tables or
	// other joiner state. Write operations are exclusive.
	writeOperation
)

// lockManager centralizes locking for the joiner. Every exported
// operation funnels through execute, which keeps the acquisition
// strategy in one place instead of scattered lock/unlock pairs.
//
// Change signals arrive on whatever goroutine the source broadcasts
// from, so the tables need real synchronization even for hosts that
// query from a single goroutine.
type lockManager struct {
	mu *sync.RWMutex
}

// newLockManager creates a lock manager ready for concurrent use.
func newLockManager() *lockManager {
	return &lockManager{
		mu: &sync.RWMutex{},
	}
}

// execute runs fn under the lock matching the operation type. The lock
// is released when fn returns, including on panic.
func (lm *lockManager) execute(opType operationType, fn func() error) error {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
