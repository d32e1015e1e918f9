// Package rwlock implements the reader/writer lock that guards the Store's
// in-memory tree: any number of concurrent readers, or exactly one writer,
// translated from original_source/minidb/util.py's RWLock (a condition
// variable guarding a readers counter, with a sentinel value while a writer
// holds the lock).
//
// The Python lock also lets the writer re-enter its own read lock without
// deadlocking, because it is built on a threading.RLock. Go's sync.Mutex is
// deliberately not reentrant, so that property is reproduced here at the
// call-site layer instead of inside the primitive: Lock already grants full
// (read and write) access to its holder, so store.Store's write operations
// read the tree directly while holding Lock, rather than separately taking
// RLock the way a plain reader does. No component here calls RLock while
// already holding Lock.
package rwlock

import "sync"

// RWLock is a reader/writer lock with no reentrance of its own; see the
// package doc for how callers get the effect of writer re-entrance anyway.
type RWLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	readers int // active readers; -1 while a writer holds the lock
}

// New constructs a ready-to-use RWLock.
func New() *RWLock {
	l := &RWLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// RLock acquires a read lock, blocking only while a writer holds the lock.
func (l *RWLock) RLock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.readers < 0 {
		l.cond.Wait()
	}
	l.readers++
}

// RUnlock releases a read lock acquired by RLock.
func (l *RWLock) RUnlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readers--
	if l.readers == 0 {
		l.cond.Broadcast()
	}
}

// Lock acquires the exclusive write lock, waiting for every outstanding
// reader to release first. It returns with the internal mutex held, so a
// concurrent RLock or Lock call from another goroutine blocks until Unlock.
func (l *RWLock) Lock() {
	l.mu.Lock()
	for l.readers > 0 {
		l.cond.Wait()
	}
	l.readers = -1
}

// Unlock releases the write lock acquired by Lock.
func (l *RWLock) Unlock() {
	l.readers = 0
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Downgrade converts a held write lock directly into a held read lock, with
// no window in which the lock is unheld for another writer to slip into.
// The caller must hold the write lock (via Lock) when calling Downgrade, and
// must release the resulting read lock with RUnlock, not Unlock. This lets a
// writer finish its in-memory mutation, then serialize it to disk under a
// read lock that no longer excludes concurrent readers.
func (l *RWLock) Downgrade() {
	l.readers = 1
	l.cond.Broadcast()
	l.mu.Unlock()
}
