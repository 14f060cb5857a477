package analyzer

import "sync/atomic"

// Lock is the process-wide admission control for analysis runs: at most
// one pipeline executes at a time. Zero value is ready to use.
type Lock struct {
	held atomic.Int32
}

// TryAcquire attempts to take the lock without blocking. Returns false
// when a run is already in flight.
func (l *Lock) TryAcquire() bool {
	return l.held.CompareAndSwap(0, 1)
}

// Release frees the lock. Safe to call on an unheld lock.
func (l *Lock) Release() {
	l.held.Store(0)
}

// Held reports whether a run currently holds the lock.
func (l *Lock) Held() bool {
	return l.held.Load() == 1
}
