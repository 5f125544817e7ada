package lock

import (
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

var (
	// ErrNotOwner reports a release (or state save) by a thread that
	// does not hold the reentrant lock.
	ErrNotOwner = errors.New("cannot release un-acquired lock")

	// ErrCountOverflow reports recursion count wraparound.
	ErrCountOverflow = errors.New("internal lock count overflowed")
)

// RLock is a reentrant mutex. The owning thread may acquire it multiple
// times; the lock is released for other threads only after the matching
// number of releases.
//
// Invariant: count > 0 exactly when owner is set and that thread holds
// the underlying semaphore. Both fields are mutated only by the thread
// holding the semaphore, except through SaveState/RestoreState, which
// transfer the bookkeeping as part of releasing/reacquiring it.
//
// The zero value is not usable; call NewR.
type RLock struct {
	sem chan struct{}

	// owner is the identity of the holding thread, 0 when unowned. Read
	// with atomics: any thread may query ownership while the owner is
	// acquiring or releasing elsewhere.
	owner atomic.Uint64

	// count is the recursion depth. Written only by the thread holding
	// the semaphore, read by others only after an owner check that
	// already failed (so the read is skipped).
	count uint64
}

// NewR returns an unlocked RLock.
func NewR() *RLock {
	return &RLock{sem: make(chan struct{}, 1)}
}

// isOwnedBy reports whether tid currently owns the lock. The count read
// is reached only when owner == tid, in which case count was last written
// by that same thread.
func (l *RLock) isOwnedBy(tid uint64) bool {
	return l.owner.Load() == tid && l.count > 0
}

// Acquire takes the lock for the calling thread.
//
// If the caller already owns the lock the recursion count is incremented
// without touching the semaphore (ErrCountOverflow on wraparound).
// Otherwise the blocking/timeout/interrupt behavior matches Lock.Acquire;
// on success the caller becomes the owner with count 1.
func (l *RLock) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	if err := checkAcquireArgs(blocking, &timeout); err != nil {
		return false, err
	}

	tid := goid.Current()
	if l.isOwnedBy(tid) {
		if l.count == math.MaxUint64 {
			return false, ErrCountOverflow
		}
		l.count++
		return true, nil
	}

	acquired, err := acquireTimed(l.sem, timeout)
	if acquired {
		l.owner.Store(tid)
		l.count = 1
	}
	return acquired, err
}

// Release undoes one Acquire by the owning thread. When the recursion
// count reaches zero the owner is cleared and the semaphore released.
// Fails with ErrNotOwner if the caller does not hold the lock.
func (l *RLock) Release() error {
	if !l.isOwnedBy(goid.Current()) {
		return ErrNotOwner
	}
	l.count--
	if l.count == 0 {
		l.owner.Store(0)
		<-l.sem
	}
	return nil
}

// SaveState captures and zeroes the (count, owner) bookkeeping and
// releases the semaphore, giving up full ownership in one step. The
// returned pair restores it via RestoreState. Fails with ErrNotOwner if
// the lock is not held.
//
// For use by condition variables: wait() saves, blocks on the waiter
// lock, then restores.
func (l *RLock) SaveState() (count, owner uint64, err error) {
	if l.count == 0 {
		return 0, 0, ErrNotOwner
	}
	owner = l.owner.Load()
	count = l.count
	l.count = 0
	l.owner.Store(0)
	<-l.sem
	return count, owner, nil
}

// RestoreState reacquires the semaphore and reinstates a previously saved
// (count, owner) pair. The acquire blocks uninterruptibly: failing
// partway would leave the reentrancy bookkeeping corrupted. The error
// return exists for the fatal cannot-acquire case, which the channel
// semaphore cannot produce; it is always nil here.
func (l *RLock) RestoreState(count, owner uint64) error {
	l.sem <- struct{}{}
	l.owner.Store(owner)
	l.count = count
	return nil
}

// IsOwned reports whether the calling thread owns the lock.
func (l *RLock) IsOwned() bool {
	return l.isOwnedBy(goid.Current())
}

// RecursionCount returns the recursion depth held by the calling thread,
// 0 if the caller does not own the lock.
func (l *RLock) RecursionCount() uint64 {
	if l.owner.Load() != goid.Current() {
		return 0
	}
	return l.count
}

// ReinitAfterFork resets the lock to unowned and re-creates the
// underlying semaphore unlocked. Same single-threaded-child contract as
// Lock.ReinitAfterFork.
func (l *RLock) ReinitAfterFork() {
	l.sem = make(chan struct{}, 1)
	l.owner.Store(0)
	l.count = 0
}
