package lock

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/kolkov/threadcore/internal/thread/interrupt"
)

// NoTimeout is the sentinel for "no timeout": block until acquired.
const NoTimeout time.Duration = -1

var (
	// ErrInterrupted reports that a blocking acquire on the primary
	// thread was interrupted before the lock was taken. Distinct from
	// the (false, nil) timeout result so callers can re-raise.
	ErrInterrupted = errors.New("lock acquisition interrupted")

	// ErrReleaseUnlocked reports a release of a lock that is not held.
	ErrReleaseUnlocked = errors.New("release unlocked lock")

	// ErrTimeoutNonBlocking reports a timeout combined with a
	// non-blocking acquire.
	ErrTimeoutNonBlocking = errors.New("can't specify a timeout for a non-blocking call")

	// ErrNegativeTimeout reports a negative timeout that is not the
	// NoTimeout sentinel.
	ErrNegativeTimeout = errors.New("timeout value must be a non-negative number")
)

// Lock is a binary mutex with non-owning semantics: the thread that
// releases it need not be the thread that acquired it.
//
// The zero value is not usable; call New.
type Lock struct {
	// sem is the OS-mutex analog: a token in the channel means the lock
	// is held. It is authoritative for blocking behavior.
	sem chan struct{}

	// locked is advisory bookkeeping, maintained after the fact by
	// Acquire/Release. Release checks it to detect double releases, and
	// the sentinel teardown reads it to decide whether to release.
	locked atomic.Bool
}

// New returns an unlocked Lock.
func New() *Lock {
	return &Lock{sem: make(chan struct{}, 1)}
}

// Acquire takes the lock.
//
// With blocking=true and timeout=NoTimeout it blocks until the lock is
// acquired. With a finite timeout it gives up once the timeout elapses,
// returning (false, nil). With blocking=false it never blocks, returning
// the immediate outcome; combining blocking=false with a finite timeout
// is a usage error. A blocking acquire on the primary thread fails with
// ErrInterrupted if an interrupt is posted first.
func (l *Lock) Acquire(blocking bool, timeout time.Duration) (bool, error) {
	if err := checkAcquireArgs(blocking, &timeout); err != nil {
		return false, err
	}
	acquired, err := acquireTimed(l.sem, timeout)
	if acquired {
		l.locked.Store(true)
	}
	return acquired, err
}

// Release unlocks the lock, waking one blocked acquirer. The lock must be
// held, but not necessarily by the calling thread. Fails with
// ErrReleaseUnlocked if the lock is not held.
func (l *Lock) Release() error {
	// Sanity check: the lock must be locked. The swap makes concurrent
	// double releases fail deterministically instead of underflowing
	// the semaphore.
	if !l.locked.CompareAndSwap(true, false) {
		return ErrReleaseUnlocked
	}
	<-l.sem
	return nil
}

// Locked reports the advisory held state without blocking.
func (l *Lock) Locked() bool {
	return l.locked.Load()
}

// ReinitAfterFork re-creates the underlying mutex in an unlocked state.
//
// After a fork the semaphore may be held by a thread that does not exist
// in the child, so it is replaced unconditionally. Must only be called
// from the child process while it is still single-threaded; the caller
// decides which locks need this (the core never calls it on its own).
func (l *Lock) ReinitAfterFork() {
	l.sem = make(chan struct{}, 1)
	l.locked.Store(false)
}

// checkAcquireArgs validates the blocking/timeout combination and
// normalizes a non-blocking call to a zero timeout.
func checkAcquireArgs(blocking bool, timeout *time.Duration) error {
	if !blocking && *timeout != NoTimeout {
		return ErrTimeoutNonBlocking
	}
	if *timeout < 0 && *timeout != NoTimeout {
		return ErrNegativeTimeout
	}
	if !blocking {
		*timeout = 0
	}
	return nil
}

// acquireTimed takes the semaphore, waiting up to timeout (forever for
// NoTimeout, not at all for 0). Acquires by the primary thread abort with
// ErrInterrupted when an interrupt is posted before the token is taken.
func acquireTimed(sem chan struct{}, timeout time.Duration) (bool, error) {
	// Uncontended fast path.
	select {
	case sem <- struct{}{}:
		return true, nil
	default:
	}
	if timeout == 0 {
		return false, nil
	}

	var deadline time.Time
	if timeout != NoTimeout {
		deadline = time.Now().Add(timeout)
	}
	interruptible := interrupt.OnPrimary()

	for {
		var timer *time.Timer
		var timeoutC <-chan time.Time
		if timeout != NoTimeout {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false, nil
			}
			timer = time.NewTimer(remaining)
			timeoutC = timer.C
		}

		// Each interrupt post closes one wait generation, so the
		// channel is re-armed on every pass.
		var intrC <-chan struct{}
		if interruptible {
			intrC = interrupt.Wait()
		}

		select {
		case sem <- struct{}{}:
			if timer != nil {
				timer.Stop()
			}
			return true, nil
		case <-timeoutC:
			return false, nil
		case <-intrC:
			if timer != nil {
				timer.Stop()
			}
			if _, ok := interrupt.Take(); ok {
				return false, ErrInterrupted
			}
			// Another thread consumed the interrupt first; keep
			// waiting with whatever budget remains.
		}
	}
}
