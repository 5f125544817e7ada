// Package interrupt implements the pending-interrupt latch for the
// primary thread.
//
// A runtime has one primary (controlling) thread: the thread that
// initialized the runtime, or the surviving thread after a fork. Any
// thread may post an interrupt; only blocking acquires performed by the
// primary thread observe it. The latch stores at most one pending signal
// number and broadcasts each post by closing a generation channel, so a
// blocked acquirer wakes with bounded latency instead of polling.
package interrupt

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

// ErrSignalOutOfRange is returned by Post for signal numbers outside 1..64.
var ErrSignalOutOfRange = errors.New("signal number out of range")

var (
	// pending holds the posted signal number, 0 when none is pending.
	// A second Post before the first is consumed overwrites it, the same
	// way a signal of the same number coalesces.
	pending atomic.Int32

	// primary is the identity of the controlling thread. Interrupts are
	// delivered to it alone.
	primary atomic.Uint64

	// waitCh is the broadcast generation: closed on every Post and
	// replaced under waitMu.
	waitMu sync.Mutex
	waitCh = make(chan struct{})
)

// SetPrimary designates the controlling thread. Called once at runtime
// startup and again in the child after a fork.
func SetPrimary(ident uint64) {
	primary.Store(ident)
}

// OnPrimary reports whether the calling thread is the controlling thread.
func OnPrimary() bool {
	p := primary.Load()
	return p != 0 && p == goid.Current()
}

// Post records signum as the pending interrupt and wakes every thread
// blocked in Wait. Fails with ErrSignalOutOfRange if signum is not a
// valid signal number.
func Post(signum int) error {
	if signum < 1 || signum > 64 {
		return ErrSignalOutOfRange
	}
	pending.Store(int32(signum))

	waitMu.Lock()
	close(waitCh)
	waitCh = make(chan struct{})
	waitMu.Unlock()
	return nil
}

// Wait returns a channel that is closed by the next Post. Callers must
// re-arm by calling Wait again after a wakeup: each post closes one
// generation.
func Wait() <-chan struct{} {
	waitMu.Lock()
	ch := waitCh
	waitMu.Unlock()
	return ch
}

// Take consumes the pending interrupt, returning its signal number.
// Returns false if no interrupt is pending, or if another thread already
// consumed it.
func Take() (int, bool) {
	s := pending.Swap(0)
	return int(s), s != 0
}
