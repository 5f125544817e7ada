package api

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/kolkov/threadcore/internal/thread/goid"
	"github.com/kolkov/threadcore/internal/thread/handle"
	"github.com/kolkov/threadcore/internal/thread/interrupt"
	"github.com/kolkov/threadcore/internal/thread/lock"
	"github.com/kolkov/threadcore/internal/thread/tstate"
)

var (
	// ErrFinalizing is returned by Start and StartJoinable once
	// finalization has begun.
	ErrFinalizing = errors.New("can't create new thread at interpreter shutdown")

	// ErrDaemonNotAllowed is returned by Start when fire-and-forget
	// threads have been disabled for this runtime.
	ErrDaemonNotAllowed = errors.New("daemon threads are disabled in this (sub)interpreter")
)

// minStackSize is the smallest accepted thread stack size.
const minStackSize = 32 * 1024

var (
	threadCount atomic.Int64
	finalizing  atomic.Bool
	stackSize   atomic.Int64

	// daemonOff inverts DaemonThreadsAllowed so the zero value means
	// allowed, matching the runtime default.
	daemonOff atomic.Bool

	unraisableMu sync.Mutex
	unraisable   func(ident uint64, v any) = defaultUnraisable
)

// sentinelKey indexes each thread's sentinel lock in its state.
var sentinelKey = tstate.NewKey()

func init() {
	id := goid.Current()
	tstate.Attach(id)
	interrupt.SetPrimary(id)
}

func defaultUnraisable(ident uint64, v any) {
	fmt.Fprintf(os.Stderr, "Exception in thread %d: %v\n%s", ident, v, debug.Stack())
}

// SetUnraisableHandler replaces the handler invoked when a thread
// panics and nothing recovers it. A nil fn restores the default, which
// writes the panic value and a stack trace to stderr.
func SetUnraisableHandler(fn func(ident uint64, v any)) {
	unraisableMu.Lock()
	defer unraisableMu.Unlock()
	if fn == nil {
		fn = defaultUnraisable
	}
	unraisable = fn
}

func reportUnraisable(ident uint64, v any) {
	unraisableMu.Lock()
	fn := unraisable
	unraisableMu.Unlock()
	fn(ident, v)
}

// threadExit is the sentinel panic raised by Exit and swallowed by the
// bootstrap trampoline.
type threadExit struct{}

// Exit terminates the calling thread without reporting an error. It
// unwinds via panic, so deferred calls still run; outside a thread
// started by this package the panic escapes.
func Exit() {
	panic(threadExit{})
}

// LiveCount returns the number of threads started by this package that
// have not yet finished.
func LiveCount() int {
	return int(threadCount.Load())
}

// CurrentIdent returns the calling thread's identifier.
func CurrentIdent() uint64 {
	return goid.Current()
}

// NativeID returns the operating-system identifier of the calling
// thread, where the platform exposes one.
func NativeID() uint64 {
	return goid.Native()
}

// DaemonThreadsAllowed reports whether fire-and-forget threads may be
// started. Joinable threads are always allowed.
func DaemonThreadsAllowed() bool {
	return !daemonOff.Load()
}

// SetDaemonThreadsAllowed enables or disables fire-and-forget threads.
// Embedders that must observe every thread's completion disable them.
func SetDaemonThreadsAllowed(allowed bool) {
	daemonOff.Store(!allowed)
}

// BeginFinalization stops new threads from being created. There is no
// way back; it is called once during runtime shutdown.
func BeginFinalization() {
	finalizing.Store(true)
}

// StackSize returns the recorded stack size for new threads, in bytes.
// Zero means the platform default.
func StackSize() int {
	return int(stackSize.Load())
}

// SetStackSize records the stack size for new threads and returns the
// previous value. A size of zero selects the platform default. The Go
// runtime grows stacks on demand, so the value is advisory.
func SetStackSize(bytes int) (int, error) {
	if bytes < 0 {
		return 0, errors.New("size must be 0 or a positive value")
	}
	if bytes != 0 && bytes < minStackSize {
		return 0, fmt.Errorf("size not valid: %d bytes", bytes)
	}
	return int(stackSize.Swap(int64(bytes))), nil
}

// Interrupt posts signum to the primary thread, waking it if it is
// blocked in an interruptible lock acquisition.
func Interrupt(signum int) error {
	return interrupt.Post(signum)
}

// AllocateLock returns a new unlocked Lock.
func AllocateLock() *lock.Lock {
	return lock.New()
}

// AllocateRLock returns a new reentrant lock.
func AllocateRLock() *lock.RLock {
	return lock.NewR()
}

// SetSentinel installs a fresh sentinel lock for the calling thread and
// returns it unlocked. When the thread exits, a still-held sentinel is
// released so waiters observe the thread's death. Calling SetSentinel
// again replaces the previous sentinel, which fork handlers rely on.
func SetSentinel() (*lock.Lock, error) {
	st := tstate.Ensure()
	lk := lock.New()
	wp := weak.Make(lk)
	st.SetFinalizer(sentinelKey, func() {
		if l := wp.Value(); l != nil && l.Locked() {
			l.Release()
		}
	})
	return lk, nil
}

// AfterFork resets module state in the child after a fork-like event.
// Only the calling thread survives: all other handles become
// non-joinable, their states are dropped without running finalizers,
// the caller becomes the primary thread, and any undelivered interrupt
// is discarded.
func AfterFork() {
	cur := goid.Current()
	handle.AfterFork(cur)
	tstate.AfterFork(cur)
	interrupt.SetPrimary(cur)
	// A signal posted to the old primary must not fire in the child.
	interrupt.Take()
	threadCount.Store(0)
}
