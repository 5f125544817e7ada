// Package thread provides the public API for the threading primitives.
//
// See doc.go for detailed documentation and examples.
package thread

import (
	"github.com/kolkov/threadcore/internal/thread/api"
	"github.com/kolkov/threadcore/internal/thread/handle"
	"github.com/kolkov/threadcore/internal/thread/interrupt"
	"github.com/kolkov/threadcore/internal/thread/localstore"
	"github.com/kolkov/threadcore/internal/thread/lock"
)

// Handle identifies a joinable thread. Exactly one Join or Detach
// succeeds per handle.
type Handle = handle.Handle

// Lock is a non-reentrant lock releasable by any thread.
type Lock = lock.Lock

// RLock is a reentrant lock owned by the acquiring thread.
type RLock = lock.RLock

// Local is a thread-local storage slot handing each thread a private Dict.
type Local = localstore.Local

// Dict is the per-thread value store backing a Local.
type Dict = localstore.Dict

// NoTimeout makes a blocking Acquire wait forever.
const NoTimeout = lock.NoTimeout

// Errors reported by the primitives. They compare with errors.Is.
var (
	// ErrFinalizing is returned by StartThread and StartJoinableThread
	// once BeginFinalization has been called.
	ErrFinalizing = api.ErrFinalizing

	// ErrInterrupted is returned by Lock.Acquire on the primary thread
	// when InterruptMain posts a signal during the wait.
	ErrInterrupted = lock.ErrInterrupted

	// ErrNotJoinable is returned by Handle.Join after the handle has
	// already been joined or detached.
	ErrNotJoinable = handle.ErrNotJoinable

	// ErrNotDetachable is returned by Handle.Detach after the handle
	// has already been joined or detached.
	ErrNotDetachable = handle.ErrNotDetachable

	// ErrJoinSelf is returned when a thread joins its own handle.
	ErrJoinSelf = handle.ErrJoinSelf

	// ErrSignalOutOfRange is returned by InterruptMain for signal
	// numbers outside 1..64.
	ErrSignalOutOfRange = interrupt.ErrSignalOutOfRange

	// ErrDaemonNotAllowed is returned by StartThread when
	// fire-and-forget threads are disabled.
	ErrDaemonNotAllowed = api.ErrDaemonNotAllowed
)

// StartThread runs fn(args...) on a new thread and returns the thread's
// identifier. The thread cannot be joined; it cleans up after itself
// when fn returns.
//
// Example:
//
//	id, err := thread.StartThread(func(args ...any) {
//		fmt.Println("worker", args[0])
//	}, 42)
func StartThread(fn func(args ...any), args ...any) (uint64, error) {
	return api.Start(fn, args...)
}

// StartJoinableThread runs fn on a new thread and returns a handle that
// must be joined or detached exactly once.
func StartJoinableThread(fn func()) (*Handle, error) {
	return api.StartJoinable(fn)
}

// AllocateLock returns a new unlocked Lock.
func AllocateLock() *Lock {
	return api.AllocateLock()
}

// AllocateRLock returns a new reentrant lock.
func AllocateRLock() *RLock {
	return api.AllocateRLock()
}

// NewLocal returns an empty thread-local storage slot.
func NewLocal() *Local {
	return localstore.New()
}

// NewLocalWithInit returns a Local whose per-thread Dict is seeded by
// fn on each thread's first access.
func NewLocalWithInit(fn func(*Dict)) *Local {
	return localstore.NewWithInit(fn)
}

// GetIdent returns the calling thread's identifier. Identifiers are
// non-zero and unique among simultaneously live threads.
func GetIdent() uint64 {
	return api.CurrentIdent()
}

// GetNativeID returns the operating-system identifier of the calling
// thread. On platforms without a portable thread ID it falls back to
// the goroutine identity.
func GetNativeID() uint64 {
	return api.NativeID()
}

// Count returns the number of threads started by this package that are
// still running.
func Count() int {
	return api.LiveCount()
}

// DaemonThreadsAllowed reports whether StartThread may be used.
// Joinable threads are always allowed.
func DaemonThreadsAllowed() bool {
	return api.DaemonThreadsAllowed()
}

// SetDaemonThreadsAllowed enables or disables fire-and-forget threads.
func SetDaemonThreadsAllowed(allowed bool) {
	api.SetDaemonThreadsAllowed(allowed)
}

// Exit terminates the calling thread without reporting an error.
// Deferred calls still run.
func Exit() {
	api.Exit()
}

// SetSentinel installs a sentinel lock for the calling thread and
// returns it unlocked. A sentinel still held when the thread exits is
// released, so waiters can observe the thread's death.
func SetSentinel() (*Lock, error) {
	return api.SetSentinel()
}

// StackSize returns the recorded stack size for new threads, in bytes.
// Zero means the platform default.
func StackSize() int {
	return api.StackSize()
}

// SetStackSize records the stack size for new threads and returns the
// previous value. The Go runtime grows stacks on demand, so the value
// is advisory.
func SetStackSize(bytes int) (int, error) {
	return api.SetStackSize(bytes)
}

// InterruptMain posts signum to the primary thread, waking it from an
// interruptible lock acquisition. Signals coalesce: posting over an
// undelivered signal replaces it.
func InterruptMain(signum int) error {
	return api.Interrupt(signum)
}

// SetUnraisableHandler replaces the handler invoked when a thread
// panics and nothing recovers it. A nil handler restores the default,
// which writes the panic value and a stack trace to stderr.
func SetUnraisableHandler(fn func(ident uint64, v any)) {
	api.SetUnraisableHandler(fn)
}

// BeginFinalization permanently stops new threads from being created.
func BeginFinalization() {
	api.BeginFinalization()
}

// AfterFork resets threading state in a child process where only the
// calling thread survived.
func AfterFork() {
	api.AfterFork()
}
