// Package handle represents spawned threads and the process-wide set of
// live thread handles.
//
// A Handle pairs a thread's identity with its completion channel and a
// joinable flag. Join and Detach race for the flag with a single
// compare-and-swap, so exactly one of any number of concurrent callers
// wins; the losers observe a state error. The registry tracks every
// handle through weak pointers so that handle lifetime stays with the
// owner, and walks it only at fork time to invalidate handles whose
// threads vanished in the child.
package handle

import (
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

var (
	// ErrNotJoinable reports a join on a handle that was already joined
	// or detached, or was never joinable.
	ErrNotJoinable = errors.New("the thread is not joinable")

	// ErrNotDetachable is ErrNotJoinable's detach-side twin.
	ErrNotDetachable = errors.New("the thread is not joinable and thus cannot be detached")

	// ErrJoinSelf reports a thread joining its own handle, which would
	// otherwise deadlock.
	ErrJoinSelf = errors.New("cannot join current thread")
)

// Handle is one spawned thread's identity/completion pair.
//
// Handles are created by the launcher before the thread runs; the
// bootstrap trampoline binds the identity and closes the done channel
// when the thread finishes.
type Handle struct {
	// serial keys this handle in the registry. Identity cannot serve:
	// it is unknown until the spawned thread publishes it.
	serial uint64

	// ident is the spawned thread's identity, 0 until bound.
	ident atomic.Uint64

	// joinable is true until exactly one join or detach claims it.
	joinable atomic.Bool

	// done is closed when the thread's trampoline returns. This is the
	// native-handle analog: joining means waiting on it.
	done chan struct{}

	cleanup runtime.Cleanup
}

// New creates a handle, registers it, and arms its collection cleanup.
// Joinable=false produces a fire-and-forget handle on which join and
// detach always fail.
func New(joinable bool) *Handle {
	h := &Handle{
		serial: nextSerial(),
		done:   make(chan struct{}),
	}
	h.joinable.Store(joinable)
	register(h)

	// Dropping the last reference to a still-joinable handle must not
	// leak the thread: with goroutine-backed threads the runtime
	// reclaims the thread itself once it finishes, so the implicit
	// detach reduces to dropping the registry entry. The cleanup must
	// not capture h, or h would never be collected.
	h.cleanup = runtime.AddCleanup(h, func(serial uint64) {
		unregister(serial)
	}, h.serial)
	return h
}

// Bind publishes the spawned thread's identity. Called once, by the
// bootstrap trampoline, before the launcher returns the handle.
func (h *Handle) Bind(ident uint64) {
	h.ident.Store(ident)
}

// Ident returns the thread's identity, 0 if the thread has not started.
func (h *Handle) Ident() uint64 {
	return h.ident.Load()
}

// Joinable reports whether a join or detach can still claim this handle.
func (h *Handle) Joinable() bool {
	return h.joinable.Load()
}

// Finish marks the thread complete, waking any joiner. Called exactly
// once by the trampoline as its final act.
func (h *Handle) Finish() {
	close(h.done)
}

// Join blocks until the thread completes.
//
// Fails with ErrNotJoinable if the handle was already joined or
// detached, and with ErrJoinSelf if called on the calling thread's own
// handle (checked before the joinable flag is claimed, so a failed
// self-join leaves the handle joinable). The flag is claimed before
// blocking: of concurrent join/detach calls exactly one proceeds.
func (h *Handle) Join() error {
	if !h.joinable.Load() {
		return ErrNotJoinable
	}
	if h.ident.Load() == goid.Current() {
		// Waiting on our own completion would deadlock.
		return ErrJoinSelf
	}
	if !h.joinable.CompareAndSwap(true, false) {
		return ErrNotJoinable
	}
	<-h.done
	return nil
}

// Detach relinquishes the ability to join. The thread's resources are
// reclaimed by the runtime when it finishes. Fails with ErrNotDetachable
// if the handle was already joined or detached.
func (h *Handle) Detach() error {
	if !h.joinable.CompareAndSwap(true, false) {
		return ErrNotDetachable
	}
	return nil
}
