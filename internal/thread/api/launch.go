package api

import (
	"runtime"

	"github.com/kolkov/threadcore/internal/thread/goid"
	"github.com/kolkov/threadcore/internal/thread/handle"
	"github.com/kolkov/threadcore/internal/thread/tstate"
)

// Start launches fn(args...) on a new thread and returns the thread's
// identifier. The thread is fire-and-forget: it cannot be joined and
// cleans up after itself when fn returns.
func Start(fn func(args ...any), args ...any) (uint64, error) {
	if !DaemonThreadsAllowed() {
		return 0, ErrDaemonNotAllowed
	}
	h, err := launch(false, func() { fn(args...) })
	if err != nil {
		return 0, err
	}
	return h.Ident(), nil
}

// StartJoinable launches fn on a new thread and returns a handle that
// must be joined or detached exactly once.
func StartJoinable(fn func()) (*handle.Handle, error) {
	return launch(true, fn)
}

func launch(joinable bool, fn func()) (*handle.Handle, error) {
	if finalizing.Load() {
		return nil, ErrFinalizing
	}
	h := handle.New(joinable)
	ready := make(chan struct{})
	go bootstrap(h, ready, fn)
	// Wait for the thread to publish its identity so the caller never
	// observes a handle with a zero ident.
	<-ready
	return h, nil
}

// bootstrap is the trampoline every thread runs through. It pins the
// goroutine to an OS thread, publishes the thread's identity, attaches
// a thread state, and guarantees teardown in order: fn's deferred
// calls, then state finalizers, then waking joiners.
func bootstrap(h *handle.Handle, ready chan<- struct{}, fn func()) {
	runtime.LockOSThread()

	id := goid.Current()
	h.Bind(id)
	close(ready)

	// Finalization may have begun between the launcher's check and this
	// point. Exit before any per-thread setup; there is nothing to tear
	// down yet, but joiners still need the completion signal.
	if finalizing.Load() {
		h.Finish()
		return
	}

	tstate.Attach(id)
	threadCount.Add(1)

	defer h.Finish()
	defer func() {
		threadCount.Add(-1)
		tstate.Detach(id)
	}()
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(threadExit); ok {
				return
			}
			reportUnraisable(id, v)
		}
	}()

	fn()
}
