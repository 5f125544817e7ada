// Package tstate maintains the per-thread state records of the runtime.
//
// Every thread bound to the runtime has one State: an opaque record
// carrying a key→value store and keyed finalization hooks. The store is
// what thread-local storage hangs its per-thread dictionaries off; the
// finalizers are how the sentinel-lock and TLS cleanup fire when the
// thread's state is torn down.
//
// The process-wide registry maps thread identity to State under one
// coarse mutex. Structural walks (TLS-object teardown stripping its key
// out of every thread, fork recovery) hold that mutex for the duration of
// the walk and never across a blocking operation; finalizers run after
// the registry lock is dropped.
package tstate

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

// State is one thread's runtime-bound record.
type State struct {
	ident uint64

	mu         sync.Mutex
	values     map[uint64]any
	finalizers map[uint64]func()
	gone       bool
}

// Ident returns the identity of the thread this state belongs to.
func (s *State) Ident() uint64 {
	return s.ident
}

// Value returns the stored value for key.
func (s *State) Value(key uint64) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores v under key. No-op on a torn-down state.
func (s *State) SetValue(key uint64, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return
	}
	s.values[key] = v
}

// DeleteValue removes key from the store. Idempotent.
func (s *State) DeleteValue(key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// SetFinalizer registers fn to run when this state is torn down,
// replacing any finalizer previously registered under key. Finalizers
// run outside all registry and state locks and must not re-enter the
// owning thread's state.
func (s *State) SetFinalizer(key uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return
	}
	s.finalizers[key] = fn
}

// ClearFinalizer drops the finalizer registered under key. Idempotent.
func (s *State) ClearFinalizer(key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.finalizers, key)
}

// Process-wide state registry.
var (
	regMu  sync.Mutex
	states = make(map[uint64]*State)

	// keyCounter allocates store/finalizer keys. Key 0 is never handed
	// out, so it can mean "unset".
	keyCounter atomic.Uint64
)

// NewKey returns a fresh non-zero key for use with State values and
// finalizers. Keys are process-unique, never reused.
func NewKey() uint64 {
	return keyCounter.Add(1)
}

// Attach creates and registers the state for thread ident. If the thread
// already has a state, that one is returned instead.
func Attach(ident uint64) *State {
	regMu.Lock()
	defer regMu.Unlock()
	if st, ok := states[ident]; ok {
		return st
	}
	st := &State{
		ident:      ident,
		values:     make(map[uint64]any),
		finalizers: make(map[uint64]func()),
	}
	states[ident] = st
	return st
}

// Current returns the calling thread's state, if it has one.
func Current() (*State, bool) {
	id := goid.Current()
	regMu.Lock()
	st, ok := states[id]
	regMu.Unlock()
	return st, ok
}

// Ensure returns the calling thread's state, binding the thread to the
// runtime on first use. Threads started by the launcher are bound by the
// bootstrap trampoline; Ensure covers the primary thread and foreign
// threads that call into the runtime directly. A state created this way
// is only torn down by fork recovery, since nothing observes the foreign
// thread's exit.
func Ensure() *State {
	return Attach(goid.Current())
}

// Detach tears down the state for thread ident: the record is removed
// from the registry, its store is dropped, and its finalizers run (order
// unspecified). Finalizers execute after every lock is released, so they
// may take TLS-object locks freely. No-op for an unknown ident.
func Detach(ident uint64) {
	regMu.Lock()
	st, ok := states[ident]
	delete(states, ident)
	regMu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	fins := st.finalizers
	st.gone = true
	st.values = nil
	st.finalizers = nil
	st.mu.Unlock()

	for _, fn := range fins {
		fn()
	}
}

// ForEach calls fn for every live state while holding the registry lock.
// fn must not block and must not call back into Attach/Detach/ForEach.
func ForEach(fn func(*State)) {
	regMu.Lock()
	defer regMu.Unlock()
	for _, st := range states {
		fn(st)
	}
}

// Live returns the number of registered thread states.
func Live() int {
	regMu.Lock()
	defer regMu.Unlock()
	return len(states)
}

// AfterFork drops every state except the surviving thread's. The dropped
// threads do not exist in the child, so their finalizers do not run:
// there is no thread left whose teardown they would describe, and the
// sentinel locks they would release were reinitialized by the fork
// orchestration anyway.
func AfterFork(current uint64) {
	regMu.Lock()
	defer regMu.Unlock()
	for ident := range states {
		if ident != current {
			delete(states, ident)
		}
	}
}
