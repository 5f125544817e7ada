// Package localstore provides thread-local storage containers.
//
// A Local hands each thread its own Dict of values. Dicts are created
// lazily on first access from a thread and torn down when either side
// dies: a thread exiting drops its dict from every Local it touched,
// and closing a Local strips its dicts from every live thread. Neither
// side keeps the other alive, so a Local and the threads using it can
// be collected independently.
package localstore

import (
	"errors"
	"runtime"
	"sync"
	"weak"

	"github.com/kolkov/threadcore/internal/thread/tstate"
)

// ErrClosed is returned by Get after the Local has been closed.
var ErrClosed = errors.New("local storage is closed")

// Dict is a per-thread value store. Each thread accessing a Local gets
// its own Dict; no synchronization with other threads is implied, but
// the Dict itself is safe for concurrent use.
type Dict struct {
	mu sync.Mutex
	m  map[string]any
}

func newDict() *Dict {
	return &Dict{m: make(map[string]any)}
}

// Get returns the value stored under name, reporting whether it exists.
func (d *Dict) Get(name string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[name]
	return v, ok
}

// Set stores v under name.
func (d *Dict) Set(name string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[name] = v
}

// Delete removes name. Missing names are ignored.
func (d *Dict) Delete(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, name)
}

// Len returns the number of stored values.
func (d *Dict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.m)
}

// Local is a thread-local storage slot. Each thread that calls Get
// receives a Dict private to that thread.
type Local struct {
	key    uint64
	initFn func(*Dict)

	mu      sync.Mutex
	dicts   map[uint64]*Dict // thread ident -> dict
	closed  bool
	cleanup runtime.Cleanup
}

// New returns an empty Local.
func New() *Local {
	return NewWithInit(nil)
}

// NewWithInit returns a Local whose per-thread Dict is seeded by fn the
// first time each thread accesses it. fn may be nil.
func NewWithInit(fn func(*Dict)) *Local {
	l := &Local{
		key:    tstate.NewKey(),
		initFn: fn,
		dicts:  make(map[uint64]*Dict),
	}
	// If the Local is collected without Close, scrub its key out of
	// every thread state so dicts don't outlive it.
	l.cleanup = runtime.AddCleanup(l, func(key uint64) {
		purgeKey(key)
	}, l.key)
	return l
}

// Get returns the calling thread's Dict, creating it on first access.
func (l *Local) Get() (*Dict, error) {
	st := tstate.Ensure()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if v, ok := st.Value(l.key); ok {
		l.mu.Unlock()
		return v.(*Dict), nil
	}

	d := newDict()
	ident := st.Ident()
	l.dicts[ident] = d
	st.SetValue(l.key, d)
	// The finalizer holds a weak pointer so a dead thread's state does
	// not pin the Local itself.
	wp := weak.Make(l)
	st.SetFinalizer(l.key, func() {
		if ll := wp.Value(); ll != nil {
			ll.remove(ident)
		}
	})
	l.mu.Unlock()

	if l.initFn != nil {
		l.initFn(d)
	}
	return d, nil
}

// remove drops the dict for a dead thread. Called from the thread
// state's finalizer after the thread detaches.
func (l *Local) remove(ident uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	delete(l.dicts, ident)
}

// Close releases all per-thread dicts and detaches the Local from
// every live thread. Get fails afterwards. Close is idempotent.
func (l *Local) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.dicts = nil
	key := l.key
	l.mu.Unlock()

	purgeKey(key)
	l.cleanup.Stop()
}

// purgeKey strips key from every live thread state.
func purgeKey(key uint64) {
	tstate.ForEach(func(st *tstate.State) {
		st.DeleteValue(key)
		st.ClearFinalizer(key)
	})
}

// threadCount reports how many threads currently hold a dict. Test hook.
func (l *Local) threadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dicts)
}
