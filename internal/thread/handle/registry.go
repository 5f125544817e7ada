package handle

import (
	"sync"
	"sync/atomic"
	"weak"
)

// Process-wide handle registry. Membership is weak: the registry never
// keeps a handle alive, it only needs to find the live ones at fork
// time. Entries are removed when the owner's handle is collected (via
// the AddCleanup in New) or invalidated by AfterFork.
var (
	regMu   sync.Mutex
	entries = make(map[uint64]weak.Pointer[Handle])

	serialCounter atomic.Uint64
)

func nextSerial() uint64 {
	return serialCounter.Add(1)
}

func register(h *Handle) {
	regMu.Lock()
	entries[h.serial] = weak.Make(h)
	regMu.Unlock()
}

func unregister(serial uint64) {
	regMu.Lock()
	delete(entries, serial)
	regMu.Unlock()
}

// AfterFork invalidates every handle whose thread does not exist in the
// forked child: all but the surviving thread's. Those handles are marked
// non-joinable (join or detach on a vanished thread must fail, not
// block) and dropped from the registry. Entries whose handles were
// already collected are dropped along the way.
func AfterFork(current uint64) {
	regMu.Lock()
	defer regMu.Unlock()
	for serial, wp := range entries {
		h := wp.Value()
		if h == nil {
			delete(entries, serial)
			continue
		}
		if h.Ident() == current {
			continue
		}
		h.joinable.Store(false)
		delete(entries, serial)
	}
}

// liveCount returns the number of registry entries whose handles are
// still reachable. Test hook.
func liveCount() int {
	regMu.Lock()
	defer regMu.Unlock()
	n := 0
	for _, wp := range entries {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}
