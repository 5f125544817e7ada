package tstate

import (
	"sync"
	"testing"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

// TestAttachCurrentDetach covers the state lifecycle on one thread.
func TestAttachCurrentDetach(t *testing.T) {
	id := goid.Current()
	st := Attach(id)
	defer Detach(id)

	if st.Ident() != id {
		t.Errorf("Ident() = %d, want %d", st.Ident(), id)
	}

	got, ok := Current()
	if !ok || got != st {
		t.Fatalf("Current() = (%p, %v), want (%p, true)", got, ok, st)
	}

	// Attach is idempotent per thread.
	if again := Attach(id); again != st {
		t.Error("second Attach returned a different state")
	}

	Detach(id)
	if _, ok := Current(); ok {
		t.Error("Current() found a state after Detach")
	}
}

// TestValues covers the key→value store.
func TestValues(t *testing.T) {
	id := goid.Current()
	st := Attach(id)
	defer Detach(id)

	k1, k2 := NewKey(), NewKey()
	if k1 == 0 || k2 == 0 || k1 == k2 {
		t.Fatalf("NewKey() produced %d, %d; want distinct non-zero keys", k1, k2)
	}

	if _, ok := st.Value(k1); ok {
		t.Error("Value() found an entry before SetValue")
	}
	st.SetValue(k1, "alpha")
	st.SetValue(k2, 42)

	if v, ok := st.Value(k1); !ok || v != "alpha" {
		t.Errorf("Value(k1) = (%v, %v), want (alpha, true)", v, ok)
	}
	if v, ok := st.Value(k2); !ok || v != 42 {
		t.Errorf("Value(k2) = (%v, %v), want (42, true)", v, ok)
	}

	st.DeleteValue(k1)
	if _, ok := st.Value(k1); ok {
		t.Error("Value(k1) found an entry after DeleteValue")
	}
	st.DeleteValue(k1) // idempotent
}

// TestFinalizersRunOnceOnDetach verifies keyed finalizers fire exactly
// once, and that ClearFinalizer and replacement both work.
func TestFinalizersRunOnceOnDetach(t *testing.T) {
	id := goid.Current()
	st := Attach(id)

	var ran []string
	kKept, kCleared, kReplaced := NewKey(), NewKey(), NewKey()
	st.SetFinalizer(kKept, func() { ran = append(ran, "kept") })
	st.SetFinalizer(kCleared, func() { ran = append(ran, "cleared") })
	st.SetFinalizer(kReplaced, func() { ran = append(ran, "first") })
	st.SetFinalizer(kReplaced, func() { ran = append(ran, "second") })
	st.ClearFinalizer(kCleared)

	Detach(id)
	Detach(id) // second teardown is a no-op

	want := map[string]int{"kept": 1, "second": 1}
	got := map[string]int{}
	for _, name := range ran {
		got[name]++
	}
	for name, n := range want {
		if got[name] != n {
			t.Errorf("finalizer %q ran %d times, want %d", name, got[name], n)
		}
	}
	if got["cleared"] != 0 || got["first"] != 0 {
		t.Errorf("cleared/replaced finalizers ran: %v", ran)
	}
}

// TestSetAfterDetach verifies a torn-down state rejects new entries.
func TestSetAfterDetach(t *testing.T) {
	id := goid.Current()
	st := Attach(id)
	Detach(id)

	k := NewKey()
	st.SetValue(k, "late")
	if _, ok := st.Value(k); ok {
		t.Error("SetValue took effect on a torn-down state")
	}
	st.SetFinalizer(k, func() { t.Error("finalizer registered after teardown ran") })
	Detach(id)
}

// TestForEachWalksLiveStates verifies the registry walk sees every live
// thread exactly once.
func TestForEachWalksLiveStates(t *testing.T) {
	const threads = 8

	var wg sync.WaitGroup
	attached := make(chan uint64, threads)
	release := make(chan struct{})

	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := goid.Current()
			Attach(id)
			defer Detach(id)
			attached <- id
			<-release
		}()
	}

	want := make(map[uint64]bool, threads)
	for i := 0; i < threads; i++ {
		want[<-attached] = true
	}

	seen := make(map[uint64]int)
	ForEach(func(st *State) { seen[st.Ident()]++ })
	for id := range want {
		if seen[id] != 1 {
			t.Errorf("state %d seen %d times in walk, want 1", id, seen[id])
		}
	}

	close(release)
	wg.Wait()

	for id := range want {
		ForEach(func(st *State) {
			if st.Ident() == id {
				t.Errorf("state %d still registered after Detach", id)
			}
		})
	}
}

// TestAfterFork verifies only the surviving thread's state remains.
func TestAfterFork(t *testing.T) {
	surviving := goid.Current()
	Attach(surviving)
	defer Detach(surviving)

	// Simulate states left over from threads that died at fork.
	Attach(surviving + 1000001)
	Attach(surviving + 1000002)

	AfterFork(surviving)

	if _, ok := Current(); !ok {
		t.Error("surviving thread lost its state in AfterFork")
	}
	count := 0
	ForEach(func(st *State) {
		if st.Ident() == surviving+1000001 || st.Ident() == surviving+1000002 {
			count++
		}
	})
	if count != 0 {
		t.Errorf("%d dead states survived AfterFork", count)
	}
}
