package interrupt

import (
	"testing"
	"time"

	"github.com/kolkov/threadcore/internal/thread/goid"
)

// TestPostTake verifies the latch holds exactly one pending signal.
func TestPostTake(t *testing.T) {
	Take() // drain anything left by other tests

	if err := Post(2); err != nil {
		t.Fatalf("Post(2) = %v, want nil", err)
	}
	sig, ok := Take()
	if !ok || sig != 2 {
		t.Fatalf("Take() = (%d, %v), want (2, true)", sig, ok)
	}

	// Consumed: a second Take sees nothing.
	if sig, ok := Take(); ok {
		t.Fatalf("second Take() = (%d, true), want none pending", sig)
	}
}

// TestPostCoalesces verifies a later post overwrites an unconsumed one.
func TestPostCoalesces(t *testing.T) {
	Take()

	if err := Post(2); err != nil {
		t.Fatal(err)
	}
	if err := Post(15); err != nil {
		t.Fatal(err)
	}
	if sig, ok := Take(); !ok || sig != 15 {
		t.Fatalf("Take() = (%d, %v), want (15, true)", sig, ok)
	}
}

// TestPostRange verifies signal number validation.
func TestPostRange(t *testing.T) {
	tests := []struct {
		name   string
		signum int
		ok     bool
	}{
		{"sigint", 2, true},
		{"min", 1, true},
		{"max", 64, true},
		{"zero", 0, false},
		{"negative", -3, false},
		{"too large", 65, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Post(tt.signum)
			if tt.ok && err != nil {
				t.Errorf("Post(%d) = %v, want nil", tt.signum, err)
			}
			if !tt.ok && err != ErrSignalOutOfRange {
				t.Errorf("Post(%d) = %v, want ErrSignalOutOfRange", tt.signum, err)
			}
		})
	}
	Take()
}

// TestWaitWakesOnPost verifies bounded-latency wakeup of a waiter.
func TestWaitWakesOnPost(t *testing.T) {
	Take()

	ch := Wait()
	go func() {
		time.Sleep(10 * time.Millisecond)
		Post(2) //nolint:errcheck // valid signum
	}()

	select {
	case <-ch:
		// woken by the post
	case <-time.After(5 * time.Second):
		t.Fatal("Wait channel not closed by Post")
	}
	Take()
}

// TestOnPrimary verifies primary-thread gating.
func TestOnPrimary(t *testing.T) {
	old := primary.Load()
	defer primary.Store(old)

	SetPrimary(goid.Current())
	if !OnPrimary() {
		t.Error("OnPrimary() = false on the designated thread")
	}

	res := make(chan bool)
	go func() { res <- OnPrimary() }()
	if <-res {
		t.Error("OnPrimary() = true on a non-primary thread")
	}
}
