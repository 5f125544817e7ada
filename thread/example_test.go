package thread_test

import (
	"fmt"

	"github.com/kolkov/threadcore/thread"
)

// Example demonstrates starting a joinable thread and waiting for it.
func Example() {
	h, err := thread.StartJoinableThread(func() {
		fmt.Println("working")
	})
	if err != nil {
		panic(err)
	}
	if err := h.Join(); err != nil {
		panic(err)
	}
	fmt.Println("joined")
	// Output:
	// working
	// joined
}

// Example_mutexProtected shows threads sharing a counter under a Lock.
func Example_mutexProtected() {
	lk := thread.AllocateLock()
	counter := 0

	var handles []*thread.Handle
	for i := 0; i < 4; i++ {
		h, err := thread.StartJoinableThread(func() {
			for j := 0; j < 1000; j++ {
				if _, err := lk.Acquire(true, thread.NoTimeout); err != nil {
					return
				}
				counter++
				lk.Release()
			}
		})
		if err != nil {
			panic(err)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		if err := h.Join(); err != nil {
			panic(err)
		}
	}
	fmt.Println(counter)
	// Output:
	// 4000
}

// Example_threadLocal shows per-thread storage isolation.
func Example_threadLocal() {
	local := thread.NewLocal()
	defer local.Close()

	h, err := thread.StartJoinableThread(func() {
		d, err := local.Get()
		if err != nil {
			return
		}
		d.Set("name", "worker")
		v, _ := d.Get("name")
		fmt.Println(v)
	})
	if err != nil {
		panic(err)
	}
	if err := h.Join(); err != nil {
		panic(err)
	}
	// Output:
	// worker
}
