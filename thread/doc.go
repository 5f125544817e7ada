// Package thread provides low-level threading primitives for language
// runtimes without CGO dependency.
//
// This package supplies the building blocks an interpreter or embedded
// runtime needs to expose OS-level threads: joinable thread handles with
// exactly-once join/detach semantics, interruptible locks with timeouts,
// reentrant locks with state save/restore for condition variables, and
// cycle-safe thread-local storage. Threads are goroutines pinned to OS
// threads, so the primitives behave like real threads while remaining
// pure Go.
//
// # Quick Start
//
// Start a joinable thread and wait for it:
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/kolkov/threadcore/thread"
//	)
//
//	func main() {
//		h, err := thread.StartJoinableThread(func() {
//			fmt.Println("hello from thread", thread.GetIdent())
//		})
//		if err != nil {
//			panic(err)
//		}
//		if err := h.Join(); err != nil {
//			panic(err)
//		}
//	}
//
// # API Overview
//
// The package provides functions for:
//   - Thread creation: [StartThread], [StartJoinableThread]
//   - Lock allocation: [AllocateLock], [AllocateRLock]
//   - Thread-local storage: [NewLocal], [NewLocalWithInit]
//   - Thread identity and accounting: [GetIdent], [Count]
//   - Lifecycle management: [Exit], [SetSentinel], [BeginFinalization], [AfterFork]
//   - Interruption: [InterruptMain]
//
// # Thread Handles
//
// [StartJoinableThread] returns a [Handle]. Exactly one of Join or
// Detach succeeds over the handle's lifetime, regardless of how many
// callers race for it; every other call reports an error. Joining a
// finished thread returns immediately. A handle dropped without either
// call is detached by the garbage collector.
//
// # Locks
//
// [Lock] is a non-reentrant mutex that any thread may release, which
// makes it usable as a signaling primitive as well as a mutex. Acquire
// supports non-blocking attempts and timeouts, and the primary thread's
// blocking acquisitions can be interrupted via [InterruptMain].
//
// [RLock] is owned by the acquiring thread and counts recursive
// acquisitions. SaveState and RestoreState let a condition variable
// fully release an RLock while waiting and reacquire it afterwards.
//
// # Thread-Local Storage
//
// [NewLocal] returns a [Local] whose Get method hands each thread a
// private [Dict]. Dicts disappear when their thread exits, and closing
// a Local detaches it from every live thread. Neither side keeps the
// other alive, so reference cycles between a Local and its values
// cannot leak.
//
// # Fork Support
//
// After a fork-like event where only the calling thread survives,
// [AfterFork] marks every other handle non-joinable, drops their
// thread states, and makes the caller the primary thread.
//
// # Compatibility
//
// Platform support:
//   - Operating systems: Linux, macOS, Windows
//   - Go version: 1.24 or later (weak pointers, runtime.AddCleanup)
//   - CGO requirement: None (works with CGO_ENABLED=0)
//
// # Links
//
// Project repository:
// https://github.com/kolkov/threadcore
//
// Documentation:
// https://pkg.go.dev/github.com/kolkov/threadcore/thread
package thread
