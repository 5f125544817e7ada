// Package api ties the low-level threading pieces together: it starts
// threads through the bootstrap trampoline, tracks how many are alive,
// manages per-thread sentinel locks, and carries the process-wide knobs
// (stack size, finalization, the unraisable-panic handler).
//
// The public thread package re-exports this surface; nothing outside
// the module imports api directly.
package api
