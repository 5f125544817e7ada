// Copyright 2025 The threadcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goid extracts the identity of the calling thread.
//
// Every thread managed by this runtime is a goroutine, usually pinned to a
// dedicated OS thread by the launcher. The goroutine ID serves as the
// thread identity token (ThreadID): it is non-zero, unique among live
// threads, and stable for the thread's whole lifetime. It may be reused by
// the Go runtime after the thread exits, which matches the identity
// contract of native thread IDs.
//
// The ID is obtained by parsing the first line of runtime.Stack output
// ("goroutine 123 [running]:"). This is the portable path; it works on
// every architecture and Go release at a cost of roughly a microsecond per
// call. Callers on hot paths cache the result in their per-thread state.
package goid

import "runtime"

// Current returns the identity of the calling thread.
//
// Returns 0 only if the stack trace cannot be parsed, which does not
// happen on any supported Go release.
func Current() uint64 {
	// Only the first line is needed: "goroutine 123 [running]:\n..."
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseID(buf[:n])
}

// parseID extracts the goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:...". Returns the numeric ID
// (123 in this example) or 0 if the format is invalid. Direct byte
// parsing, no allocations beyond the caller's buffer.
func parseID(buf []byte) uint64 {
	const prefix = "goroutine "
	const prefixLen = 10 // len("goroutine ")

	if len(buf) < prefixLen {
		return 0
	}
	if string(buf[:prefixLen]) != prefix {
		return 0
	}

	// Digits run until the space before "[running]".
	var id uint64
	for i := prefixLen; i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
