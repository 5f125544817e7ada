// Copyright 2025 The threadcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package goid

import "syscall"

// Native returns the kernel task ID of the calling thread.
//
// Meaningful only while the goroutine is pinned to its OS thread, which
// holds for every thread the launcher starts.
func Native() uint64 {
	return uint64(syscall.Gettid())
}
