// Copyright 2025 The threadcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux && !windows

package goid

// Native returns the calling thread's identity on platforms that expose
// no portable OS thread ID. The goroutine ID stands in: it has the same
// uniqueness contract, just a different number space than the kernel's.
func Native() uint64 {
	return Current()
}
