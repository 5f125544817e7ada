// stress.go implements the 'threadstress run' command.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kolkov/threadcore/thread"
)

// stressConfig holds the knobs shared by all scenarios.
type stressConfig struct {
	threads int
	iters   int
}

// runCommand implements the 'threadstress run' command.
//
// Each scenario spawns cfg.threads joinable threads, drives one
// primitive hard, and verifies the end state. Scenarios run in order
// and the command exits non-zero on the first failure.
func runCommand(args []string) {
	cfg, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scenarios := []struct {
		name string
		fn   func(*stressConfig) error
	}{
		{"lock-counter", stressLockCounter},
		{"rlock-recursion", stressRLockRecursion},
		{"thread-local", stressThreadLocal},
	}

	failed := 0
	for _, s := range scenarios {
		fmt.Printf("=== %s (threads=%d iters=%d)\n", s.name, cfg.threads, cfg.iters)
		if err := s.fn(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", s.name, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", s.name)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scenarios failed\n", failed, len(scenarios))
		os.Exit(1)
	}
}

func parseRunArgs(args []string) (*stressConfig, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cfg := &stressConfig{}
	fs.IntVar(&cfg.threads, "threads", 8, "threads per scenario")
	fs.IntVar(&cfg.iters, "iters", 10000, "iterations per thread")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.threads < 1 {
		return nil, fmt.Errorf("threads must be at least 1, got %d", cfg.threads)
	}
	if cfg.iters < 1 {
		return nil, fmt.Errorf("iters must be at least 1, got %d", cfg.iters)
	}
	return cfg, nil
}

// stressLockCounter has all threads increment one counter under a
// shared Lock. The counter must land exactly on threads*iters.
func stressLockCounter(cfg *stressConfig) error {
	lk := thread.AllocateLock()
	counter := 0

	err := eachThread(cfg.threads, func() error {
		for i := 0; i < cfg.iters; i++ {
			if _, err := lk.Acquire(true, thread.NoTimeout); err != nil {
				return fmt.Errorf("acquire: %w", err)
			}
			counter++
			if err := lk.Release(); err != nil {
				return fmt.Errorf("release: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if want := cfg.threads * cfg.iters; counter != want {
		return fmt.Errorf("counter = %d, want %d", counter, want)
	}
	return nil
}

// stressRLockRecursion drives nested acquisition of a shared RLock.
// Each thread acquires three deep around every increment.
func stressRLockRecursion(cfg *stressConfig) error {
	rl := thread.AllocateRLock()
	counter := 0

	err := eachThread(cfg.threads, func() error {
		for i := 0; i < cfg.iters; i++ {
			for depth := 0; depth < 3; depth++ {
				if _, err := rl.Acquire(true, thread.NoTimeout); err != nil {
					return fmt.Errorf("acquire depth %d: %w", depth, err)
				}
			}
			counter++
			for depth := 0; depth < 3; depth++ {
				if err := rl.Release(); err != nil {
					return fmt.Errorf("release depth %d: %w", depth, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if rl.IsOwned() {
		return fmt.Errorf("rlock still owned after all threads finished")
	}
	if want := cfg.threads * cfg.iters; counter != want {
		return fmt.Errorf("counter = %d, want %d", counter, want)
	}
	return nil
}

// stressThreadLocal verifies per-thread isolation under churn: every
// thread writes its own ident into a shared Local and must read the
// same value back after all iterations.
func stressThreadLocal(cfg *stressConfig) error {
	local := thread.NewLocal()
	defer local.Close()

	return eachThread(cfg.threads, func() error {
		d, err := local.Get()
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		me := thread.GetIdent()
		d.Set("ident", me)
		for i := 0; i < cfg.iters; i++ {
			d2, err := local.Get()
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			v, ok := d2.Get("ident")
			if !ok {
				return fmt.Errorf("ident missing on iteration %d", i)
			}
			if v != me {
				return fmt.Errorf("ident = %v, want %d", v, me)
			}
		}
		return nil
	})
}

// eachThread runs fn on n joinable threads and joins them all,
// returning the first error any thread reported.
func eachThread(n int, fn func() error) error {
	errs := make(chan error, n)
	handles := make([]*thread.Handle, 0, n)
	for i := 0; i < n; i++ {
		h, err := thread.StartJoinableThread(func() {
			errs <- fn()
		})
		if err != nil {
			return fmt.Errorf("start thread: %w", err)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		if err := h.Join(); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
