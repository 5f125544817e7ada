// Package main implements the threadstress CLI tool.
//
// The threadstress tool exercises the threading primitives under load
// and checks the environment they run in. It works by:
//
//  1. Spawning configurable numbers of joinable threads
//  2. Hammering the Lock, RLock and thread-local primitives
//  3. Verifying the invariants the primitives guarantee
//
// Usage:
//
//	threadstress run              # Run the stress scenarios
//	threadstress run -threads 16  # With 16 threads per scenario
//	threadstress doctor           # Check the module environment
//
// The tool exits non-zero when any scenario observes a broken
// invariant, which makes it usable from CI.
//
// This is the CLI entry point for the standalone stress tool.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		runCommand(os.Args[2:])
	case "doctor":
		doctorCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("threadstress version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`threadstress - Threading Primitives Stress Tool

USAGE:
    threadstress <command> [arguments]

COMMANDS:
    run        Run the stress scenarios
    doctor     Check the module environment
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Run all scenarios with defaults
    threadstress run

    # Heavier load
    threadstress run -threads 16 -iters 100000

    # Check that the surrounding module can host the primitives
    threadstress doctor

ABOUT:
    threadstress drives the threadcore primitives the way a language
    runtime would: many threads contending on shared locks, recursive
    acquisition with state hand-off, and thread-local storage under
    thread churn. Each scenario checks its end state and the tool
    exits non-zero on the first broken invariant.

FOR MORE INFORMATION:
    Repository: https://github.com/kolkov/threadcore
    Documentation: https://github.com/kolkov/threadcore/blob/main/README.md

`)
}
