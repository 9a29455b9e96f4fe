// Package main implements the lockwatch CLI tool.
//
// The lockwatch tool provides runtime deadlock detection for mutex-based
// Go programs plus a heuristic static scan for risky locking patterns.
// It works by:
//
//  1. Wrapping mutexes in an instrumented type that reports every
//     acquisition to a wait-for graph monitor
//  2. Running cycle detection on the graph before a goroutine blocks
//  3. Optionally serving a live dashboard of the graph over HTTP
//  4. Scanning source trees with go/ast for lock-order hazards
//
// Usage:
//
//	lockwatch analyze ./...        # Static scan of a source tree
//	lockwatch serve                # Dashboard with a demo workload
//	lockwatch demo two             # Run a canned deadlock scenario
//
// This is the CLI entry point for the standalone tool; programs embed the
// detector by importing the lockwatch package directly.
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
	case "analyze":
		analyzeCommand(os.Args[2:])
	case "serve":
		serveCommand(os.Args[2:])
	case "demo":
		demoCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("lockwatch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`lockwatch - Runtime Deadlock Detector for Go

USAGE:
    lockwatch <command> [arguments]

COMMANDS:
    analyze    Statically scan Go sources for risky locking patterns
    serve      Run the live wait-for graph dashboard with a demo workload
    demo       Run a canned scenario and print the detector's verdict
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Scan the current module for lock hazards
    lockwatch analyze .

    # Scan a single file, JSON output
    lockwatch analyze -json pkg/store/store.go

    # Live dashboard at http://127.0.0.1:8787 with deadlocking traffic
    lockwatch serve

    # Dashboard with a config file
    lockwatch serve -config lockwatch.yaml

    # Provoke and report a two-party deadlock
    lockwatch demo two

ABOUT:
    lockwatch detects deadlocks at runtime by maintaining a wait-for graph
    of goroutines and the mutexes they hold or wait on. Before any wrapped
    mutex blocks, the detector checks whether the new wait would close a
    cycle; if so, the acquisition fails fast with a report of the cycle
    instead of hanging the program.

    The analyze command is complementary: a heuristic single-pass scan
    that flags unreleased locks, unsynchronized writes to shared
    variables, and conflicting lock acquisition orders before the code
    ever runs.
`)
}
