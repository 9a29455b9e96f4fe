// demo.go implements the 'lockwatch demo' command and the synthetic
// workload used by 'lockwatch serve'.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kolkov/lockwatch"
	"github.com/kolkov/lockwatch/internal/config"
)

// demoCommand runs one canned scenario to completion and prints the
// detector's verdict. The deadlocking scenarios are staged so the outcome
// is deterministic: workers park on real mutexes and the main goroutine
// closes the cycle once everyone is in position.
func demoCommand(args []string) {
	scenario := "two"
	if len(args) > 0 {
		scenario = args[0]
	}

	switch scenario {
	case "two":
		demoCycle([]string{"accounts", "audit-log"})
	case "three":
		demoCycle([]string{"accounts", "audit-log", "cache"})
	case "ordered":
		demoOrdered()
	default:
		fmt.Fprintf(os.Stderr, "Unknown scenario: %s (want two, three or ordered)\n", scenario)
		os.Exit(1)
	}
}

// demoCycle stages an N-party circular wait over the named locks. The main
// goroutine plays worker-0: it holds locks[0] and closes the cycle by
// requesting locks[1] after every other worker is parked.
func demoCycle(names []string) {
	mon := lockwatch.NewMonitor()

	locks := make([]*lockwatch.Mutex, len(names))
	for i, name := range names {
		locks[i] = mon.NewMutex(name)
	}

	mon.LabelGoroutine("worker-0")
	mustLock(locks[0])

	// Workers are started in reverse so each one's blocking target is
	// already held: worker-i holds locks[i] and waits on locks[(i+1)%N],
	// which worker-(i+1) (or worker-0) owns.
	var wg sync.WaitGroup
	for i := len(names) - 1; i >= 1; i-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.LabelGoroutine(fmt.Sprintf("worker-%d", i))
			mustLock(locks[i])
			next := locks[(i+1)%len(locks)]
			if err := next.Lock(); err == nil {
				next.Unlock()
			}
			locks[i].Unlock()
		}()
		waitForEdges(mon, len(names)-i)
	}

	fmt.Printf("staged %d workers; closing the cycle...\n\n", len(names))
	err := locks[1].Lock()

	var dErr *lockwatch.DeadlockError
	if !errors.As(err, &dErr) {
		fmt.Fprintln(os.Stderr, "unexpected: no deadlock detected")
		os.Exit(1)
	}
	fmt.Println("DEADLOCK DETECTED:")
	for _, line := range dErr.Cycle {
		fmt.Println("  " + line)
	}
	fmt.Println()
	fmt.Println(mon.FormatWaitGraph())

	// Unwind: releasing worker-0's lock lets the parked workers drain.
	locks[0].Unlock()
	wg.Wait()
}

// demoOrdered runs two workers that take the same two locks in the same
// global order. No cycle can form; the run ends cleanly.
func demoOrdered() {
	mon := lockwatch.NewMonitor()
	a := mon.NewMutex("accounts")
	b := mon.NewMutex("audit-log")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.LabelGoroutine(fmt.Sprintf("worker-%d", i))
			for n := 0; n < 100; n++ {
				mustLock(a)
				mustLock(b)
				b.Unlock()
				a.Unlock()
			}
		}()
	}
	wg.Wait()

	fmt.Println("200 lock pairs acquired in consistent order; no deadlock.")
	fmt.Println()
	fmt.Println(mon.FormatWaitGraph())
	if len(mon.RecentReports()) != 0 {
		fmt.Fprintln(os.Stderr, "unexpected: detector reported a deadlock")
		os.Exit(1)
	}
}

func mustLock(m *lockwatch.Mutex) {
	if err := m.Lock(); err != nil {
		fmt.Fprintf(os.Stderr, "unexpected deadlock on %s: %v\n", m.Name(), err)
		os.Exit(1)
	}
}

// waitForEdges blocks until the monitor sees at least n wait edges, i.e.
// until n workers are parked on their mutexes.
func waitForEdges(mon *lockwatch.Monitor, n int) {
	deadline := time.Now().Add(5 * time.Second)
	for len(mon.WaitEdges()) < n {
		if time.Now().After(deadline) {
			fmt.Fprintln(os.Stderr, "timed out staging workers")
			os.Exit(1)
		}
		time.Sleep(time.Millisecond)
	}
}

// startWorkload launches the serve-mode demo traffic: workers repeatedly
// take two shared locks. In the "inverted" scenario odd workers take them
// in the opposite order, so the detector fires now and then; detected
// deadlocks are logged and the loser backs off, keeping the workload live.
func startWorkload(ctx context.Context, mon *lockwatch.Monitor, demo config.Demo, logger *slog.Logger) {
	first := mon.NewMutex("demo-first")
	second := mon.NewMutex("demo-second")

	for i := 0; i < demo.Workers; i++ {
		inverted := demo.Scenario == "inverted" && i%2 == 1
		name := fmt.Sprintf("demo-worker-%d", i)
		go func() {
			mon.LabelGoroutine(name)
			ticker := time.NewTicker(demo.Interval.Std())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}

				outer, inner := first, second
				if inverted {
					outer, inner = second, first
				}
				if err := outer.Lock(); err != nil {
					logger.Warn("deadlock averted", "worker", name, "error", err)
					continue
				}
				if err := inner.Lock(); err != nil {
					logger.Warn("deadlock averted", "worker", name, "error", err)
					outer.Unlock()
					continue
				}
				time.Sleep(demo.Interval.Std() / 4)
				inner.Unlock()
				outer.Unlock()
			}
		}()
	}
}
