package lockwatch_test

import (
	"errors"
	"fmt"
	"time"

	"github.com/kolkov/lockwatch"
)

// Example_deadlock stages the classic reversed-order deadlock and shows the
// cycle report the refused goroutine receives instead of blocking forever.
func Example_deadlock() {
	mon := lockwatch.NewMonitor()
	a := mon.NewMutex("lock-A")
	b := mon.NewMutex("lock-B")

	mon.LabelGoroutine("main")
	_ = a.Lock()

	workerHoldsB := make(chan struct{})
	go func() {
		mon.LabelGoroutine("worker")
		_ = b.Lock()
		close(workerHoldsB)
		_ = a.Lock() // blocks: main holds lock-A
	}()

	// Wait until the worker is visibly blocked on lock-A.
	<-workerHoldsB
	for len(mon.Snapshot()) == 0 {
		time.Sleep(time.Millisecond)
	}

	// Closing the cycle is refused before this goroutine would block.
	err := b.Lock()
	var dl *lockwatch.DeadlockError
	if errors.As(err, &dl) {
		for _, edge := range dl.Cycle {
			fmt.Println(edge)
		}
	}

	// Output:
	// main is waiting for lock-B held by worker
	// worker is waiting for lock-A held by main
}

// Example_snapshot renders the live wait-for graph while one goroutine is
// blocked behind another.
func Example_snapshot() {
	mon := lockwatch.NewMonitor()
	mu := mon.NewMutex("shared-state")

	mon.LabelGoroutine("owner")
	_ = mu.Lock()

	go func() {
		mon.LabelGoroutine("waiter")
		_ = mu.Lock()
		mu.Unlock()
	}()

	for len(mon.Snapshot()) == 0 {
		time.Sleep(time.Millisecond)
	}
	fmt.Println(mon.FormatWaitGraph())
	mu.Unlock()

	// Output:
	// Current Wait-For Graph:
	// waiter:
	//   ├─ waiting for shared-state (held by owner)
}
