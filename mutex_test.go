package lockwatch

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutex_LockUnlock(t *testing.T) {
	mon := NewMonitor()
	mu := mon.NewMutex("plain")

	require.NoError(t, mu.Lock())
	mu.Unlock()

	assert.Empty(t, mon.Snapshot())
	assert.Empty(t, mon.RecentReports())
}

func TestMutex_TryLock(t *testing.T) {
	mon := NewMonitor()
	mu := mon.NewMutex("try")

	require.True(t, mu.TryLock())

	// Second TryLock from the same goroutine: the monitor records no
	// self-wait and the native miss must leave no residue.
	assert.False(t, mu.TryLock())
	assert.Empty(t, mon.Snapshot(), "failed TryLock must clear its wait edge")
	assert.Empty(t, mon.RecentReports())

	mu.Unlock()
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func TestMutex_TryLockContended_LeavesNoEdge(t *testing.T) {
	mon := NewMonitor()
	mu := mon.NewMutex("contended")

	acquired := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, mu.Lock())
		close(acquired)
		<-release
		mu.Unlock()
	}()

	<-acquired
	assert.False(t, mu.TryLock())
	assert.Empty(t, mon.Snapshot(), "abandoned attempt must not linger in the graph")

	close(release)
	<-done
}

// TestMutex_TwoPartyDeadlock stages the canonical reversed-order deadlock
// with real goroutines. Exactly one side must fail fast with a two-edge
// DeadlockError; the other must complete normally once the victim backs
// out.
func TestMutex_TwoPartyDeadlock(t *testing.T) {
	mon := NewMonitor()
	a := mon.NewMutex("lock-A")
	b := mon.NewMutex("lock-B")

	var ready sync.WaitGroup
	ready.Add(2)

	errs := make(chan error, 2)
	run := func(first, second *Mutex) {
		require.NoError(t, first.Lock())
		ready.Done()
		ready.Wait() // both first locks held before either crosses

		err := second.Lock()
		if err == nil {
			second.Unlock()
		}
		first.Unlock()
		errs <- err
	}

	go run(a, b)
	go run(b, a)

	var failures []error
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err != nil {
				failures = append(failures, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("goroutines did not finish: detector failed to break the deadlock")
		}
	}

	require.Len(t, failures, 1, "exactly one side must be refused")

	var dl *DeadlockError
	require.ErrorAs(t, failures[0], &dl)
	require.Len(t, dl.Cycle, 2)
	joined := strings.Join(dl.Cycle, "\n")
	assert.Contains(t, joined, "lock-A")
	assert.Contains(t, joined, "lock-B")

	assert.Empty(t, mon.Snapshot(), "all edges must resolve after recovery")
	assert.Len(t, mon.RecentReports(), 1)
}

// TestMutex_ThreePartyDeadlock builds the 3-cycle (T1: L1->L2, T2: L2->L3,
// T3: L3->L1). Whichever goroutine completes the cycle gets a three-edge
// report; the others drain normally afterwards.
func TestMutex_ThreePartyDeadlock(t *testing.T) {
	mon := NewMonitor()
	locks := []*Mutex{
		mon.NewMutex("L1"),
		mon.NewMutex("L2"),
		mon.NewMutex("L3"),
	}

	var ready sync.WaitGroup
	ready.Add(3)

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		first, second := locks[i], locks[(i+1)%3]
		go func() {
			require.NoError(t, first.Lock())
			ready.Done()
			ready.Wait()

			err := second.Lock()
			if err == nil {
				second.Unlock()
			}
			first.Unlock()
			errs <- err
		}()
	}

	var failures []error
	for i := 0; i < 3; i++ {
		select {
		case err := <-errs:
			if err != nil {
				failures = append(failures, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("goroutines did not finish: detector failed to break the deadlock")
		}
	}

	require.Len(t, failures, 1)

	var dl *DeadlockError
	require.ErrorAs(t, failures[0], &dl)
	assert.Len(t, dl.Cycle, 3)

	assert.Empty(t, mon.Snapshot())
}

func TestMutex_NoDeadlockWithConsistentOrdering(t *testing.T) {
	mon := NewMonitor()
	a := mon.NewMutex("first")
	b := mon.NewMutex("second")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				require.NoError(t, a.Lock())
				require.NoError(t, b.Lock())
				b.Unlock()
				a.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, mon.RecentReports(), "consistent ordering must never report")
	assert.Empty(t, mon.Snapshot())
}

func TestMutex_DoReleasesOnPanic(t *testing.T) {
	mon := NewMonitor()
	mu := mon.NewMutex("scoped")

	require.Panics(t, func() {
		_ = mu.Do(func() { panic("boom") })
	})

	// The lock must have been released on the panic path.
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func TestMutex_DoRunsUnderLock(t *testing.T) {
	mon := NewMonitor()
	mu := mon.NewMutex("scoped")

	ran := false
	err := mu.Do(func() {
		ran = true
		assert.False(t, mu.TryLock(), "must be held inside fn")
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, mu.TryLock(), "must be free after Do returns")
	mu.Unlock()
}

func TestDeadlockError_Message(t *testing.T) {
	err := &DeadlockError{Cycle: []string{
		"T1 is waiting for L2 held by T2",
		"T2 is waiting for L1 held by T1",
	}}

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "deadlock detected:"))
	assert.Contains(t, msg, "\n  - T1 is waiting for L2 held by T2")
	assert.Contains(t, msg, "\n  - T2 is waiting for L1 held by T1")

	var target *DeadlockError
	assert.True(t, errors.As(error(err), &target))
}

func TestDefault_SharedInstance(t *testing.T) {
	assert.Same(t, Default(), Default())

	// Package-level NewMutex reports into the default monitor.
	mu := NewMutex("shared-view")
	require.NoError(t, mu.Lock())
	mu.Unlock()
}

func TestMonitor_LabelGoroutine(t *testing.T) {
	mon := NewMonitor()
	mon.LabelGoroutine("coordinator")
	mu := mon.NewMutex("labeled")

	require.NoError(t, mu.Lock())

	done := make(chan struct{})
	go func() {
		defer close(done)
		mon.LabelGoroutine("helper")
		require.NoError(t, mu.Lock())
		mu.Unlock()
	}()

	// Wait until the helper's blocked attempt is visible, then check the
	// label made it into the snapshot.
	var snap map[string][]string
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap = mon.Snapshot()
		if len(snap) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Contains(t, snap, "helper")
	assert.Equal(t, []string{"waiting for labeled (held by coordinator)"},
		snap["helper"])

	mu.Unlock()
	<-done
	assert.Empty(t, mon.Snapshot())
}
