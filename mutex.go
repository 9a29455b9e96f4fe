package lockwatch

import (
	"strings"
	"sync"

	"github.com/kolkov/lockwatch/internal/monitor"
)

// DeadlockError reports that a Lock call would have closed a cycle in the
// wait-for graph. The lock was NOT acquired and the goroutine never
// blocked; the caller may retry, back off, or abort.
type DeadlockError struct {
	// Cycle describes the deadlock, one edge per entry in traversal order:
	// "<thread> is waiting for <lock> held by <thread>".
	Cycle []string
}

// Error renders the full cycle, one edge per line.
func (e *DeadlockError) Error() string {
	var b strings.Builder
	b.WriteString("deadlock detected:")
	for _, edge := range e.Cycle {
		b.WriteString("\n  - ")
		b.WriteString(edge)
	}
	return b.String()
}

// Mutex is a mutual-exclusion lock with deadlock detection.
//
// It wraps a native sync.Mutex and reports every acquire/release to its
// Monitor. Unlike sync.Mutex, Lock can fail: when acquiring would deadlock,
// it returns a *DeadlockError instead of blocking forever.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	mu   sync.Mutex
	id   monitor.LockID
	name string
	mon  *Monitor
}

// NewMutex creates a named mutex attached to the process-wide default
// Monitor. The name appears in snapshots and deadlock reports; an empty
// name gets a generated "lock-<id>" label.
func NewMutex(name string) *Mutex {
	return Default().NewMutex(name)
}

// NewMutex creates a named mutex attached to this Monitor.
//
// The lock identity comes from a process-wide monotonic counter and is
// never reused, so a mutex created after another one is garbage collected
// can never inherit its graph state.
func (m *Monitor) NewMutex(name string) *Mutex {
	id := monitor.NextLockID()
	m.eng.RegisterLock(id, name)
	return &Mutex{id: id, name: name, mon: m}
}

// Name returns the label the mutex was created with.
func (l *Mutex) Name() string { return l.name }

// Lock acquires the mutex, blocking until it is available, unless doing so
// would deadlock.
//
// Before touching the native lock, Lock reports the intent to the Monitor,
// which adds a speculative wait edge and runs cycle detection rooted at the
// calling goroutine. On a cycle, Lock returns a *DeadlockError immediately:
// the native lock is never touched and the goroutine never blocks. The
// error's Cycle field names every participant.
//
// A nil return means the mutex is held by the caller.
func (l *Mutex) Lock() error {
	tid := monitor.CurrentThreadID()
	l.mon.eng.ObserveThread(tid)

	if cycle := l.mon.eng.PreAcquire(tid, l.id); cycle != nil {
		return &DeadlockError{Cycle: cycle}
	}

	// May genuinely block. The Monitor's internal lock is NOT held here,
	// so unrelated lock traffic keeps flowing while this goroutine waits.
	l.mu.Lock()
	l.mon.eng.PostAcquire(tid, l.id)
	return nil
}

// TryLock attempts to acquire the mutex without blocking and reports
// whether it succeeded.
//
// A pending deadlock counts as failure (the detection still lands in the
// Monitor's report history). On a native miss, the speculative wait edge
// recorded during the pre-acquire step is withdrawn, so an abandoned
// attempt can never seed a phantom cycle later.
func (l *Mutex) TryLock() bool {
	tid := monitor.CurrentThreadID()
	l.mon.eng.ObserveThread(tid)

	if cycle := l.mon.eng.PreAcquire(tid, l.id); cycle != nil {
		return false
	}

	if !l.mu.TryLock() {
		l.mon.eng.AbandonWait(tid, l.id)
		return false
	}

	l.mon.eng.PostAcquire(tid, l.id)
	return true
}

// Unlock releases the mutex.
//
// The Monitor clears ownership first (a no-op if the caller is not the
// recorded owner), then the native lock is released. Unlocking a mutex
// nobody holds is the same unrecoverable run-time fault it is for a plain
// sync.Mutex.
func (l *Mutex) Unlock() {
	l.mon.eng.Release(monitor.CurrentThreadID(), l.id)
	l.mu.Unlock()
}

// Do runs fn while holding the mutex, releasing it on every exit path
// including a panic inside fn. It returns a *DeadlockError without running
// fn if the acquisition would deadlock.
func (l *Mutex) Do(fn func()) error {
	if err := l.Lock(); err != nil {
		return err
	}
	defer l.Unlock()
	fn()
	return nil
}
