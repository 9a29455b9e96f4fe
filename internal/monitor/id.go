package monitor

import (
	"fmt"
	"sync/atomic"
)

// ThreadID identifies a goroutine observed by the engine. It is the
// runtime's goroutine ID, which is unique for the lifetime of the process.
type ThreadID int64

// LockID identifies a monitored lock instance.
//
// IDs come from a process-wide monotonically increasing counter and are
// never reused, even after the lock value itself is garbage collected.
// Reuse would let a freshly created lock inherit the graph state of a dead
// one and produce phantom wait edges.
type LockID uint64

// lockCounter allocates LockIDs. Atomic, so allocation never contends with
// the engine's internal mutex.
var lockCounter atomic.Uint64

// NextLockID returns a fresh, never-before-used lock identifier.
// The first ID handed out is 1; 0 is reserved as "no lock".
func NextLockID() LockID {
	return LockID(lockCounter.Add(1))
}

// defaultThreadName is the label used for goroutines that were observed by
// the engine but never labeled explicitly.
func defaultThreadName(id ThreadID) string {
	return fmt.Sprintf("goroutine-%d", id)
}

// defaultLockName is the label used for locks registered without a name.
func defaultLockName(id LockID) string {
	return fmt.Sprintf("lock-%d", id)
}
