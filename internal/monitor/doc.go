// Package monitor implements the wait-for graph engine behind lockwatch's
// runtime deadlock detection.
//
// The engine observes lock traffic reported by instrumented mutexes and
// maintains, under a single internal mutex, four pieces of state:
//
//  1. Thread registry: goroutine ID -> human-readable label
//  2. Lock registry:   lock ID -> human-readable label
//  3. Ownership map:   lock ID -> owning goroutine (present only while held)
//  4. Wait edges:      goroutine ID -> set of lock IDs it is blocked on
//
// The derived relation "goroutine T waits for goroutine O" (T has a wait
// edge on a lock currently owned by O) forms a directed graph over
// goroutines. A cycle in that graph is a deadlock.
//
// # Detection model
//
// Before an instrumented mutex touches its native lock, it calls PreAcquire.
// If the target lock is owned by another goroutine, the engine records a
// speculative wait edge and runs cycle detection rooted at the caller. The
// whole call, including the graph scan, executes under the engine's single
// internal mutex, so the detector always reasons about a graph snapshot
// consistent with some serial order of acquire/release calls. No missed or
// phantom cycles can result from interleaved mutation; the cost is that
// detection is serialized across goroutines.
//
// A reported cycle means the caller would block forever if it proceeded, so
// PreAcquire removes the speculative edge before returning the report: the
// wait never happens.
//
// # What the engine must never do
//
// Every engine operation is non-blocking and bounded: no I/O, no waiting on
// any lock other than the engine's own internal mutex, which is a plain
// sync.Mutex and is never itself instrumented (instrumenting it would
// recurse into the engine). The only operation in the whole system that can
// suspend a goroutine is the native lock acquisition inside Mutex.Lock,
// which happens strictly outside the engine's mutex.
//
// # Detection scope
//
// Detection is rooted only at the goroutine that just attempted to wait;
// the engine never rescans the whole graph. That is sufficient: every
// goroutine in a cycle must itself call PreAcquire to enter the waiting
// state, so the last participant to block always sees the complete cycle.
package monitor
