// Package lockwatch provides drop-in instrumented mutexes with runtime
// deadlock detection.
//
// Every lockwatch.Mutex reports its acquire/release traffic to a Monitor,
// which maintains a live wait-for graph across goroutines and locks. When a
// Lock call would close a cycle in that graph (a deadlock), the call fails
// fast with a *DeadlockError describing the cycle, before the goroutine
// ever blocks on the native lock.
//
// # Quick Start
//
//	a := lockwatch.NewMutex("lock-A")
//	b := lockwatch.NewMutex("lock-B")
//
//	if err := a.Lock(); err != nil {
//		var dl *lockwatch.DeadlockError
//		if errors.As(err, &dl) {
//			for _, edge := range dl.Cycle {
//				log.Println(edge) // "worker-1 is waiting for lock-B held by worker-2"
//			}
//		}
//		return err
//	}
//	defer a.Unlock()
//
// Mutexes created with NewMutex share the process-wide default Monitor, so
// the whole program gets one consistent view of lock ownership. For
// isolated graphs (tests, embedded subsystems), construct a Monitor
// explicitly and create mutexes through it:
//
//	mon := lockwatch.NewMonitor()
//	mu := mon.NewMutex("private")
//
// # What is detected
//
// lockwatch detects circular waits between goroutines over lockwatch
// mutexes: T1 holds A and wants B while T2 holds B and wants A, and the
// n-party generalizations. It does not observe channels, wait groups,
// semaphores, or plain sync.Mutex values, does not detect livelock or
// starvation, and never preempts or recovers: detection and reporting
// only; the caller chooses whether to fail, retry, or abort.
//
// # Cost model
//
// Each Lock/Unlock adds two short critical sections on the Monitor's
// internal mutex plus a goroutine-ID lookup. Detection runs rooted at the
// calling goroutine only, during the pre-acquire step, so unrelated lock
// traffic is never scanned. The Monitor itself performs no I/O and can
// never block on a monitored lock, so the detector cannot deadlock.
//
// # Observability
//
// Monitor.Snapshot, Monitor.WaitEdges and Monitor.RecentReports expose
// read-only, serialization-friendly views of the current wait-for graph
// and recently detected deadlocks. The lockwatch CLI's dashboard serves
// exactly these over HTTP.
package lockwatch
