package monitor

import (
	"sort"
	"sync"
)

// defaultHistoryLimit bounds the ring of retained deadlock reports.
const defaultHistoryLimit = 64

// Engine is the process-wide wait-for graph monitor.
//
// All state is guarded by mu. The zero value is not usable; construct with
// NewEngine. Engines are independent: locks created against one engine are
// invisible to another, which is what makes tests hermetic.
type Engine struct {
	mu sync.Mutex // plain, never instrumented

	threads map[ThreadID]string
	locks   map[LockID]string

	// owners holds the current owner of each held lock. At most one owner
	// per lock; the entry disappears exactly when the owning goroutine
	// releases.
	owners map[LockID]ThreadID

	// waiting holds the speculative wait edges: goroutine -> locks it is
	// currently blocked trying to acquire.
	waiting map[ThreadID]map[LockID]struct{}

	// history is a bounded ring of recently detected deadlocks, kept for
	// the snapshot consumers (dashboard, CLI). Oldest entries are dropped.
	history      []Report
	historyLimit int
}

// NewEngine returns an empty engine ready to observe lock traffic.
func NewEngine() *Engine {
	return &Engine{
		threads:      make(map[ThreadID]string),
		locks:        make(map[LockID]string),
		owners:       make(map[LockID]ThreadID),
		waiting:      make(map[ThreadID]map[LockID]struct{}),
		historyLimit: defaultHistoryLimit,
	}
}

// RegisterThread upserts a goroutine into the thread registry.
//
// Registration is idempotent: re-registering the same ID updates the label
// and never creates a duplicate entry. Safe to call redundantly and
// concurrently. Entries are retained for the process lifetime; they are
// small and bounded by the program's concurrency level.
func (e *Engine) RegisterThread(id ThreadID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threads[id] = name
}

// ObserveThread ensures a goroutine is present in the registry without
// clobbering a label set earlier via RegisterThread. Used by the
// instrumented lock path, where no meaningful label is available.
func (e *Engine) ObserveThread(id ThreadID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.threads[id]; !ok {
		e.threads[id] = defaultThreadName(id)
	}
}

// RegisterLock upserts a lock into the lock registry. Same idempotency and
// concurrency guarantees as RegisterThread.
func (e *Engine) RegisterLock(id LockID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		name = defaultLockName(id)
	}
	e.locks[id] = name
}

// PreAcquire records that goroutine tid is about to block acquiring lid and
// checks whether doing so would deadlock.
//
// If lid is unowned, or already owned by tid itself, nothing is recorded
// and nil is returned: there is no wait, and a self-wait edge must never
// enter the graph (reentrant-acquire misuse surfaces through the native
// lock, not here).
//
// Otherwise a speculative wait edge (tid -> lid) is added and cycle
// detection runs rooted at tid. If a cycle through tid exists, PreAcquire
// removes the speculative edge again (the caller must not proceed to block)
// and returns the cycle as ordered human-readable edge descriptions:
//
//	"<thread> is waiting for <lock> held by <thread>"
//
// A nil return means the caller may proceed to the native acquisition.
// The caller must then report the outcome: PostAcquire on success,
// AbandonWait on timeout or non-blocking miss.
func (e *Engine) PreAcquire(tid ThreadID, lid LockID) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	owner, held := e.owners[lid]
	if !held || owner == tid {
		return nil
	}

	edges := e.waiting[tid]
	if edges == nil {
		edges = make(map[LockID]struct{})
		e.waiting[tid] = edges
	}
	edges[lid] = struct{}{}

	cycle := e.findCycleLocked(tid)
	if cycle == nil {
		return nil
	}

	lines := e.formatCycleLocked(cycle)

	// The wait never happens: the caller fails fast instead of blocking,
	// so the speculative edge must not outlive this call.
	e.removeEdgeLocked(tid, lid)
	e.recordReportLocked(lines)

	return lines
}

// PostAcquire records that tid now owns lid. Called only after the native
// lock acquisition genuinely succeeded. The pending wait edge, if any,
// resolves into ownership.
func (e *Engine) PostAcquire(tid ThreadID, lid LockID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owners[lid] = tid
	e.removeEdgeLocked(tid, lid)
}

// AbandonWait clears the speculative wait edge (tid, lid) after a failed
// native acquisition (non-blocking miss or timeout). Without this, the
// stale edge would survive and later produce phantom deadlock reports for
// reused goroutine/lock identities.
func (e *Engine) AbandonWait(tid ThreadID, lid LockID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeEdgeLocked(tid, lid)
}

// Release clears ownership of lid, but only if tid is the recorded owner.
// A release from a non-owner is tolerated as a no-op so that a misbehaving
// caller cannot corrupt another goroutine's ownership record; the native
// lock is the one that surfaces the misuse.
func (e *Engine) Release(tid ThreadID, lid LockID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if owner, held := e.owners[lid]; held && owner == tid {
		delete(e.owners, lid)
	}
}

// removeEdgeLocked deletes the wait edge (tid, lid) and drops the outer map
// entry once the goroutine has no edges left. Caller holds e.mu.
func (e *Engine) removeEdgeLocked(tid ThreadID, lid LockID) {
	edges, ok := e.waiting[tid]
	if !ok {
		return
	}
	delete(edges, lid)
	if len(edges) == 0 {
		delete(e.waiting, tid)
	}
}

// Snapshot returns a read-only view of every goroutine with at least one
// wait edge resolvable to a current owner, keyed by thread label:
//
//	{"worker-1": ["waiting for db-lock (held by worker-2)"]}
//
// Edges are ordered by ascending lock ID so output is reproducible. An
// empty map means nothing is waiting. The result is a fresh copy and safe
// to serialize or mutate.
func (e *Engine) Snapshot() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string][]string)
	for tid, edges := range e.waiting {
		deps := make([]string, 0, len(edges))
		for _, lid := range sortedLocksLocked(edges) {
			owner, held := e.owners[lid]
			if !held {
				continue
			}
			deps = append(deps,
				"waiting for "+e.lockNameLocked(lid)+
					" (held by "+e.threadNameLocked(owner)+")")
		}
		if len(deps) > 0 {
			out[e.threadNameLocked(tid)] = deps
		}
	}
	return out
}

// WaitEdge is one resolvable wait relation, in label form. Structured
// counterpart of a Snapshot line, consumed by the dashboard's graph view.
type WaitEdge struct {
	Waiter string `json:"waiter"`
	Lock   string `json:"lock"`
	Owner  string `json:"owner"`
}

// Edges returns all resolvable wait edges ordered by waiter label, then
// lock ID. Same visibility rules as Snapshot.
func (e *Engine) Edges() []WaitEdge {
	e.mu.Lock()
	defer e.mu.Unlock()

	tids := make([]ThreadID, 0, len(e.waiting))
	for tid := range e.waiting {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool {
		return e.threadNameLocked(tids[i]) < e.threadNameLocked(tids[j])
	})

	var out []WaitEdge
	for _, tid := range tids {
		for _, lid := range sortedLocksLocked(e.waiting[tid]) {
			owner, held := e.owners[lid]
			if !held {
				continue
			}
			out = append(out, WaitEdge{
				Waiter: e.threadNameLocked(tid),
				Lock:   e.lockNameLocked(lid),
				Owner:  e.threadNameLocked(owner),
			})
		}
	}
	return out
}

// threadNameLocked resolves a goroutine label, falling back to the default
// for unregistered IDs. Caller holds e.mu.
func (e *Engine) threadNameLocked(id ThreadID) string {
	if name, ok := e.threads[id]; ok && name != "" {
		return name
	}
	return defaultThreadName(id)
}

// lockNameLocked resolves a lock label. Caller holds e.mu.
func (e *Engine) lockNameLocked(id LockID) string {
	if name, ok := e.locks[id]; ok && name != "" {
		return name
	}
	return defaultLockName(id)
}

// sortedLocksLocked returns the lock IDs of an edge set in ascending order.
// The smallest-ID-first order is what makes witness selection and all
// rendered output deterministic.
func sortedLocksLocked(edges map[LockID]struct{}) []LockID {
	ids := make([]LockID, 0, len(edges))
	for lid := range edges {
		ids = append(ids, lid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
