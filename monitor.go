package lockwatch

import (
	"sync"
	"time"

	"github.com/kolkov/lockwatch/internal/monitor"
)

// Monitor observes lock traffic and owns all deadlock-detection state.
//
// A Monitor is an explicit value: there is no hidden global registry. The
// package-level convenience constructors (NewMutex, Default) funnel into
// one shared instance so that independently written components still see a
// single wait-for graph, but nothing stops a caller from running a private
// Monitor next to it.
//
// All methods are safe for concurrent use.
type Monitor struct {
	eng *monitor.Engine
}

// NewMonitor returns a fresh Monitor with an empty wait-for graph,
// independent of the process-wide default.
func NewMonitor() *Monitor {
	return &Monitor{eng: monitor.NewEngine()}
}

var (
	defaultOnce sync.Once
	defaultMon  *Monitor
)

// Default returns the process-wide shared Monitor. Every call returns the
// same instance; mutexes created via the package-level NewMutex report
// here.
func Default() *Monitor {
	defaultOnce.Do(func() {
		defaultMon = NewMonitor()
	})
	return defaultMon
}

// LabelGoroutine registers the calling goroutine under a human-readable
// label. Without a label, goroutines appear in snapshots and reports as
// "goroutine-<id>". Calling it again replaces the label; it never creates
// a duplicate entry.
func (m *Monitor) LabelGoroutine(name string) {
	m.eng.RegisterThread(monitor.CurrentThreadID(), name)
}

// Snapshot returns the current wait-for relationships keyed by goroutine
// label, each entry an ordered list of "waiting for L (held by O)" strings.
// Only goroutines with at least one wait edge resolvable to a current owner
// appear; an empty map means nothing is waiting. The result is a copy,
// suitable for direct serialization.
func (m *Monitor) Snapshot() map[string][]string {
	return m.eng.Snapshot()
}

// WaitEdge is one wait relation from the live graph, in label form.
type WaitEdge struct {
	Waiter string `json:"waiter"`
	Lock   string `json:"lock"`
	Owner  string `json:"owner"`
}

// WaitEdges returns the structured form of Snapshot, ordered by waiter
// label then lock identity. Intended for graph-rendering consumers.
func (m *Monitor) WaitEdges() []WaitEdge {
	internal := m.eng.Edges()
	out := make([]WaitEdge, len(internal))
	for i, e := range internal {
		out[i] = WaitEdge{Waiter: e.Waiter, Lock: e.Lock, Owner: e.Owner}
	}
	return out
}

// Report is one detected deadlock: the cycle's edges in traversal order
// plus the detection time.
type Report struct {
	Cycle      []string  `json:"cycle"`
	DetectedAt time.Time `json:"detected_at"`
}

// RecentReports returns recently detected deadlocks, oldest first. The
// Monitor retains a bounded history so polling consumers can observe
// deadlocks whose victims have already backed out.
func (m *Monitor) RecentReports() []Report {
	internal := m.eng.RecentReports()
	out := make([]Report, len(internal))
	for i, r := range internal {
		out[i] = Report{Cycle: r.Cycle, DetectedAt: r.DetectedAt}
	}
	return out
}

// FormatWaitGraph renders the current wait-for graph as a multi-line
// report: one line per waiting goroutine, an indented line per wait edge,
// or "No waiting dependencies detected" when the graph is empty.
func (m *Monitor) FormatWaitGraph() string {
	return monitor.FormatWaitGraph(m.eng.Snapshot())
}
