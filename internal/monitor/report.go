package monitor

import (
	"sort"
	"strings"
	"time"
)

// Report is one detected deadlock: the cycle's edges in traversal order and
// the time of detection. Reports are retained in a bounded ring so that
// pull-based consumers (the dashboard polls, it is not notified) can still
// show deadlocks that the offending goroutines have already backed out of.
type Report struct {
	Cycle      []string  `json:"cycle"`
	DetectedAt time.Time `json:"detected_at"`
}

// recordReportLocked appends a report to the history ring, dropping the
// oldest entry when full. Caller holds e.mu.
func (e *Engine) recordReportLocked(lines []string) {
	r := Report{
		Cycle:      append([]string(nil), lines...),
		DetectedAt: time.Now(),
	}
	e.history = append(e.history, r)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
}

// RecentReports returns the retained deadlock reports, oldest first.
// The slice and its contents are copies.
func (e *Engine) RecentReports() []Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Report, len(e.history))
	for i, r := range e.history {
		out[i] = Report{
			Cycle:      append([]string(nil), r.Cycle...),
			DetectedAt: r.DetectedAt,
		}
	}
	return out
}

// FormatWaitGraph renders a snapshot as a multi-line report, one line per
// waiting goroutine and an indented line per wait edge:
//
//	Current Wait-For Graph:
//	worker-1:
//	  ├─ waiting for lock-2 (held by worker-2)
//	worker-2:
//	  ├─ waiting for lock-1 (held by worker-1)
//
// Threads are ordered by label. An empty snapshot renders as a single
// "No waiting dependencies detected" line.
func FormatWaitGraph(snapshot map[string][]string) string {
	if len(snapshot) == 0 {
		return "No waiting dependencies detected"
	}

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Current Wait-For Graph:")
	for _, name := range names {
		b.WriteString("\n")
		b.WriteString(name)
		b.WriteString(":")
		for _, dep := range snapshot[name] {
			b.WriteString("\n  ├─ ")
			b.WriteString(dep)
		}
	}
	return b.String()
}
