package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWaitGraph_Empty(t *testing.T) {
	assert.Equal(t, "No waiting dependencies detected",
		FormatWaitGraph(nil))
	assert.Equal(t, "No waiting dependencies detected",
		FormatWaitGraph(map[string][]string{}))
}

func TestFormatWaitGraph_SortedThreads(t *testing.T) {
	snap := map[string][]string{
		"zeta":  {"waiting for L1 (held by alpha)"},
		"alpha": {"waiting for L2 (held by zeta)", "waiting for L3 (held by zeta)"},
	}

	want := "Current Wait-For Graph:\n" +
		"alpha:\n" +
		"  ├─ waiting for L2 (held by zeta)\n" +
		"  ├─ waiting for L3 (held by zeta)\n" +
		"zeta:\n" +
		"  ├─ waiting for L1 (held by alpha)"

	assert.Equal(t, want, FormatWaitGraph(snap))
}
