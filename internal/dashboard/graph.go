package dashboard

import (
	"sort"
	"time"

	"github.com/kolkov/lockwatch"
)

// snapshotView is the /v1/snapshot payload.
type snapshotView struct {
	Threads     map[string][]string `json:"threads"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// deadlocksView is the /v1/deadlocks payload.
type deadlocksView struct {
	Deadlocks []lockwatch.Report `json:"deadlocks"`
}

// graphView is the /v1/graph payload: a bipartite graph of threads and
// locks suitable for direct rendering.
type graphView struct {
	Nodes []graphNode `json:"nodes"`
	Links []graphLink `json:"links"`
}

type graphNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "thread" or "lock"
}

type graphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"` // "waiting" or "holds"
}

// buildGraph turns flat wait edges into the bipartite node/link shape.
// Nodes are deduplicated and sorted, threads before locks, so output is
// stable for a given set of edges.
func buildGraph(edges []lockwatch.WaitEdge) graphView {
	threads := make(map[string]bool)
	locks := make(map[string]bool)
	linkSeen := make(map[graphLink]bool)

	view := graphView{Nodes: []graphNode{}, Links: []graphLink{}}
	for _, e := range edges {
		threads[e.Waiter] = true
		threads[e.Owner] = true
		locks[e.Lock] = true

		for _, l := range []graphLink{
			{Source: e.Waiter, Target: e.Lock, Kind: "waiting"},
			{Source: e.Owner, Target: e.Lock, Kind: "holds"},
		} {
			if !linkSeen[l] {
				linkSeen[l] = true
				view.Links = append(view.Links, l)
			}
		}
	}

	for _, name := range sortedKeys(threads) {
		view.Nodes = append(view.Nodes, graphNode{ID: name, Kind: "thread"})
	}
	for _, name := range sortedKeys(locks) {
		view.Nodes = append(view.Nodes, graphNode{ID: name, Kind: "lock"})
	}

	sort.Slice(view.Links, func(i, j int) bool {
		a, b := view.Links[i], view.Links[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
	return view
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
