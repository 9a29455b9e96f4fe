package monitor

// Cycle detection over the derived "goroutine waits for goroutine" graph.
//
// The graph is never materialized: successors are computed on demand from
// the wait edges and the ownership map, both of which are stable for the
// duration of the scan because the whole PreAcquire call holds e.mu.

// dfsFrame is one level of the explicit DFS stack. An explicit stack bounds
// the scan deterministically regardless of cycle length; goroutine stacks
// are cheap but a detector running on the acquisition path should not
// depend on recursion depth.
type dfsFrame struct {
	tid   ThreadID
	succs []ThreadID
	next  int
}

// findCycleLocked searches for a cycle reachable from root and returns the
// participating goroutines in traversal order, with the first element
// repeated at the end ([T1 T2 T1] for a two-party deadlock). Returns nil
// when root cannot reach a cycle. Caller holds e.mu.
//
// onPath maps each goroutine on the current DFS path to its index in path,
// so a back edge identifies the cycle's start in O(1). visited prevents
// rescanning subgraphs already proven cycle-free from this root.
func (e *Engine) findCycleLocked(root ThreadID) []ThreadID {
	visited := map[ThreadID]bool{root: true}
	onPath := map[ThreadID]int{root: 0}
	path := []ThreadID{root}
	stack := []dfsFrame{{tid: root, succs: e.successorsLocked(root)}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.next < len(f.succs) {
			succ := f.succs[f.next]
			f.next++

			if idx, ok := onPath[succ]; ok {
				// Back edge: path[idx:] plus the revisited goroutine is
				// the deadlock cycle.
				cycle := make([]ThreadID, 0, len(path)-idx+1)
				cycle = append(cycle, path[idx:]...)
				cycle = append(cycle, succ)
				return cycle
			}
			if visited[succ] {
				continue
			}

			visited[succ] = true
			onPath[succ] = len(path)
			path = append(path, succ)
			stack = append(stack, dfsFrame{tid: succ, succs: e.successorsLocked(succ)})
			continue
		}

		stack = stack[:len(stack)-1]
		path = path[:len(path)-1]
		delete(onPath, f.tid)
	}

	return nil
}

// successorsLocked returns the goroutines that tid currently waits for,
// deduplicated, in ascending order of the smallest lock that witnesses each
// relation. The deterministic order keeps cycle reports reproducible when
// several locks connect the same pair of goroutines. Caller holds e.mu.
func (e *Engine) successorsLocked(tid ThreadID) []ThreadID {
	edges, ok := e.waiting[tid]
	if !ok {
		return nil
	}

	var succs []ThreadID
	seen := make(map[ThreadID]bool)
	for _, lid := range sortedLocksLocked(edges) {
		owner, held := e.owners[lid]
		if !held || seen[owner] {
			continue
		}
		seen[owner] = true
		succs = append(succs, owner)
	}
	return succs
}

// witnessLocked picks the lock that connects waiter to owner in the wait-for
// graph. When several locks witness the relation the smallest ID wins, so
// the same deadlock always formats the same way. Caller holds e.mu.
func (e *Engine) witnessLocked(waiter, owner ThreadID) (LockID, bool) {
	edges, ok := e.waiting[waiter]
	if !ok {
		return 0, false
	}
	for _, lid := range sortedLocksLocked(edges) {
		if o, held := e.owners[lid]; held && o == owner {
			return lid, true
		}
	}
	return 0, false
}

// formatCycleLocked renders a cycle as one line per edge, in traversal
// order. Caller holds e.mu.
func (e *Engine) formatCycleLocked(cycle []ThreadID) []string {
	lines := make([]string, 0, len(cycle)-1)
	for i := 0; i+1 < len(cycle); i++ {
		lid, ok := e.witnessLocked(cycle[i], cycle[i+1])
		if !ok {
			// Cannot happen while e.mu is held: the edge that put
			// cycle[i+1] on the path is still present.
			continue
		}
		lines = append(lines,
			e.threadNameLocked(cycle[i])+
				" is waiting for "+e.lockNameLocked(lid)+
				" held by "+e.threadNameLocked(cycle[i+1]))
	}
	return lines
}
