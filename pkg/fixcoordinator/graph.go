package fixcoordinator

// dependencyGraph is a directed graph over edit indices: an edge i->j
// means edit i depends on edit j (applying j would invalidate i's
// span). Overlap is symmetric, so two overlapping edits always produce
// edges in both directions, which is exactly what collapses them into a
// single strongly-connected component below.
type dependencyGraph struct {
	edges [][]int
}

func buildDependencyGraph(edits []Edit) *dependencyGraph {
	g := &dependencyGraph{edges: make([][]int, len(edits))}
	for i := range edits {
		for j := range edits {
			if i == j {
				continue
			}
			if edits[i].Span.Overlaps(edits[j].Span) {
				g.edges[i] = append(g.edges[i], j)
			}
		}
	}
	return g
}

// stronglyConnectedComponents runs Tarjan's algorithm, returning each
// component as a list of edit indices. A component of size 1 whose edit
// doesn't overlap itself (the only way to reach size 1) is a
// non-conflicting edit; components of size >1 are conflict sets per
// spec's "mutually overlapping" definition.
func (g *dependencyGraph) stronglyConnectedComponents() [][]int {
	n := len(g.edges)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	var components [][]int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var component []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(v)
		}
	}

	return components
}

// ResolveConflicts partitions edits into winners (at most one per
// mutually-overlapping conflict set, chosen deterministically) and
// losers (every other edit in a conflict set of size > 1). The
// tie-break is exactly spec's step 3: earliest start, then shortest
// span, then lowest rule_id lexicographically.
func ResolveConflicts(edits []Edit) (winners, losers []Edit) {
	if len(edits) == 0 {
		return nil, nil
	}

	g := buildDependencyGraph(edits)
	components := g.stronglyConnectedComponents()

	for _, component := range components {
		if len(component) == 1 {
			winners = append(winners, edits[component[0]])
			continue
		}

		best := component[0]
		for _, idx := range component[1:] {
			if isBetterFix(edits[idx], edits[best]) {
				best = idx
			}
		}
		winners = append(winners, edits[best])
		for _, idx := range component {
			if idx != best {
				losers = append(losers, edits[idx])
			}
		}
	}

	return winners, losers
}

// isBetterFix reports whether a wins the tie-break against b: earliest
// start, then shortest span, then lowest rule_id lexicographically.
func isBetterFix(a, b Edit) bool {
	if a.Span.Start != b.Span.Start {
		return a.Span.Start < b.Span.Start
	}
	if al, bl := a.Span.Len(), b.Span.Len(); al != bl {
		return al < bl
	}
	return a.RuleID < b.RuleID
}
