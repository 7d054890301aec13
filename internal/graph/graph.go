// Package graph builds and orders the template dependency graph.
package graph

import (
	"container/heap"
	"sort"

	"github.com/nibzard/roadmap-go/internal/templates"
)

// Order selects the tie-break rule for the topological ready queue.
type Order int

const (
	// OrderPriorityThenID breaks ties by priority descending, then
	// identifier ascending. This is the default.
	OrderPriorityThenID Order = iota
	// OrderIDOnly breaks ties by identifier ascending alone.
	OrderIDOnly
)

type node struct {
	id       string
	priority int
}

// Graph is an immutable, validated DAG over template identifiers.
//
// It is safe for concurrent read access.
type Graph struct {
	nodes    []node
	byID     map[string]int
	outgoing [][]int // dependency -> dependents, sorted by tie-break order
	indeg    []int

	order []string
	rank  map[string]int
}

// Build validates dependency edges and computes a deterministic topological
// order. Templates are expected to have unique identifiers and resolvable
// depends_on references (the catalog checks both); violations found here are
// reported as invalid-graph errors. Cycles, including self-references, are
// reported with a full cycle path.
func Build(tmpls []templates.TaskTemplate, order Order) (*Graph, error) {
	g := &Graph{
		nodes: make([]node, 0, len(tmpls)),
		byID:  make(map[string]int, len(tmpls)),
	}

	for _, t := range tmpls {
		if t.ID == "" {
			return nil, invalidf("template identifier is required")
		}
		if _, exists := g.byID[t.ID]; exists {
			return nil, invalidf("duplicate identifier: %q", t.ID)
		}
		g.byID[t.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node{id: t.ID, priority: t.Priority})
	}

	g.outgoing = make([][]int, len(g.nodes))
	g.indeg = make([]int, len(g.nodes))

	for _, t := range tmpls {
		to := g.byID[t.ID]
		seen := make(map[int]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				// A self-reference is a cycle of length one.
				return nil, cycleError([]string{t.ID, t.ID})
			}
			from, ok := g.byID[dep]
			if !ok {
				return nil, invalidf("unknown dependency %q of %q", dep, t.ID)
			}
			if seen[from] {
				// Duplicate depends_on entries collapse to one edge.
				continue
			}
			seen[from] = true
			g.outgoing[from] = append(g.outgoing[from], to)
			g.indeg[to]++
		}
	}

	less := g.lessFunc(order)
	for i := range g.outgoing {
		deps := g.outgoing[i]
		sort.Slice(deps, func(a, b int) bool { return less(deps[a], deps[b]) })
	}

	topo := g.topoOrderIndices(less)
	if len(topo) != len(g.nodes) {
		return nil, cycleError(g.findCycleDeterministic())
	}

	g.order = make([]string, 0, len(topo))
	g.rank = make(map[string]int, len(topo))
	for rank, idx := range topo {
		g.order = append(g.order, g.nodes[idx].id)
		g.rank[g.nodes[idx].id] = rank
	}

	return g, nil
}

// lessFunc returns the node ordering for the given tie-break rule.
func (g *Graph) lessFunc(order Order) func(i, j int) bool {
	switch order {
	case OrderIDOnly:
		return func(i, j int) bool {
			return templates.CompareIDs(g.nodes[i].id, g.nodes[j].id)
		}
	default:
		return func(i, j int) bool {
			if g.nodes[i].priority != g.nodes[j].priority {
				return g.nodes[i].priority > g.nodes[j].priority
			}
			return templates.CompareIDs(g.nodes[i].id, g.nodes[j].id)
		}
	}
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Order returns the deterministic topological ordering of identifiers.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Rank returns the position of an identifier in the topological order.
func (g *Graph) Rank(id string) (int, bool) {
	r, ok := g.rank[id]
	return r, ok
}

type nodeHeap struct {
	idx  []int
	less func(i, j int) bool
}

func (h *nodeHeap) Len() int           { return len(h.idx) }
func (h *nodeHeap) Less(i, j int) bool { return h.less(h.idx[i], h.idx[j]) }
func (h *nodeHeap) Swap(i, j int)      { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *nodeHeap) Push(x any)         { h.idx = append(h.idx, x.(int)) }
func (h *nodeHeap) Pop() any {
	old := h.idx
	n := len(old)
	x := old[n-1]
	h.idx = old[:n-1]
	return x
}

// topoOrderIndices runs Kahn's algorithm with the ready queue kept as a
// min-heap under the tie-break ordering, so equal-readiness nodes always
// emerge in the same sequence.
func (g *Graph) topoOrderIndices(less func(i, j int) bool) []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &nodeHeap{less: less}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycleDeterministic performs a deterministic DFS to extract one cycle
// path. It does not attempt to list all cycles; it returns a single stable
// witness.
func (g *Graph) findCycleDeterministic() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	// Roots visited in identifier order for a stable witness.
	roots := make([]int, len(g.nodes))
	for i := range roots {
		roots[i] = i
	}
	sort.Slice(roots, func(a, b int) bool {
		return templates.CompareIDs(g.nodes[roots[a]].id, g.nodes[roots[b]].id)
	})

	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				// Back-edge u -> v. Reconstruct cycle v ... u -> v.
				cycle = append(cycle, v)
				cur := u
				for cur != -1 && cur != v {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, i := range roots {
		if color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}

	// The parent walk collected the cycle back to front; reverse into
	// forward order, keeping the closing repeat.
	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, g.nodes[cycle[i]].id)
	}
	return out
}
