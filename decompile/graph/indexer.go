package graph

import (
	"sort"

	"tlog.app/go/errors"
)

// ErrIrreducible is returned by Index when the graph contains a cycle
// entered from more than one point, so no linearisation exists where
// every non-back edge goes forward (§4.1). The caller
// (decompile.Decompiler) wraps it into a DecompilationError with kind
// IrreducibleControlFlow; the indexer itself never attempts to repair
// the graph by duplicating blocks or inserting dispatchers — that is a
// caller's concern (§1, §4.1).
var ErrIrreducible = errors.New("irreducible control flow graph")

// Indexer is the bijection between original block indices and the
// linearised order 0..N (§3 GraphIndex, §4.1).
type Indexer struct {
	forward []int // original index -> linearised index
	inverse []int // linearised index -> original index
	graph   *Graph
}

// Index linearises g starting from entry 0 into reverse postorder, using
// weights and an optional priorities pin to break ties among siblings:
// within a choice, blocks with higher weight or set priority are visited
// first so that they end up placed *last* in the linearisation,
// shortening the forward-jump span of the blocks that remain (§4.1).
// Reducibility is checked against the graph's dominator tree, which is
// order-independent: a graph is reducible iff every edge that retreats
// under this order targets a node that dominates its source.
func Index(g *Graph, weights []int, priorities []int) (*Indexer, error) {
	n := g.Size()

	inverse := rpoOrder(g, weights, priorities)

	forward := make([]int, n)
	for i := range forward {
		forward[i] = -1
	}
	for i, orig := range inverse {
		forward[orig] = i
	}

	idom := dominators(g, inverse, forward)

	dominates := func(a, b int) bool {
		if forward[a] < 0 || forward[b] < 0 {
			return false
		}
		for c := b; ; {
			if c == a {
				return true
			}
			if idom[c] == c {
				return c == a
			}
			c = idom[c]
		}
	}

	for u := 0; u < n; u++ {
		if forward[u] < 0 {
			continue
		}
		for _, v := range g.Successors(u) {
			if forward[v] < 0 {
				continue
			}
			if forward[v] <= forward[u] && !dominates(v, u) {
				return nil, ErrIrreducible
			}
		}
	}

	reindexed := New(n)
	for orig := 0; orig < n; orig++ {
		if forward[orig] < 0 {
			continue
		}
		for _, s := range g.Successors(orig) {
			if forward[s] < 0 {
				continue
			}
			reindexed.AddEdge(forward[orig], forward[s])
		}
	}

	return &Indexer{forward: forward, inverse: inverse, graph: reindexed}, nil
}

// rpoOrder returns block indices in reverse postorder of a DFS from node
// 0. Unreachable blocks are appended afterwards in their original order
// so every block still receives an index.
func rpoOrder(g *Graph, weights, priorities []int) []int {
	n := g.Size()
	visited := make([]bool, n)
	var postorder []int

	var visit func(u int)
	visit = func(u int) {
		visited[u] = true

		succ := append([]int(nil), g.Successors(u)...)
		sort.SliceStable(succ, func(i, j int) bool {
			a, b := succ[i], succ[j]
			if priorities[a] != priorities[b] {
				return priorities[a] > priorities[b]
			}
			return weights[a] > weights[b]
		})

		for _, v := range succ {
			if !visited[v] {
				visit(v)
			}
		}

		postorder = append(postorder, u)
	}
	visit(0)

	inverse := make([]int, 0, n)
	for i := len(postorder) - 1; i >= 0; i-- {
		inverse = append(inverse, postorder[i])
	}
	for u := 0; u < n; u++ {
		if !visited[u] {
			inverse = append(inverse, u)
		}
	}
	return inverse
}

// dominators computes the immediate dominator of every reachable node via
// the iterative algorithm of Cooper, Harvey & Kennedy (2001), which
// converges for any single-entry graph regardless of reducibility.
// idom[entry] == entry.
func dominators(g *Graph, inverse, forward []int) []int {
	n := g.Size()
	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	entry := inverse[0]
	idom[entry] = entry

	intersect := func(a, b int) int {
		for a != b {
			for forward[a] > forward[b] {
				a = idom[a]
			}
			for forward[b] > forward[a] {
				b = idom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, b := range inverse[1:] {
			newIdom := -1
			for _, p := range g.Predecessors(b) {
				if idom[p] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if newIdom != -1 && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	for i := range idom {
		if idom[i] == -1 {
			idom[i] = i // unreachable: dominated only by itself
		}
	}
	return idom
}

// Size returns the number of indexed nodes: every block, with blocks
// unreachable from the entry placed after all reachable ones.
func (idx *Indexer) Size() int { return len(idx.inverse) }

// NodeAt returns the original block index at linearised position i, or
// -1 if i is out of range.
func (idx *Indexer) NodeAt(i int) int {
	if i < 0 || i >= len(idx.inverse) {
		return -1
	}
	return idx.inverse[i]
}

// IndexOf returns the linearised position of original block index u, or
// -1 if u is out of range.
func (idx *Indexer) IndexOf(u int) int {
	if u < 0 || u >= len(idx.forward) {
		return -1
	}
	return idx.forward[u]
}

// Graph returns the reindexed graph: node i here corresponds to
// NodeAt(i) in the original graph.
func (idx *Indexer) Graph() *Graph { return idx.graph }
