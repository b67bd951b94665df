package graph

import "sort"

// Loop is one natural loop identified over the indexed graph (§3
// LoopForest, §4.2). Header is the indexed block id that dominates every
// other member.
type Loop struct {
	Header  int
	Parent  *Loop
	members map[int]bool
}

// Contains reports whether block (an indexed id) is a member of this
// loop, including the header itself.
func (l *Loop) Contains(block int) bool { return l.members[block] }

// End returns the smallest indexed position strictly greater than every
// member of the loop — loopSuccessor[header] in §4.3's vocabulary.
func (l *Loop) End() int {
	max := l.Header
	for m := range l.members {
		if m > max {
			max = m
		}
	}
	return max + 1
}

// LoopForest maps every indexed block to its innermost containing
// natural loop (§3, §4.2). It is built from the already-indexed graph
// (graph.Indexer.Graph()), operating purely on indexed ids, the way
// §4.2 states the algorithm: "for each back-edge (u -> h) with
// idx(h) <= idx(u), compute the loop body as the set of nodes that can
// reach u without crossing h".
type LoopForest struct {
	innermost []*Loop
	loops     []*Loop
}

// BuildLoopForest identifies natural loops over g, which must already be
// indexed (graph.Index's output graph).
func BuildLoopForest(g *Graph) *LoopForest {
	n := g.Size()
	bodies := map[int]map[int]bool{}

	for u := 0; u < n; u++ {
		for _, v := range g.Successors(u) {
			if v > u {
				continue
			}
			body := bodies[v]
			if body == nil {
				body = map[int]bool{v: true}
			}
			growLoopBody(g, body, u, v)
			bodies[v] = body
		}
	}

	headers := make([]int, 0, len(bodies))
	for h := range bodies {
		headers = append(headers, h)
	}
	sort.Slice(headers, func(i, j int) bool {
		return len(bodies[headers[i]]) < len(bodies[headers[j]])
	})

	loops := make([]*Loop, 0, len(headers))
	for _, h := range headers {
		loops = append(loops, &Loop{Header: h, members: bodies[h]})
	}

	innermost := make([]*Loop, n)
	for _, l := range loops { // ascending body size: first hit is innermost
		for m := range l.members {
			if innermost[m] == nil {
				innermost[m] = l
			}
		}
	}

	for _, l := range loops {
		var parent *Loop
		for _, other := range loops {
			if other == l || !other.members[l.Header] {
				continue
			}
			if parent == nil || len(other.members) < len(parent.members) {
				parent = other
			}
		}
		l.Parent = parent
	}

	return &LoopForest{innermost: innermost, loops: loops}
}

// growLoopBody walks predecessors backward from u, adding every node
// reached to body without crossing the header v (§4.2).
func growLoopBody(g *Graph, body map[int]bool, u, v int) {
	var stack []int
	if !body[u] {
		body[u] = true
		stack = append(stack, u)
	}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Predecessors(x) {
			if body[p] {
				continue
			}
			body[p] = true
			if p != v {
				stack = append(stack, p)
			}
		}
	}
}

// InnermostLoop returns the innermost natural loop containing the
// indexed block, or nil if it belongs to no loop.
func (f *LoopForest) InnermostLoop(block int) *Loop {
	if block < 0 || block >= len(f.innermost) {
		return nil
	}
	return f.innermost[block]
}

// Loops returns every natural loop found, in ascending body-size order
// (innermost first among any nesting chain).
func (f *LoopForest) Loops() []*Loop { return f.loops }

// IsSingleBlockLoop reports whether block has a self-loop edge, which
// §4.4/§4.6 treat as a one-node While even though it forms no back edge
// into a distinct predecessor set.
func IsSingleBlockLoop(g *Graph, block int) bool {
	for _, s := range g.Successors(block) {
		if s == block {
			return true
		}
	}
	return false
}
