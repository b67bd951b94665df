package regalloc

import "nikand.dev/go/heap"

// Allocation maps each variable slot to a physical register number
// (§4.8). No spilling is modelled: the target register file is assumed
// large enough, consistent with §4.8's silence on spill code — a real
// backend bounding the file to a fixed count is a collaborator concern.
type Allocation struct {
	Register []int
}

// Allocate colours g greedily over a simplification order (§4.8): nodes
// are removed from lowest current degree to highest (ties broken by
// variable id) onto an explicit stack, then coloured in reverse removal
// order — each node gets the lowest register number not already used by
// an already-coloured neighbour. No recursion over graph size, matching
// the teacher's own iterative style in compiler/back.
func Allocate(g *Graph, n int) *Allocation {
	order := simplifyOrder(g, n)

	reg := make([]int, n)
	for i := range reg {
		reg[i] = -1
	}

	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		used := map[int]bool{}
		for _, nb := range g.Neighbors(v) {
			if reg[nb] >= 0 {
				used[reg[nb]] = true
			}
		}
		r := 0
		for used[r] {
			r++
		}
		reg[v] = r
	}

	return &Allocation{Register: reg}
}

// simplifyOrder repeatedly removes the not-yet-removed variable of
// lowest current degree, pushing it onto the returned stack, and
// records the removal's effect on its neighbours' degrees. A fresh
// min-degree heap is built each round from the surviving variables
// (§4.8's "greedy simplify/colour ordering"); there is no register
// budget to force a spill, so every variable is eventually removed.
func simplifyOrder(g *Graph, n int) []int {
	degree := make([]int, n)
	removed := make([]bool, n)
	for v := 0; v < n; v++ {
		degree[v] = g.Degree(v)
	}

	stack := make([]int, 0, n)
	remaining := n

	for remaining > 0 {
		h := heap.Heap[int]{Less: func(d []int, i, j int) bool {
			return degree[d[i]] < degree[d[j]]
		}}
		for v := 0; v < n; v++ {
			if !removed[v] {
				h.Push(v)
			}
		}

		v := h.Pop()
		removed[v] = true
		remaining--
		stack = append(stack, v)

		for _, nb := range g.Neighbors(v) {
			if !removed[nb] {
				degree[nb]--
			}
		}
	}

	return stack
}
