package regalloc

import "github.com/aheadvm/declc/decompile/ir"

// Graph is an interference graph over variable slots 0..n-1: an edge
// between a and b means they must not share a physical register. Two
// variables of different KindClass never interfere even if
// simultaneously live, since they occupy disjoint register files
// (§4.8).
type Graph struct {
	n   int
	adj []map[int]bool
}

// NewGraph allocates an empty interference graph over n variables.
func NewGraph(n int) *Graph {
	adj := make([]map[int]bool, n)
	for i := range adj {
		adj[i] = map[int]bool{}
	}
	return &Graph{n: n, adj: adj}
}

func (g *Graph) addEdge(a, b int) {
	if a == b {
		return
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

// Interferes reports whether a and b must not share a register.
func (g *Graph) Interferes(a, b int) bool { return g.adj[a][b] }

// Degree returns the number of variables a currently interferes with.
func (g *Graph) Degree(a int) int { return len(g.adj[a]) }

// Neighbors returns every variable a interferes with, in no particular
// order.
func (g *Graph) Neighbors(a int) []int {
	out := make([]int, 0, len(g.adj[a]))
	for b := range g.adj[a] {
		out = append(out, b)
	}
	return out
}

// Build constructs the interference graph of p from its liveness
// result: two variables interfere if they are simultaneously live at
// any program point and share a KindClass (§4.8). kindOf supplies each
// variable's VariableKind, typically from a decompile/typeinfer pass.
func Build(p *ir.Program, lv *Liveness, kindOf func(variable int) ir.VariableKind) *Graph {
	g := NewGraph(p.Variables)

	for i := range p.Blocks {
		for _, live := range lv.InstructionLiveSets(i) {
			var members []int
			live.Range(func(v int) bool {
				members = append(members, v)
				return true
			})
			for x := 0; x < len(members); x++ {
				for y := x + 1; y < len(members); y++ {
					a, b := members[x], members[y]
					if kindOf(a).Class() == kindOf(b).Class() {
						g.addEdge(a, b)
					}
				}
			}
		}
	}
	return g
}
