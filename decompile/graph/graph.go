// Package graph builds the control-flow graph over a program's basic
// blocks, linearises it into an index compatible with reducibility
// analysis (§4.1), and identifies natural loops over that index (§4.2).
// It is the Go home of org.teavm.common.Graph/GraphIndexer/LoopGraph from
// the original TeaVM decompiler this core was distilled from.
package graph

import "github.com/aheadvm/declc/decompile/ir"

// Graph is a directed graph over block indices 0..Size()-1. It is the
// decompiler's in-memory stand-in for the CFG-builder collaborator named
// in §2 item 1 — in a full system the CFG would be handed in by a
// separate dependency-analysis subsystem; here Build constructs it
// directly from a Program so the core is runnable end to end.
type Graph struct {
	succ [][]int
	pred [][]int
}

// New allocates an empty graph over n nodes.
func New(n int) *Graph {
	return &Graph{
		succ: make([][]int, n),
		pred: make([][]int, n),
	}
}

func (g *Graph) Size() int { return len(g.succ) }

// AddEdge records a directed edge u -> v. Duplicate edges are kept; the
// decompiler never relies on edge multiplicity mattering semantically,
// only on set membership, and callers that care can dedupe.
func (g *Graph) AddEdge(u, v int) {
	g.succ[u] = append(g.succ[u], v)
	g.pred[v] = append(g.pred[v], u)
}

func (g *Graph) Successors(v int) []int   { return g.succ[v] }
func (g *Graph) Predecessors(v int) []int { return g.pred[v] }

// Build constructs the control-flow graph of p: one edge to each handler
// block named by a block's active try-catch ranges, then one edge per
// terminator successor. Handler edges come first so that, among
// successors of equal weight, Index visits a handler first and so places
// it after the block's normal-flow successors.
func Build(p *ir.Program) *Graph {
	g := New(p.BasicBlockCount())
	for i, b := range p.Blocks {
		for _, tc := range b.TryCatch {
			g.AddEdge(i, tc.HandlerBlock)
		}
		for _, s := range ir.Successors(b.Terminator(), -1) {
			g.AddEdge(i, s)
		}
	}
	return g
}
