// Package regalloc implements the liveness analysis, interference-graph
// construction, and greedy colouring register allocator described in
// §4.7/§4.8. It is the Go home of the teacher's compiler/df dataflow
// vocabulary and compiler/set growable bitmap, adapted from expression
// dataflow facts to per-variable liveness over a decompile/ir.Program.
package regalloc

import "github.com/aheadvm/declc/decompile/ir"

// Set is a growable bitmap over small non-negative integers, the
// liveness-domain adaptation of the teacher's compiler/set.Bitmap
// (Set/Clear/IsSet/Or, grown on demand rather than fixed-size).
type Set struct {
	b []uint64
}

func (s Set) ij(i int) (int, int) { return i / 64, i % 64 }

// Set marks i live.
func (s *Set) Set(i int) {
	w, b := s.ij(i)
	s.grow(w)
	s.b[w] |= 1 << uint(b)
}

// Clear marks i dead.
func (s *Set) Clear(i int) {
	w, b := s.ij(i)
	if w >= len(s.b) {
		return
	}
	s.b[w] &^= 1 << uint(b)
}

// IsSet reports whether i is live.
func (s Set) IsSet(i int) bool {
	w, b := s.ij(i)
	if w >= len(s.b) {
		return false
	}
	return s.b[w]&(1<<uint(b)) != 0
}

// Union merges x into a fresh copy of s and returns it, leaving both
// operands unmodified (liveOut is the union over several successors).
func (s Set) Union(x Set) Set {
	cp := s.Copy()
	cp.grow(len(x.b) - 1)
	for i, w := range x.b {
		cp.b[i] |= w
	}
	return cp
}

// Equal reports whether s and x have the same members.
func (s Set) Equal(x Set) bool {
	n := len(s.b)
	if len(x.b) > n {
		n = len(x.b)
	}
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(s.b) {
			a = s.b[i]
		}
		if i < len(x.b) {
			b = x.b[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

func (s Set) Copy() Set {
	b := make([]uint64, len(s.b))
	copy(b, s.b)
	return Set{b: b}
}

// Range calls f for every set member in ascending order, stopping early
// if f returns false.
func (s Set) Range(f func(i int) bool) {
	for w, x := range s.b {
		if x == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			if x&(1<<uint(b)) == 0 {
				continue
			}
			if !f(w*64 + b) {
				return
			}
		}
	}
}

func (s *Set) grow(w int) {
	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}
}

// Liveness holds the per-block live-in/live-out variable sets computed
// by a backward dataflow fixpoint over the control-flow graph, including
// exception edges to handler blocks (§4.7: "successors plus exception
// edges" — the graph returned by graph.Build already carries those).
type Liveness struct {
	program  *ir.Program
	graph    successorSource
	liveIn   []Set
	liveOut  []Set
}

// successorSource is the minimal view Liveness needs of the CFG, so this
// package does not have to import decompile/graph for anything but this
// shape (avoiding a dependency edge that would otherwise be unused).
type successorSource interface {
	Successors(v int) []int
}

// Compute runs the liveness fixpoint over p using g's successor edges.
func Compute(p *ir.Program, g successorSource) *Liveness {
	n := p.BasicBlockCount()
	lv := &Liveness{
		program: p,
		graph:   g,
		liveIn:  make([]Set, n),
		liveOut: make([]Set, n),
	}

	changed := true
	for changed {
		changed = false
		for b := n - 1; b >= 0; b-- {
			var out Set
			for _, s := range g.Successors(b) {
				out = out.Union(lv.liveIn[s])
			}
			in := backwardBlock(p.Blocks[b], out)
			if !in.Equal(lv.liveIn[b]) || !out.Equal(lv.liveOut[b]) {
				lv.liveIn[b] = in
				lv.liveOut[b] = out
				changed = true
			}
		}
	}
	return lv
}

// backwardBlock runs one block's instructions in reverse starting from
// out, the classic use-then-kill backward step.
func backwardBlock(b *ir.BasicBlock, out Set) Set {
	live := out.Copy()
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		insn := b.Instructions[i]
		for _, d := range insn.Defs() {
			live.Clear(d)
		}
		for _, u := range insn.Uses() {
			live.Set(u)
		}
	}
	return live
}

// LiveIn returns the set of variables live on entry to block.
func (lv *Liveness) LiveIn(block int) Set { return lv.liveIn[block] }

// LiveOut returns the set of variables live on exit from block.
func (lv *Liveness) LiveOut(block int) Set { return lv.liveOut[block] }

// InstructionLiveSets returns len(block.Instructions)+1 sets: entry i is
// what's live immediately before instructions[i] executes (entry
// len(Instructions) is LiveOut(block)). Used by interference
// construction, which needs liveness at each program point rather than
// only at block boundaries (§4.8).
func (lv *Liveness) InstructionLiveSets(block int) []Set {
	b := lv.program.Blocks[block]
	sets := make([]Set, len(b.Instructions)+1)
	sets[len(b.Instructions)] = lv.liveOut[block]

	live := lv.liveOut[block].Copy()
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		insn := b.Instructions[i]
		for _, d := range insn.Defs() {
			live.Clear(d)
		}
		for _, u := range insn.Uses() {
			live.Set(u)
		}
		sets[i] = live.Copy()
	}
	return sets
}
