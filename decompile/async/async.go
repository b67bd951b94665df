// Package async implements the AsyncSplitter contract (§4.6, §6): given
// a program with suspension points (ir.InvokeAsync instructions), it
// partitions it into an ordered sequence of independently decompilable
// sub-programs, plus the per-block targetPart mapping decompile/gen
// turns into injected GotoPart statements. It is the Go home of
// org.teavm.model.util.AsyncProgramSplitter's public shape.
//
// The partitioning algorithm here only handles the straight-line case:
// a suspension point whose continuation does not loop back across the
// cut. A suspension point nested inside a loop, or one whose handler is
// shared with code before the cut, is a real-world hard problem
// explicitly left to a fuller collaborator (§1, §4.6); PassSplitter
// reports ErrUnsupportedSplit rather than emit a program that silently
// drops control flow.
package async

import (
	"sort"

	"tlog.app/go/errors"

	"github.com/aheadvm/declc/decompile/ir"
)

// ErrUnsupportedSplit is returned when a suspension point's continuation
// cannot be cleanly separated into its own part by this splitter.
var ErrUnsupportedSplit = errors.New("async split not supported for this control-flow shape")

// subProgram is the concrete ir.SubProgram PassSplitter produces.
type subProgram struct {
	program   *ir.Program
	successors []int
}

func (s *subProgram) Program() *ir.Program   { return s.program }
func (s *subProgram) BlockSuccessors() []int { return s.successors }

// PassSplitter is the reference AsyncSplitter (§4.6, §6). A method with
// no InvokeAsync instructions splits into a single unchanged part.
type PassSplitter struct{}

// Split implements ir.AsyncSplitter.
func (PassSplitter) Split(p *ir.Program) ([]ir.SubProgram, error) {
	cutBlock, cutPos := findSplitPoint(p)
	if cutBlock < 0 {
		return []ir.SubProgram{&subProgram{
			program:    p,
			successors: trivialSuccessors(p),
		}}, nil
	}

	head := p.Blocks[cutBlock].Instructions[:cutPos+1]
	tail := p.Blocks[cutBlock].Instructions[cutPos+1:]

	reachable := reachableFrom(p, ir.Successors(p.Blocks[cutBlock].Terminator(), -1))
	if reachable[cutBlock] {
		return nil, errors.Wrap(ErrUnsupportedSplit, "block %d loops back to its own suspension point", cutBlock)
	}
	delete(reachable, cutBlock)

	n := p.BasicBlockCount()
	var before []int
	for id := 0; id < n; id++ {
		if id == cutBlock || reachable[id] {
			continue
		}
		before = append(before, id)
	}
	sort.Ints(before)

	var after []int
	for id := range reachable {
		after = append(after, id)
	}
	sort.Ints(after)

	part0Order := append([]int{}, before...)
	part0Order = insertSorted(part0Order, cutBlock)
	part1Order := append([]int{cutBlock}, after...)

	part0, map0, err := remapProgram(p, part0Order, map[int][]ir.Instruction{cutBlock: head})
	if err != nil {
		return nil, errors.Wrap(err, "splitting part 0")
	}
	part1, _, err := remapProgram(p, part1Order, map[int][]ir.Instruction{cutBlock: tail})
	if err != nil {
		return nil, errors.Wrap(err, "splitting part 1")
	}

	succ0 := make([]int, part0.BasicBlockCount())
	for i := range succ0 {
		succ0[i] = -1
	}
	succ0[map0[cutBlock]] = 1

	succ1 := trivialSuccessors(part1)

	return []ir.SubProgram{
		&subProgram{program: part0, successors: succ0},
		&subProgram{program: part1, successors: succ1},
	}, nil
}

func trivialSuccessors(p *ir.Program) []int {
	succ := make([]int, p.BasicBlockCount())
	for i := range succ {
		succ[i] = -1
	}
	return succ
}

// findSplitPoint returns the first block and instruction index holding
// an InvokeAsync that is not already its block's last instruction, in
// original block order, or (-1, -1) if none exists.
func findSplitPoint(p *ir.Program) (block, pos int) {
	for i, b := range p.Blocks {
		for j, insn := range b.Instructions {
			if _, ok := insn.(ir.InvokeAsync); ok && j != len(b.Instructions)-1 {
				return i, j
			}
		}
	}
	return -1, -1
}

// reachableFrom does a forward BFS over terminator successors and
// try-catch handler edges starting from roots, not including blocks
// only reachable by looping back to a root itself.
func reachableFrom(p *ir.Program, roots []int) map[int]bool {
	seen := map[int]bool{}
	var queue []int
	for _, r := range roots {
		if !seen[r] {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		b := p.Blocks[u]
		next := append([]int{}, ir.Successors(b.Terminator(), -1)...)
		for _, tc := range b.TryCatch {
			next = append(next, tc.HandlerBlock)
		}
		for _, v := range next {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}
	return seen
}

func insertSorted(xs []int, v int) []int {
	i := sort.SearchInts(xs, v)
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = v
	return xs
}

// remapProgram builds a fresh Program containing exactly the blocks
// named by order (new id = position in order), substituting overridden
// instruction lists where given, and rewriting every jump target and
// try-catch handler through the old->new id mapping. It fails with
// ErrUnsupportedSplit if any instruction or handler in the selected
// blocks targets a block outside the set.
func remapProgram(p *ir.Program, order []int, overrides map[int][]ir.Instruction) (*ir.Program, map[int]int, error) {
	oldToNew := make(map[int]int, len(order))
	for newID, oldID := range order {
		oldToNew[oldID] = newID
	}

	remap := func(old int) (int, error) {
		n, ok := oldToNew[old]
		if !ok {
			return 0, errors.Wrap(ErrUnsupportedSplit, "block %d falls outside its assigned part", old)
		}
		return n, nil
	}

	blocks := make([]*ir.BasicBlock, len(order))
	for newID, oldID := range order {
		src := p.Blocks[oldID]
		insns := src.Instructions
		if ov, ok := overrides[oldID]; ok {
			insns = ov
		}

		remapped := make([]ir.Instruction, len(insns))
		for i, insn := range insns {
			r, err := remapInstruction(insn, remap)
			if err != nil {
				return nil, nil, err
			}
			remapped[i] = r
		}

		tryCatch := make([]ir.TryCatchRange, len(src.TryCatch))
		for i, tc := range src.TryCatch {
			h, err := remap(tc.HandlerBlock)
			if err != nil {
				return nil, nil, err
			}
			tryCatch[i] = ir.TryCatchRange{ExceptionType: tc.ExceptionType, HandlerBlock: h, ExceptionVar: tc.ExceptionVar}
		}

		blocks[newID] = &ir.BasicBlock{
			Index:             newID,
			Instructions:      remapped,
			ExceptionVariable: src.ExceptionVariable,
			TryCatch:          tryCatch,
		}
	}

	return &ir.Program{Blocks: blocks, Variables: p.Variables}, oldToNew, nil
}

func remapInstruction(insn ir.Instruction, remap func(int) (int, error)) (ir.Instruction, error) {
	switch x := insn.(type) {
	case ir.Jump:
		t, err := remap(x.Target)
		if err != nil {
			return nil, err
		}
		return ir.Jump{Target: t}, nil

	case ir.BranchIf:
		then, err := remap(x.Then)
		if err != nil {
			return nil, err
		}
		els, err := remap(x.Else)
		if err != nil {
			return nil, err
		}
		return ir.BranchIf{Cond: x.Cond, Then: then, Else: els}, nil

	case ir.Switch:
		cases := make([]ir.SwitchCase, len(x.Cases))
		for i, c := range x.Cases {
			t, err := remap(c.Target)
			if err != nil {
				return nil, err
			}
			cases[i] = ir.SwitchCase{Value: c.Value, Target: t}
		}
		def, err := remap(x.Default)
		if err != nil {
			return nil, err
		}
		return ir.Switch{Value: x.Value, Cases: cases, Default: def}, nil

	default:
		return insn, nil
	}
}
