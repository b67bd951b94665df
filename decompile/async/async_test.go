package async

import (
	"errors"
	"testing"

	"github.com/aheadvm/declc/decompile/ir"
)

// TestSplitTrivial checks a program with no suspension point splits
// into a single unchanged part whose successors are all -1.
func TestSplitTrivial(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
		},
	}

	parts, err := PassSplitter{}.Split(p)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	for i, s := range parts[0].BlockSuccessors() {
		if s != -1 {
			t.Errorf("block %d successor = %d, want -1", i, s)
		}
	}
}

// TestSplitStraightLine checks a suspension point mid-block, with a
// continuation that does not loop back, splits cleanly into two parts
// wired together by a single GotoPart-style successor edge.
func TestSplitStraightLine(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{
				ir.InvokeAsync{Dest: 0, HasValue: true, Callee: "fetch"},
				ir.Return{Value: 0, HasValue: true},
			}},
		},
	}

	parts, err := PassSplitter{}.Split(p)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}

	part0 := parts[0].Program()
	if part0.BasicBlockCount() != 1 {
		t.Fatalf("part 0 has %d blocks, want 1", part0.BasicBlockCount())
	}
	if _, ok := part0.Blocks[0].Instructions[0].(ir.InvokeAsync); !ok {
		t.Errorf("part 0's block should retain the InvokeAsync, got %T", part0.Blocks[0].Instructions[0])
	}
	succ0 := parts[0].BlockSuccessors()
	if len(succ0) != 1 || succ0[0] != 1 {
		t.Errorf("part 0 successors = %v, want [1]", succ0)
	}

	part1 := parts[1].Program()
	if part1.BasicBlockCount() != 1 {
		t.Fatalf("part 1 has %d blocks, want 1", part1.BasicBlockCount())
	}
	if _, ok := part1.Blocks[0].Instructions[0].(ir.Return); !ok {
		t.Errorf("part 1's block should hold the continuation's Return, got %T", part1.Blocks[0].Instructions[0])
	}
}

// TestSplitUnsupportedWhenABlockOutsideReachJumpsAcrossTheCut checks
// that a block outside the cut's forward reach, which the split places
// in part 0 but which still jumps into the post-cut half, is rejected
// rather than silently remapped.
func TestSplitUnsupportedWhenABlockOutsideReachJumpsAcrossTheCut(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.Jump{Target: 1}}},
			{Index: 1, Instructions: []ir.Instruction{
				ir.InvokeAsync{Dest: 0, HasValue: false, Callee: "suspend"},
				ir.Jump{Target: 2},
			}},
			{Index: 2, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
			{Index: 3, Instructions: []ir.Instruction{ir.Jump{Target: 2}}},
		},
	}

	_, err := PassSplitter{}.Split(p)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, ErrUnsupportedSplit) {
		t.Errorf("got %v, want an error wrapping ErrUnsupportedSplit", err)
	}
}
