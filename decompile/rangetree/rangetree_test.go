package rangetree

import "testing"

// TestNewNestsSharedStart checks that two ranges sharing a start nest
// with the wider one as ancestor, rather than becoming siblings.
func TestNewNestsSharedStart(t *testing.T) {
	tree := New(5, []Range{
		{Start: 1, End: 4},
		{Start: 1, End: 2},
	})

	outer := tree.Root.FirstChild
	if outer == nil {
		t.Fatal("expected a child of the root")
	}
	if outer.Start != 1 || outer.End != 4 {
		t.Errorf("outer = [%d,%d), want [1,4)", outer.Start, outer.End)
	}
	if outer.Next != nil {
		t.Error("the narrower range should nest inside, not sit beside, the wider one")
	}

	inner := outer.FirstChild
	if inner == nil {
		t.Fatal("expected the narrower range nested under the wider one")
	}
	if inner.Start != 1 || inner.End != 2 {
		t.Errorf("inner = [%d,%d), want [1,2)", inner.Start, inner.End)
	}
	if inner.FirstChild != nil {
		t.Error("inner range should have no children")
	}
}

// TestNewSiblingsAfterClose checks that a range starting once a prior
// range has ended becomes a sibling, not a child.
func TestNewSiblingsAfterClose(t *testing.T) {
	tree := New(6, []Range{
		{Start: 0, End: 2},
		{Start: 2, End: 4},
	})

	first := tree.Root.FirstChild
	if first == nil || first.Start != 0 || first.End != 2 {
		t.Fatalf("first = %+v, want [0,2)", first)
	}
	second := first.Next
	if second == nil || second.Start != 2 || second.End != 4 {
		t.Fatalf("second = %+v, want [2,4)", second)
	}
	if first.FirstChild != nil {
		t.Error("the second range starts where the first ends, it should not nest inside it")
	}
}

// TestNewDeepNesting checks that three strictly nested ranges with
// distinct starts form a single chain, each level the only child of the
// level above.
func TestNewDeepNesting(t *testing.T) {
	tree := New(10, []Range{
		{Start: 0, End: 8},
		{Start: 1, End: 6},
		{Start: 2, End: 4},
	})

	l0 := tree.Root.FirstChild
	if l0 == nil || l0.Start != 0 || l0.End != 8 {
		t.Fatalf("level 0 = %+v, want [0,8)", l0)
	}
	l1 := l0.FirstChild
	if l1 == nil || l1.Start != 1 || l1.End != 6 {
		t.Fatalf("level 1 = %+v, want [1,6)", l1)
	}
	l2 := l1.FirstChild
	if l2 == nil || l2.Start != 2 || l2.End != 4 {
		t.Fatalf("level 2 = %+v, want [2,4)", l2)
	}
	if l2.Next != nil || l1.Next != nil {
		t.Error("each level should have exactly one child here, not a sibling")
	}
}

// TestNewEmptyRangesYieldsBareRoot checks a tree with no ranges is just
// the synthetic root spanning the whole program.
func TestNewEmptyRangesYieldsBareRoot(t *testing.T) {
	tree := New(5, nil)
	if tree.Root == nil {
		t.Fatal("expected a root")
	}
	if tree.Root.Start != 0 || tree.Root.End != 5 {
		t.Errorf("root = [%d,%d), want [0,5)", tree.Root.Start, tree.Root.End)
	}
	if tree.Root.FirstChild != nil {
		t.Error("expected no children")
	}
}
