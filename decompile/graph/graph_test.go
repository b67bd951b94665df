package graph

import "testing"

// TestIndexReducible linearises a small diamond-with-loop graph and
// checks the bijection is internally consistent.
func TestIndexReducible(t *testing.T) {
	g := New(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 1) // self-loop
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)

	idx, err := Index(g, []int{1, 1, 1, 1}, []int{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	for orig := 0; orig < 4; orig++ {
		i := idx.IndexOf(orig)
		if i < 0 {
			t.Fatalf("block %d not indexed", orig)
		}
		if idx.NodeAt(i) != orig {
			t.Errorf("NodeAt(IndexOf(%d))=%d, want %d", orig, idx.NodeAt(i), orig)
		}
	}
}

// TestIndexIrreducible checks the textbook two-entries-into-a-cycle
// graph is rejected.
func TestIndexIrreducible(t *testing.T) {
	g := New(4)
	g.AddEdge(0, 1)
	g.AddEdge(0, 2)
	g.AddEdge(1, 3)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)
	g.AddEdge(3, 2)

	_, err := Index(g, []int{1, 1, 1, 1}, []int{0, 0, 0, 0})
	if err != ErrIrreducible {
		t.Fatalf("Index: got %v, want ErrIrreducible", err)
	}
}

// TestBuildLoopForestSelfLoop checks a self-loop is found as a
// one-member natural loop.
func TestBuildLoopForestSelfLoop(t *testing.T) {
	g := New(2)
	g.AddEdge(0, 0)
	g.AddEdge(0, 1)

	forest := BuildLoopForest(g)

	l := forest.InnermostLoop(0)
	if l == nil {
		t.Fatal("expected block 0 to be in a loop")
	}
	if l.Header != 0 {
		t.Errorf("Header = %d, want 0", l.Header)
	}
	if l.End() != 1 {
		t.Errorf("End() = %d, want 1", l.End())
	}
	if !l.Contains(0) {
		t.Error("loop should contain its own header")
	}
	if forest.InnermostLoop(1) != nil {
		t.Error("block 1 should not be in any loop")
	}
}

// TestBuildLoopForestNested checks an outer loop containing a
// distinct-header inner loop reports the correct nesting: the inner
// loop's body is a subset of the outer's, and its Parent points back to
// the outer loop.
func TestBuildLoopForestNested(t *testing.T) {
	// 0 -> 1 -> 2 -> 3 -> 2 (inner back edge, header 2)
	//                3 -> 4 -> 1 (outer back edge, header 1) -> 5 (exit)
	g := New(6)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 2)
	g.AddEdge(3, 4)
	g.AddEdge(4, 1)
	g.AddEdge(4, 5)

	forest := BuildLoopForest(g)

	inner := forest.InnermostLoop(3)
	if inner == nil || inner.Header != 2 {
		t.Fatalf("innermost loop at 3 = %+v, want header 2", inner)
	}
	outer := forest.InnermostLoop(4)
	if outer == nil || outer.Header != 1 {
		t.Fatalf("innermost loop at 4 = %+v, want header 1", outer)
	}
	if inner.Parent != outer {
		t.Error("inner loop's Parent should be the outer loop")
	}
	if !outer.Contains(2) || !outer.Contains(3) {
		t.Error("outer loop's body should include the inner loop's blocks")
	}
	if forest.InnermostLoop(5) != nil {
		t.Error("block 5 is outside both loops")
	}
}

func TestIsSingleBlockLoop(t *testing.T) {
	g := New(2)
	g.AddEdge(0, 0)
	g.AddEdge(0, 1)

	if !IsSingleBlockLoop(g, 0) {
		t.Error("block 0 has a self edge, should report true")
	}
	if IsSingleBlockLoop(g, 1) {
		t.Error("block 1 has no self edge, should report false")
	}
}
