// Package rangetree builds the forest of nested lexical-scope candidates
// described in §4.3: loop ranges and forward-jump spans over indexed
// block positions, from which decompile/gen seeds one lexical Block or
// While per node. It is the Go home of org.teavm.common.RangeTree.
package rangetree

import "sort"

// Range is a candidate lexical scope [Start, End) over indexed
// positions.
type Range struct {
	Start, End int
}

// Node is one range-tree node, linked the way a DOM node is (Parent,
// FirstChild, Next sibling) so decompile/gen can walk it with a cursor
// instead of recursion (§9: "no recursion on graph depth").
type Node struct {
	Start, End int

	Parent     *Node
	FirstChild *Node
	Next       *Node
}

// Tree is the forest rooted at a synthetic node spanning the whole
// program.
type Tree struct {
	Root *Node
}

// New builds the tree over positions [0, size) from ranges, inserted
// ordered by start ascending, end descending (§4.3). Two ranges sharing
// a start are nested (the wider one is the ancestor), never siblings —
// decompile/gen relies on this to open several lexical blocks at the
// same index by repeatedly descending into FirstChild.
func New(size int, ranges []Range) *Tree {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	root := &Node{Start: 0, End: size}
	stack := []*Node{root}
	lastChild := map[*Node]*Node{}

	for _, r := range sorted {
		for len(stack) > 1 && stack[len(stack)-1].End <= r.Start {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		node := &Node{Start: r.Start, End: r.End, Parent: parent}
		if parent.FirstChild == nil {
			parent.FirstChild = node
		} else {
			lastChild[parent].Next = node
		}
		lastChild[parent] = node

		stack = append(stack, node)
	}

	return &Tree{Root: root}
}
