// Package gen drives the statement generator (§4.4): it walks indexed
// blocks in order, opens and closes lexical Block/While scopes from the
// range tree, lowers each block's instructions, and resolves jumps to
// the innermost enclosing scope whose end matches the jump target. It is
// the Go home of org.teavm.ast.decompilation.Decompiler's per-block main
// loop and of the try-catch bookmarker (§4.5, see bookmark.go).
package gen

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/aheadvm/declc/decompile/graph"
	"github.com/aheadvm/declc/decompile/ir"
	"github.com/aheadvm/declc/decompile/rangetree"
)

// install records where a lexBlock was installed into the block map so
// it can be restored to whatever was there before (§9: arena + index).
type install struct {
	index int
	prev  *lexBlock
}

// lexBlock is the output frame described in §3: a mutable body list with
// an optional parent, active try-catch bookmarks, and the indexed
// [start,end) it covers.
type lexBlock struct {
	statement ir.IdentifiedStatement
	body      *[]ir.Statement

	start, end int

	tryCatches []*bookmark
	installs   []install
}

func (b *lexBlock) id() string { return b.statement.ID() }

func (b *lexBlock) installTo(index int, blockMap []*lexBlock) {
	b.installs = append(b.installs, install{index: index, prev: blockMap[index]})
	blockMap[index] = b
}

func (b *lexBlock) removeFrom(blockMap []*lexBlock) {
	for _, in := range b.installs {
		blockMap[in.index] = in.prev
	}
	b.installs = nil
}

func isWhile(s ir.IdentifiedStatement) bool {
	_, ok := s.(*ir.While)
	return ok
}

// Generator holds everything the per-block loop needs (§3, §4.4). A
// fresh Generator is built per method part, never shared between
// concurrent calls (§5).
type Generator struct {
	program     *ir.Program
	classSource ir.ClassSource
	targetPart  []int // per original block id, -1 if no part transition
	async       bool

	indexer *graph.Indexer
	ig      *graph.Graph
	forest  *graph.LoopForest
	tree    *rangetree.Tree

	blockMap []*lexBlock // by original block id
	stack    []*lexBlock
	lastID   int

	exceptionHandler []bool

	// nextOriginal is the original block id the linear order falls
	// through to after the block currently being lowered, or -1 at the
	// last indexed position. An unconditional Jump instruction that
	// targets it is redundant — control already reaches it by falling
	// off the end of the generated body — and is elided rather than
	// resolved (§4.4 step 4).
	nextOriginal int
}

// Generate lowers p into one Statement tree (§4.4). targetPart is
// indexed by original block id and is nil for synchronous methods;
// async is true for every part of a split method, the entry part
// included. It is recorded on the Generator; a part's lowering may
// reference resume state a real instruction set would supply (§4.6,
// SPEC_FULL.md §8 scenario 5).
func Generate(p *ir.Program, classSource ir.ClassSource, targetPart []int, async bool) (ir.Statement, error) {
	if classSource == nil {
		classSource = ir.NilClassSource{}
	}
	if targetPart == nil {
		targetPart = make([]int, p.BasicBlockCount())
		for i := range targetPart {
			targetPart[i] = -1
		}
	}

	g := graph.Build(p)

	weights := make([]int, g.Size())
	priorities := make([]int, g.Size())
	for i, b := range p.Blocks {
		weights[i] = len(b.Instructions)
		if targetPart[i] >= 0 {
			priorities[i] = 1
		}
	}

	idx, err := graph.Index(g, weights, priorities)
	if err != nil {
		return nil, err
	}
	ig := idx.Graph()
	forest := graph.BuildLoopForest(ig)

	n := idx.Size()
	tree := rangetree.New(n+1, buildRanges(ig, forest))

	gen := &Generator{
		program:          p,
		classSource:      classSource,
		targetPart:       targetPart,
		async:            async,
		indexer:          idx,
		ig:               ig,
		forest:           forest,
		tree:             tree,
		blockMap:         make([]*lexBlock, p.BasicBlockCount()),
		exceptionHandler: markExceptionHandlers(p),
	}

	root := &lexBlock{body: new([]ir.Statement), start: -1, end: -1}
	gen.stack = []*lexBlock{root}

	parentNode := tree.Root
	currentNode := tree.Root.FirstChild

	for i := 0; i < n; i++ {
		node := idx.NodeAt(i)

		next := i + 1
		if head, ok := gen.loopHeadOf(i); ok {
			if hLoop := gen.forest.InnermostLoop(head); hLoop != nil && hLoop.End() == next {
				next = head
			}
		}
		var nextOrig int = -1
		if next < n {
			nextOrig = idx.NodeAt(next)
		}

		top := gen.stack[len(gen.stack)-1]

		for parentNode.End == i {
			currentNode = parentNode.Next
			parentNode = parentNode.Parent
		}

		var opened []*lexBlock
		for currentNode != nil && currentNode.Start == i {
			blk := gen.newLexBlock(i, currentNode.End)
			opened = append(opened, blk)

			if mapped := idx.NodeAt(currentNode.End); mapped >= 0 {
				if existing := gen.blockMap[mapped]; existing == nil || !isWhile(existing.statement) {
					blk.installTo(mapped, gen.blockMap)
				}
			}
			if _, isLoop := blk.statement.(*ir.While); isLoop {
				if origHeader := idx.NodeAt(i); origHeader >= 0 {
					blk.installTo(origHeader, gen.blockMap)
				}
			}

			parentNode = currentNode
			currentNode = currentNode.FirstChild
		}
		for _, blk := range opened {
			id := gen.nextID()
			switch s := blk.statement.(type) {
			case *ir.Block:
				s.Id = id
			case *ir.While:
				s.Id = id
			}
			*top.body = append(*top.body, blk.statement)
			gen.stack = append(gen.stack, blk)
			top = blk
		}

		if node >= 0 {
			b := p.Blocks[node]
			if err := gen.closeExpiredBookmarks(top, b.TryCatch); err != nil {
				return nil, err
			}
			gen.createNewBookmarks(top, b.TryCatch)

			gen.nextOriginal = nextOrig
			stmts, err := gen.lowerBlock(node)
			if err != nil {
				return nil, err
			}

			*top.body = append(*top.body, stmts...)
			if targetPart[node] >= 0 {
				*top.body = append(*top.body, &ir.GotoPart{Part: targetPart[node]})
			}
		}

		for top.end == i+1 {
			old := top
			gen.stack = gen.stack[:len(gen.stack)-1]
			top = gen.stack[len(gen.stack)-1]

			for j := len(old.tryCatches) - 1; j >= 0; j-- {
				if err := gen.resolveBookmark(old, old.tryCatches[j]); err != nil {
					return nil, err
				}
			}
			old.tryCatches = nil

			old.removeFrom(gen.blockMap)
		}

		if nextOrig >= 0 && !gen.isTrivialBlock(nextOrig) {
			if err := gen.closeExpiredBookmarks(top, p.Blocks[nextOrig].TryCatch); err != nil {
				return nil, err
			}
		}
	}

	return &ir.Sequential{Body: *root.body}, nil
}

func (gen *Generator) newLexBlock(start, end int) *lexBlock {
	isLoop := false
	if l := gen.forest.InnermostLoop(start); l != nil && l.Header == start && l.End() == end {
		isLoop = true
	}
	if graph.IsSingleBlockLoop(gen.ig, start) {
		isLoop = true
	}

	if isLoop {
		w := &ir.While{}
		return &lexBlock{statement: w, body: &w.Body, start: start, end: end}
	}
	b := &ir.Block{}
	return &lexBlock{statement: b, body: &b.Body, start: start, end: end}
}

func (gen *Generator) nextID() string {
	gen.lastID++
	return fmt.Sprintf("block%d", gen.lastID)
}

// loopHeadOf mirrors the original `loops[i]` array (§4.2/§9): the header
// of the loop containing indexed position i, excluding i itself when i
// is a header (in which case its *parent* loop's header is returned, or
// none if i heads a top-level loop).
func (gen *Generator) loopHeadOf(i int) (head int, ok bool) {
	l := gen.forest.InnermostLoop(i)
	if l == nil {
		return -1, false
	}
	if l.Header != i {
		return l.Header, true
	}
	if l.Parent == nil {
		return -1, false
	}
	return l.Parent.Header, true
}

func markExceptionHandlers(p *ir.Program) []bool {
	out := make([]bool, p.BasicBlockCount())
	for _, b := range p.Blocks {
		for _, tc := range b.TryCatch {
			out[tc.HandlerBlock] = true
		}
	}
	return out
}

func buildRanges(ig *graph.Graph, forest *graph.LoopForest) []rangetree.Range {
	n := ig.Size()
	var ranges []rangetree.Range

	for v := 0; v < n; v++ {
		predStart := n
		for _, u := range ig.Predecessors(v) {
			if u < predStart {
				predStart = u
			}
		}
		if predStart < v-1 {
			ranges = append(ranges, rangetree.Range{Start: predStart, End: v})
		}
	}
	for _, l := range forest.Loops() {
		// A self-loop is already a one-member natural loop found by the
		// back-edge scan (v == u counts as retreating), so it needs no
		// separate range source — adding one here would nest two
		// identical-bounds ranges and open the same While twice.
		ranges = append(ranges, rangetree.Range{Start: l.Header, End: l.End()})
	}
	return ranges
}

// generateJumpStatement resolves a jump to original block target into a
// structured JumpStmt naming the innermost enclosing lexical block whose
// end equals target (§4.4 tie-break 3). A While is installed at both its
// start (continue) and its end (break); which one target resolves to
// depends on target's own indexed position, not the lexBlock identity,
// since both installs point at the same object.
func (gen *Generator) generateJumpStatement(target int) (*ir.JumpStmt, error) {
	blk := gen.blockMap[target]
	if blk == nil {
		return nil, errors.New("no enclosing lexical block maps to block %d", target)
	}
	cont := false
	if isWhile(blk.statement) {
		if pos := gen.indexer.IndexOf(target); pos == blk.start {
			cont = true
		}
	}
	return &ir.JumpStmt{Target: blk.id(), Continue: cont}, nil
}

func wrapErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, format, args...)
}
