package decompile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aheadvm/declc/decompile/ir"
)

func intp(v int) *int { return &v }

func simpleLoopProgram() *ir.Program {
	return &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.Jump{Target: 1}}},
			{Index: 1, Instructions: []ir.Instruction{ir.BranchIf{Cond: 0, Then: 1, Else: 2}}},
			{Index: 2, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
		},
	}
}

// TestSimpleLoop is scenario 1: B0 -> B1, B1 -> B1|B2, B2 -> ret. B0's
// jump into the loop header falls through and is elided; the header's
// branch resolves to the same lexical label for both arms, told apart
// by Continue.
func TestSimpleLoop(t *testing.T) {
	p := simpleLoopProgram()

	d := New(nil)
	node, err := d.DecompileRegular(context.Background(), ir.MethodReference{Name: "loop"}, p, ir.DecompilerOptions{})
	require.NoError(t, err)

	seq, ok := node.Body.(*ir.Sequential)
	require.True(t, ok, "body should be a Sequential")
	require.Len(t, seq.Body, 2)

	while, ok := seq.Body[0].(*ir.While)
	require.True(t, ok, "first statement should be the loop")
	require.Len(t, while.Body, 1)

	ifStmt, ok := while.Body[0].(*ir.IfStmt)
	require.True(t, ok)

	then, ok := ifStmt.Then.(*ir.JumpStmt)
	require.True(t, ok)
	require.Equal(t, while.Id, then.Target)
	require.True(t, then.Continue, "the true branch re-enters the loop header")

	els, ok := ifStmt.Else.(*ir.JumpStmt)
	require.True(t, ok)
	require.Equal(t, while.Id, els.Target)
	require.False(t, els.Continue, "the false branch breaks out of the loop")

	_, ok = seq.Body[1].(*ir.ReturnStmt)
	require.True(t, ok, "second statement should be the plain return")

	require.Equal(t, 0, node.Variables[0].Register, "the loop counter gets colour 0")
}

// TestSelfLoop is scenario 6: B0 -> B0|B1, a one-block loop. The same
// dual blockMap install that a multi-block loop gets applies here too.
func TestSelfLoop(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.BranchIf{Cond: 0, Then: 0, Else: 1}}},
			{Index: 1, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
		},
	}

	d := New(nil)
	node, err := d.DecompileRegular(context.Background(), ir.MethodReference{Name: "selfloop"}, p, ir.DecompilerOptions{})
	require.NoError(t, err)

	seq, ok := node.Body.(*ir.Sequential)
	require.True(t, ok)
	require.Len(t, seq.Body, 2)

	while, ok := seq.Body[0].(*ir.While)
	require.True(t, ok)
	require.Len(t, while.Body, 1)

	ifStmt := while.Body[0].(*ir.IfStmt)

	then := ifStmt.Then.(*ir.JumpStmt)
	require.Equal(t, while.Id, then.Target)
	require.True(t, then.Continue)

	els := ifStmt.Else.(*ir.JumpStmt)
	require.Equal(t, while.Id, els.Target)
	require.False(t, els.Continue)

	_, ok = seq.Body[1].(*ir.ReturnStmt)
	require.True(t, ok)
}

// TestTryCatch is scenario 3: B0 -> B1, B1 guarded by handler H of type
// E, B1 -> B2, H -> ret. Expect TryCatch(type="E", var=0,
// handler=Jump(h_label)) wrapping B1's body, with B2's and H's own
// statements emitted as ordinary statements wherever traversal reaches
// them — never folded into the TryCatch itself.
func TestTryCatch(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.Jump{Target: 1}}},
			{
				Index: 1,
				Instructions: []ir.Instruction{
					ir.Const{Dest: 0, Kind: ir.KindInt32, Value: int32(1)},
					ir.Jump{Target: 2},
				},
				TryCatch: []ir.TryCatchRange{{ExceptionType: "E", HandlerBlock: 3, ExceptionVar: intp(0)}},
			},
			{Index: 2, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
			{
				Index:             3,
				ExceptionVariable: intp(0),
				Instructions:      []ir.Instruction{ir.Throw{Value: 0}},
			},
		},
	}

	d := New(nil)
	node, err := d.DecompileRegular(context.Background(), ir.MethodReference{Name: "trycatch"}, p, ir.DecompilerOptions{})
	require.NoError(t, err)

	seq, ok := node.Body.(*ir.Sequential)
	require.True(t, ok)
	require.NotEmpty(t, seq.Body)

	// The TryCatch lives inside whatever lexical wrapper the range tree
	// gave the protected-plus-handler span; find it, and the statement
	// list it lives in, rather than assume a fixed nesting depth.
	var tc *ir.TryCatch
	var container []ir.Statement
	var walk func(stmts []ir.Statement)
	walk = func(stmts []ir.Statement) {
		for _, s := range stmts {
			switch x := s.(type) {
			case *ir.TryCatch:
				tc = x
				container = stmts
			case *ir.Block:
				walk(x.Body)
			case *ir.While:
				walk(x.Body)
			}
		}
	}
	walk(seq.Body)
	require.NotNil(t, tc, "a TryCatch statement should be present")

	require.Equal(t, "E", tc.ExceptionType)
	require.NotNil(t, tc.ExceptionVar)
	require.Equal(t, 0, *tc.ExceptionVar)

	require.Len(t, tc.Protected, 1, "B1's own Jump falls through to B2 and is elided, leaving only its Const")
	_, ok = tc.Protected[0].(*ir.AssignStmt)
	require.True(t, ok, "B1's Const lowers to an AssignStmt")

	require.Len(t, tc.Handler, 1, "the handler is a Jump to the handler block's label, not its inlined body")
	jump, ok := tc.Handler[0].(*ir.JumpStmt)
	require.True(t, ok, "handler=Jump(h_label)")
	require.False(t, jump.Continue)

	// B2's Return is a sibling of the TryCatch, never inside its
	// protected region or handler.
	require.Contains(t, container, tc)
	var foundReturn bool
	for _, s := range container {
		if _, ok := s.(*ir.ReturnStmt); ok {
			foundReturn = true
		}
	}
	require.True(t, foundReturn, "B2's Return should be emitted as a normal statement alongside the TryCatch")

	// The handler block's own statements — BindException then Throw —
	// are emitted normally wherever traversal reaches block 3, not
	// routed into tc.Handler.
	var bind *ir.BindException
	var throw *ir.ThrowStmt
	var findHandlerBody func(stmts []ir.Statement)
	findHandlerBody = func(stmts []ir.Statement) {
		for _, s := range stmts {
			switch x := s.(type) {
			case *ir.BindException:
				bind = x
			case *ir.ThrowStmt:
				throw = x
			case *ir.Block:
				findHandlerBody(x.Body)
			case *ir.While:
				findHandlerBody(x.Body)
			}
		}
	}
	findHandlerBody(seq.Body)
	require.NotNil(t, bind, "the handler binds its exception variable")
	require.Equal(t, 0, bind.Variable)
	require.NotNil(t, throw, "the handler's own body is emitted as a normal labelled block")
	require.Equal(t, 0, throw.Value)
}

// TestIrreducibleControlFlow is scenario 4: a cycle entered from two
// distinct points has no valid linearisation.
func TestIrreducibleControlFlow(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.BranchIf{Cond: 0, Then: 1, Else: 2}}},
			{Index: 1, Instructions: []ir.Instruction{ir.Jump{Target: 3}}},
			{Index: 2, Instructions: []ir.Instruction{ir.Jump{Target: 3}}},
			{Index: 3, Instructions: []ir.Instruction{ir.BranchIf{Cond: 0, Then: 1, Else: 2}}},
		},
	}

	d := New(nil)
	_, err := d.DecompileRegular(context.Background(), ir.MethodReference{Name: "irreducible"}, p, ir.DecompilerOptions{})
	require.Error(t, err)

	de, ok := err.(*DecompilationError)
	require.True(t, ok, "failure should be a DecompilationError")
	require.Equal(t, ErrIrreducibleControlFlow, de.Kind)
	require.NotEmpty(t, de.Listing)
}

// TestStraightLineRoundTrip checks the round-trip property: a method
// with a single basic block lowers to one statement per instruction and
// no lexical wrapper at all.
func TestStraightLineRoundTrip(t *testing.T) {
	p := &ir.Program{
		Variables: 2,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{
				ir.Const{Dest: 0, Kind: ir.KindInt32, Value: int32(1)},
				ir.BinOp{Dest: 1, Left: 0, Right: 0, Op: "+", Kind: ir.KindInt32},
				ir.Return{Value: 1, HasValue: true},
			}},
		},
	}

	d := New(nil)
	node, err := d.DecompileRegular(context.Background(), ir.MethodReference{Name: "straight"}, p, ir.DecompilerOptions{})
	require.NoError(t, err)

	seq, ok := node.Body.(*ir.Sequential)
	require.True(t, ok)
	require.Len(t, seq.Body, 3)
	for _, s := range seq.Body {
		switch s.(type) {
		case *ir.Block, *ir.While:
			t.Fatalf("straight-line code should not open a lexical wrapper, got %T", s)
		}
	}
}

// TestAsyncSplitTrivial checks that a method with no suspension point
// splits into exactly one unchanged part.
func TestAsyncSplitTrivial(t *testing.T) {
	p := &ir.Program{
		Variables: 1,
		Blocks: []*ir.BasicBlock{
			{Index: 0, Instructions: []ir.Instruction{ir.Return{HasValue: false}}},
		},
	}

	d := New(nil)
	node, err := d.DecompileAsync(context.Background(), ir.MethodReference{Name: "asyncless"}, p, ir.DecompilerOptions{})
	require.NoError(t, err)
	require.Len(t, node.Parts, 1)
}
