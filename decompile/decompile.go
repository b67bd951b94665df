package decompile

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/aheadvm/declc/decompile/async"
	"github.com/aheadvm/declc/decompile/gen"
	"github.com/aheadvm/declc/decompile/graph"
	"github.com/aheadvm/declc/decompile/ir"
	"github.com/aheadvm/declc/decompile/optimize"
	"github.com/aheadvm/declc/decompile/regalloc"
	"github.com/aheadvm/declc/decompile/typeinfer"
)

// Decompiler turns a Program into a structured MethodNode (§2, §6). It
// carries only its collaborators, never mutable per-call state — a
// single Decompiler is shared by every concurrent DecompileRegular/
// DecompileAsync call (§5).
type Decompiler struct {
	ClassSource ir.ClassSource
	TypeInferer ir.TypeInferer
	AsyncSplit  ir.AsyncSplitter
	Optimizer   ir.Optimizer
}

// New returns a Decompiler with the default collaborators wired in:
// typeinfer.DefaultInferer, async.PassSplitter, optimize.IdentityOptimizer.
func New(classSource ir.ClassSource) *Decompiler {
	if classSource == nil {
		classSource = ir.NilClassSource{}
	}
	return &Decompiler{
		ClassSource: classSource,
		TypeInferer: &typeinfer.DefaultInferer{},
		AsyncSplit:  async.PassSplitter{},
		Optimizer:   optimize.IdentityOptimizer{},
	}
}

// DecompileRegular decompiles a method with no suspension points into a
// single structured body (§4.4, §6).
func (d *Decompiler) DecompileRegular(ctx context.Context, method ir.MethodReference, p *ir.Program, opts ir.DecompilerOptions) (*ir.RegularMethodNode, error) {
	sp := tlog.SpanFromContext(ctx)
	sp.Printw("decompile regular", "method", method, "blocks", p.BasicBlockCount(), "from", loc.Caller(1))

	variables, err := d.analyzeVariables(ctx, method, p)
	if err != nil {
		return nil, err
	}

	body, err := d.generatePart(ctx, method, p, nil, false)
	if err != nil {
		return nil, err
	}

	node := &ir.RegularMethodNode{
		Method:    method,
		Body:      body,
		Variables: variables,
	}

	if d.Optimizer != nil {
		if err := d.Optimizer.Optimize(node, p, opts.FriendlyToDebugger); err != nil {
			return nil, fail(method, p, ErrInstructionLowering, errors.Wrap(err, "optimize"))
		}
	}

	return node, nil
}

// DecompileAsync decompiles a method containing suspension points into
// an ordered sequence of parts (§4.6, §6). Type inference and register
// allocation run once over the original, pre-split program p — not over
// each renumbered sub-program — since liveness across a suspension point
// is only meaningful against the program the split is derived from
// (§4.7); async.PassSplitter's remapProgram carries p.Variables through
// unchanged, renumbering only blocks, so the resulting table applies
// directly to every part's body.
func (d *Decompiler) DecompileAsync(ctx context.Context, method ir.MethodReference, p *ir.Program, opts ir.DecompilerOptions) (*ir.AsyncMethodNode, error) {
	sp := tlog.SpanFromContext(ctx)
	sp.Printw("decompile async", "method", method, "blocks", p.BasicBlockCount(), "from", loc.Caller(1))

	if d.AsyncSplit == nil {
		return nil, fail(method, p, ErrAsyncSplit, errors.New("no async splitter configured"))
	}

	subPrograms, err := d.AsyncSplit.Split(p)
	if err != nil {
		return nil, fail(method, p, ErrAsyncSplit, err)
	}

	variables, err := d.analyzeVariables(ctx, method, p)
	if err != nil {
		return nil, err
	}

	node := &ir.AsyncMethodNode{
		Method:    method,
		Parts:     make([]ir.MethodPart, len(subPrograms)),
		Variables: variables,
	}

	for i, sub := range subPrograms {
		body, err := d.generatePart(ctx, method, sub.Program(), sub.BlockSuccessors(), true)
		if err != nil {
			return nil, errors.Wrap(err, "part %d", i)
		}
		node.Parts[i] = ir.MethodPart{Body: body}
	}

	if d.Optimizer != nil {
		if err := d.Optimizer.Optimize(node, p, opts.FriendlyToDebugger); err != nil {
			return nil, fail(method, p, ErrInstructionLowering, errors.Wrap(err, "optimize"))
		}
	}

	return node, nil
}

// analyzeVariables runs type inference and register allocation over p
// and returns the resulting variable table (§4.7, §4.8, §4.9).
func (d *Decompiler) analyzeVariables(ctx context.Context, method ir.MethodReference, p *ir.Program) (_ []ir.VariableNode, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze variables", "method", method)
	defer tr.Finish("err", &err)

	if d.TypeInferer != nil {
		if err := d.TypeInferer.InferTypes(p, method); err != nil {
			return nil, fail(method, p, ErrTypeInference, err)
		}
	}

	variables := d.allocateRegisters(p)
	tr.Printw("allocated registers", "variables", len(variables))
	return variables, nil
}

// generatePart runs the statement generator over a single program (one
// part of an async method, or the whole of a regular one), producing its
// structured body (§4.4, §4.5, §4.6).
func (d *Decompiler) generatePart(ctx context.Context, method ir.MethodReference, p *ir.Program, targetPart []int, isAsync bool) (_ ir.Statement, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "generate part", "method", method, "blocks", p.BasicBlockCount(), "async", isAsync)
	defer tr.Finish("err", &err)

	body, err := gen.Generate(p, d.ClassSource, targetPart, isAsync)
	if err != nil {
		kind := ErrInstructionLowering
		if err == graph.ErrIrreducible {
			kind = ErrIrreducibleControlFlow
		}
		return nil, fail(method, p, kind, err)
	}

	return body, nil
}

// allocateRegisters runs liveness, interference and colouring over p and
// returns the resulting variable table (§4.7, §4.8, §4.9). A kindOf
// lookup against d.TypeInferer, falling back to KindUnknown, drives the
// interference graph's kind-class partitioning.
func (d *Decompiler) allocateRegisters(p *ir.Program) []ir.VariableNode {
	lv := regalloc.Compute(p, liveGraphOf(p))

	kindOf := func(v int) ir.VariableKind {
		if d.TypeInferer == nil {
			return ir.KindUnknown
		}
		return d.TypeInferer.TypeOf(v)
	}

	ig := regalloc.Build(p, lv, kindOf)
	alloc := regalloc.Allocate(ig, p.Variables)

	variables := make([]ir.VariableNode, p.Variables)
	for v := range variables {
		variables[v] = ir.VariableNode{
			Register:     alloc.Register[v],
			InferredType: kindOf(v),
		}
	}
	return variables
}

// liveGraphOf adapts a Program's own successor edges (including
// exception-handler edges, folded in here as graph.Build also does) to the
// minimal shape regalloc.Compute needs, without regalloc importing
// decompile/graph.
func liveGraphOf(p *ir.Program) successorsFunc {
	succ := make([][]int, len(p.Blocks))
	for i, b := range p.Blocks {
		succ[i] = ir.Successors(b.Terminator(), -1)
		for _, tc := range b.TryCatch {
			succ[i] = append(succ[i], tc.HandlerBlock)
		}
	}
	return successorsFunc(succ)
}

type successorsFunc [][]int

func (s successorsFunc) Successors(v int) []int { return s[v] }
