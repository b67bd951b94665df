package gen

import (
	"tlog.app/go/errors"

	"github.com/aheadvm/declc/decompile/ir"
)

// lowerBlock lowers every instruction of original block `node` into zero
// or more Statements, in order, resolving any terminator's targets
// against the current block map (§4.4 step 4). A handler block's bound
// exception variable is emitted first, ahead of its instructions
// (SPEC_FULL.md §9).
func (gen *Generator) lowerBlock(node int) ([]ir.Statement, error) {
	b := gen.program.Blocks[node]

	var out []ir.Statement
	if b.ExceptionVariable != nil {
		out = append(out, &ir.BindException{Variable: *b.ExceptionVariable})
	}

	for _, insn := range b.Instructions {
		stmt, err := gen.lowerInstruction(insn)
		if err != nil {
			return nil, wrapErr(err, "block %d", node)
		}
		if stmt != nil {
			out = append(out, stmt)
		}
	}
	return out, nil
}

func (gen *Generator) lowerInstruction(insn ir.Instruction) (ir.Statement, error) {
	switch x := insn.(type) {
	case ir.Nop:
		return nil, nil

	case ir.Const:
		return &ir.AssignStmt{Dest: x.Dest, Expr: ir.ConstExpr{Kind: x.Kind, Value: x.Value}}, nil

	case ir.BinOp:
		return &ir.AssignStmt{
			Dest: x.Dest,
			Expr: ir.BinExpr{Op: x.Op, Left: ir.VarExpr{Variable: x.Left}, Right: ir.VarExpr{Variable: x.Right}},
		}, nil

	case ir.Assign:
		return &ir.AssignStmt{Dest: x.Dest, Expr: ir.VarExpr{Variable: x.Src}}, nil

	case ir.Return:
		return &ir.ReturnStmt{Value: x.Value, HasValue: x.HasValue}, nil

	case ir.Throw:
		return &ir.ThrowStmt{Value: x.Value}, nil

	case ir.Jump:
		if x.Target == gen.nextOriginal {
			// Falls through to the next block in the linear order;
			// its lexical scope may not even be open yet (a jump
			// straight into a loop header), so there is nothing to
			// resolve and nothing to emit.
			return nil, nil
		}
		return gen.generateJumpStatement(x.Target)

	case ir.BranchIf:
		then, err := gen.generateJumpStatement(x.Then)
		if err != nil {
			return nil, err
		}
		els, err := gen.generateJumpStatement(x.Else)
		if err != nil {
			return nil, err
		}
		return &ir.IfStmt{Cond: ir.VarExpr{Variable: x.Cond}, Then: then, Else: els}, nil

	case ir.Switch:
		cases := make([]ir.SwitchStmtCase, len(x.Cases))
		for i, c := range x.Cases {
			target, err := gen.generateJumpStatement(c.Target)
			if err != nil {
				return nil, err
			}
			cases[i] = ir.SwitchStmtCase{Value: c.Value, Then: target}
		}
		def, err := gen.generateJumpStatement(x.Default)
		if err != nil {
			return nil, err
		}
		return &ir.SwitchStmt{Value: ir.VarExpr{Variable: x.Value}, Cases: cases, Default: def}, nil

	case ir.InvokeAsync:
		args := make([]ir.Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = ir.VarExpr{Variable: a}
		}
		call := ir.CallExpr{Callee: x.Callee, Args: args}
		if x.HasValue {
			return &ir.AssignStmt{Dest: x.Dest, Expr: call}, nil
		}
		return &ir.ExpressionStmt{Expr: call}, nil

	default:
		return nil, errors.New("unsupported instruction type %T", insn)
	}
}
