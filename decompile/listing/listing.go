// Package listing renders a Program into an indented text listing: a
// header line per block, then one indented line per instruction
// prefixed with its index within the block (§4.11,
// SPEC_FULL.md). It exists purely for diagnostics: the DecompilationError
// payload (§7) and cmd/declc's inspection output both embed it. Grounded
// on TeaVM's ListingBuilder and on the teacher's own compiler/format
// byte-buffer builder (the `app(b, depth, fmt, ...)` helper using
// hfmt.Appendf).
package listing

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/aheadvm/declc/decompile/ir"
)

const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"

// Build renders p as a listing string.
func Build(p *ir.Program) string {
	var b []byte
	for i, blk := range p.Blocks {
		b = app(b, 0, "block %d:", i)
		if blk.ExceptionVariable != nil {
			b = hfmt.Appendf(b, " handler(var=%d)", *blk.ExceptionVariable)
		}
		b = append(b, '\n')

		for _, tc := range blk.TryCatch {
			b = app(b, 1, "try %s -> block %d\n", displayType(tc.ExceptionType), tc.HandlerBlock)
		}

		for j, insn := range blk.Instructions {
			b = app(b, 1, "%d: ", j)
			b = appendInstruction(b, insn)
			b = append(b, '\n')
		}
	}
	return string(b)
}

func displayType(t string) string {
	if t == "" {
		return "*"
	}
	return t
}

func app(b []byte, depth int, f string, args ...any) []byte {
	b = append(b, tabs[:depth]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}

func appendInstruction(b []byte, insn ir.Instruction) []byte {
	switch x := insn.(type) {
	case ir.Nop:
		return append(b, "nop"...)
	case ir.Const:
		return hfmt.Appendf(b, "const %d = %v (%v)", x.Dest, x.Value, x.Kind)
	case ir.BinOp:
		return hfmt.Appendf(b, "%d = %d %s %d (%v)", x.Dest, x.Left, x.Op, x.Right, x.Kind)
	case ir.Assign:
		return hfmt.Appendf(b, "%d = %d", x.Dest, x.Src)
	case ir.Return:
		if !x.HasValue {
			return append(b, "return"...)
		}
		return hfmt.Appendf(b, "return %d", x.Value)
	case ir.Throw:
		return hfmt.Appendf(b, "throw %d", x.Value)
	case ir.Jump:
		return hfmt.Appendf(b, "jump block %d", x.Target)
	case ir.BranchIf:
		return hfmt.Appendf(b, "if %d then block %d else block %d", x.Cond, x.Then, x.Else)
	case ir.Switch:
		b = hfmt.Appendf(b, "switch %d", x.Value)
		for _, c := range x.Cases {
			b = hfmt.Appendf(b, " case %d: block %d", c.Value, c.Target)
		}
		return hfmt.Appendf(b, " default: block %d", x.Default)
	case ir.InvokeAsync:
		b = hfmt.Appendf(b, "invoke-async %s(", x.Callee)
		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}
			b = hfmt.Appendf(b, "%d", a)
		}
		b = append(b, ')')
		if x.HasValue {
			b = hfmt.Appendf(b, " -> %d", x.Dest)
		}
		return b
	default:
		return hfmt.Appendf(b, "<unknown %T>", insn)
	}
}
