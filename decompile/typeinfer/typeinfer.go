// Package typeinfer provides the default ir.TypeInferer (§4.9): a
// unification-style forward pass over the instruction stream that
// propagates each variable's VariableKind from where it's defined to
// every place it's read. The decompiler consults TypeOf only to
// populate VariableNode.InferredType; instruction lowering itself never
// depends on inferred types.
package typeinfer

import "github.com/aheadvm/declc/decompile/ir"

// DefaultInferer is the reference ir.TypeInferer (§4.9, §6). It never
// resolves reference types against a ClassSource — that refinement is a
// fuller collaborator's concern — and instead assigns InvokeAsync
// results the coarse KindReference kind, which is enough for register
// allocation's kind-class partitioning (§4.8).
type DefaultInferer struct {
	kinds []ir.VariableKind
}

// InferTypes runs the forward pass to a fixpoint over p. method is
// unused by this default pass; a fuller inferer would use it to look up
// declared parameter/return types via a ClassSource.
func (d *DefaultInferer) InferTypes(p *ir.Program, method ir.MethodReference) error {
	kinds := make([]ir.VariableKind, p.Variables)

	changed := true
	for changed {
		changed = false
		for _, b := range p.Blocks {
			for _, insn := range b.Instructions {
				k := kindOf(insn, kinds)
				if k == ir.KindUnknown {
					continue
				}
				for _, def := range insn.Defs() {
					if kinds[def] != k {
						kinds[def] = k
						changed = true
					}
				}
			}
		}
	}

	d.kinds = kinds
	return nil
}

// TypeOf returns the inferred kind of variable, or KindUnknown if
// InferTypes has not run or variable is out of range.
func (d *DefaultInferer) TypeOf(variable int) ir.VariableKind {
	if variable < 0 || variable >= len(d.kinds) {
		return ir.KindUnknown
	}
	return d.kinds[variable]
}

// kindOf determines the kind an instruction's definition(s) should take
// given the kinds already resolved for its operands.
func kindOf(insn ir.Instruction, kinds []ir.VariableKind) ir.VariableKind {
	switch x := insn.(type) {
	case ir.Const:
		return x.Kind
	case ir.BinOp:
		return x.Kind
	case ir.Assign:
		return kinds[x.Src]
	case ir.InvokeAsync:
		if x.HasValue {
			return ir.KindReference
		}
		return ir.KindUnknown
	default:
		return ir.KindUnknown
	}
}
