package main

import (
	"encoding/json"
	"os"

	"tlog.app/go/errors"

	"github.com/aheadvm/declc/decompile/ir"
)

// programFile is the on-disk JSON shape `declc` accepts: a minimal,
// hand-rollable encoding of ir.Program for feeding fixtures into
// `listing`/`decompile` without a real bytecode parser, which is out of
// scope for this core (§1).
type programFile struct {
	Variables int         `json:"variables"`
	Blocks    []blockFile `json:"blocks"`
}

type blockFile struct {
	ExceptionVariable *int              `json:"exceptionVariable,omitempty"`
	TryCatch          []tryCatchFile    `json:"tryCatch,omitempty"`
	Instructions      []instructionFile `json:"instructions"`
}

type tryCatchFile struct {
	ExceptionType string `json:"exceptionType"`
	HandlerBlock  int    `json:"handlerBlock"`
	ExceptionVar  *int   `json:"exceptionVar,omitempty"`
}

// instructionFile is a flat union of every ir.Instruction's fields,
// discriminated by Op; unused fields are simply left zero for any given
// kind.
type instructionFile struct {
	Op string `json:"op"`

	Dest  int `json:"dest,omitempty"`
	Src   int `json:"src,omitempty"`
	Left  int `json:"left,omitempty"`
	Right int `json:"right,omitempty"`

	Operator string `json:"operator,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Literal  any    `json:"literal,omitempty"`

	Value    int  `json:"value,omitempty"`
	HasValue bool `json:"hasValue,omitempty"`

	Target int `json:"target,omitempty"`
	Cond   int `json:"cond,omitempty"`
	Then   int `json:"then,omitempty"`
	Else   int `json:"else,omitempty"`

	Cases   []switchCaseFile `json:"cases,omitempty"`
	Default int              `json:"default,omitempty"`

	Callee string `json:"callee,omitempty"`
	Args   []int  `json:"args,omitempty"`
}

type switchCaseFile struct {
	Value  int64 `json:"value"`
	Target int   `json:"target"`
}

func loadProgram(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	var pf programFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrap(err, "parse program")
	}

	blocks := make([]*ir.BasicBlock, len(pf.Blocks))
	for i, bf := range pf.Blocks {
		insns := make([]ir.Instruction, len(bf.Instructions))
		for j, inf := range bf.Instructions {
			insn, err := inf.toInstruction()
			if err != nil {
				return nil, errors.Wrap(err, "block %d instruction %d", i, j)
			}
			insns[j] = insn
		}

		tryCatch := make([]ir.TryCatchRange, len(bf.TryCatch))
		for j, tc := range bf.TryCatch {
			tryCatch[j] = ir.TryCatchRange{
				ExceptionType: tc.ExceptionType,
				HandlerBlock:  tc.HandlerBlock,
				ExceptionVar:  tc.ExceptionVar,
			}
		}

		blocks[i] = &ir.BasicBlock{
			Index:             i,
			Instructions:      insns,
			ExceptionVariable: bf.ExceptionVariable,
			TryCatch:          tryCatch,
		}
	}

	return &ir.Program{Blocks: blocks, Variables: pf.Variables}, nil
}

func (inf instructionFile) toInstruction() (ir.Instruction, error) {
	switch inf.Op {
	case "nop":
		return ir.Nop{}, nil
	case "const":
		return ir.Const{Dest: inf.Dest, Kind: parseKind(inf.Kind), Value: inf.Literal}, nil
	case "binop":
		return ir.BinOp{Dest: inf.Dest, Left: inf.Left, Right: inf.Right, Op: inf.Operator, Kind: parseKind(inf.Kind)}, nil
	case "assign":
		return ir.Assign{Dest: inf.Dest, Src: inf.Src}, nil
	case "return":
		return ir.Return{Value: inf.Value, HasValue: inf.HasValue}, nil
	case "throw":
		return ir.Throw{Value: inf.Value}, nil
	case "jump":
		return ir.Jump{Target: inf.Target}, nil
	case "branch":
		return ir.BranchIf{Cond: inf.Cond, Then: inf.Then, Else: inf.Else}, nil
	case "switch":
		cases := make([]ir.SwitchCase, len(inf.Cases))
		for i, c := range inf.Cases {
			cases[i] = ir.SwitchCase{Value: c.Value, Target: c.Target}
		}
		return ir.Switch{Value: inf.Value, Cases: cases, Default: inf.Default}, nil
	case "invokeAsync":
		args := append([]int{}, inf.Args...)
		return ir.InvokeAsync{Dest: inf.Dest, HasValue: inf.HasValue, Callee: inf.Callee, Args: args}, nil
	default:
		return nil, errors.New("unknown instruction op %q", inf.Op)
	}
}

func parseKind(s string) ir.VariableKind {
	switch s {
	case "i32":
		return ir.KindInt32
	case "i64":
		return ir.KindInt64
	case "f32":
		return ir.KindFloat32
	case "f64":
		return ir.KindFloat64
	case "reference":
		return ir.KindReference
	case "address":
		return ir.KindAddress
	default:
		return ir.KindUnknown
	}
}
