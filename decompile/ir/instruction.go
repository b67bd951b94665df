package ir

// Instruction is a tagged variant over the instruction kinds the
// statement generator knows how to lower (§9 design note: "polymorphic
// visitor over instructions -> tagged variant"). The real bytecode
// instruction set is supplied by the (out-of-scope) instruction parser;
// this set is the minimal stand-in needed to drive the core end to end,
// one concrete type per terminator/non-terminator kind named in §4.4.
type Instruction interface {
	// Uses returns the variables read by this instruction, used by
	// liveness analysis (§4.7) and by type inference (§4.9).
	Uses() []int

	// Defs returns the variables written by this instruction.
	Defs() []int

	// Terminator reports whether this instruction ends its basic
	// block (return, throw, jump, conditional branch).
	Terminator() bool
}

type (
	// Nop performs no operation and lowers to no statement.
	Nop struct{}

	// Const loads a constant into Dest.
	Const struct {
		Dest int
		Kind VariableKind
		// Value is an opaque literal payload; the real bytecode
		// would carry the decoded constant pool entry.
		Value any
	}

	// BinOp computes Dest = Left Op Right.
	BinOp struct {
		Dest, Left, Right int
		Op                string
		Kind              VariableKind
	}

	// Assign copies Src into Dest (a register move).
	Assign struct {
		Dest, Src int
	}

	// Return exits the method, optionally carrying a value.
	// HasValue distinguishes a void return from `return 0`.
	Return struct {
		Value    int
		HasValue bool
	}

	// Throw exits the method by raising the exception in Value.
	Throw struct {
		Value int
	}

	// Jump unconditionally transfers control to Target, a block index
	// within the same Program.
	Jump struct {
		Target int
	}

	// BranchIf transfers control to Then if Cond holds, Else
	// otherwise. Cond is a comparison against zero of the named kind;
	// the real instruction set would carry a richer predicate.
	BranchIf struct {
		Cond       int
		Then, Else int
	}

	// Switch dispatches on Value to one of Cases, or Default.
	Switch struct {
		Value   int
		Cases   []SwitchCase
		Default int
	}

	// InvokeAsync is the designated suspension point (§1.3, §4.6): a
	// call that may yield control back to the scheduler. The async
	// splitter partitions a program at these instructions.
	InvokeAsync struct {
		Dest     int
		HasValue bool
		Callee   string
		Args     []int
	}
)

// SwitchCase pairs a dispatch value with its target block.
type SwitchCase struct {
	Value  int64
	Target int
}

func (Nop) Uses() []int      { return nil }
func (Nop) Defs() []int      { return nil }
func (Nop) Terminator() bool { return false }

func (x Const) Uses() []int      { return nil }
func (x Const) Defs() []int      { return []int{x.Dest} }
func (x Const) Terminator() bool { return false }

func (x BinOp) Uses() []int      { return []int{x.Left, x.Right} }
func (x BinOp) Defs() []int      { return []int{x.Dest} }
func (x BinOp) Terminator() bool { return false }

func (x Assign) Uses() []int      { return []int{x.Src} }
func (x Assign) Defs() []int      { return []int{x.Dest} }
func (x Assign) Terminator() bool { return false }

func (x Return) Uses() []int {
	if !x.HasValue {
		return nil
	}
	return []int{x.Value}
}
func (x Return) Defs() []int      { return nil }
func (x Return) Terminator() bool { return true }

func (x Throw) Uses() []int      { return []int{x.Value} }
func (x Throw) Defs() []int      { return nil }
func (x Throw) Terminator() bool { return true }

func (x Jump) Uses() []int      { return nil }
func (x Jump) Defs() []int      { return nil }
func (x Jump) Terminator() bool { return true }

func (x BranchIf) Uses() []int      { return []int{x.Cond} }
func (x BranchIf) Defs() []int      { return nil }
func (x BranchIf) Terminator() bool { return true }

func (x Switch) Uses() []int      { return []int{x.Value} }
func (x Switch) Defs() []int      { return nil }
func (x Switch) Terminator() bool { return true }

func (x InvokeAsync) Uses() []int { return x.Args }
func (x InvokeAsync) Defs() []int {
	if !x.HasValue {
		return nil
	}
	return []int{x.Dest}
}
func (x InvokeAsync) Terminator() bool { return false }

// Successors returns the block indices a terminator instruction may
// transfer control to, in listing order. Non-terminators return
// fallthroughTarget alone, or nil when it is negative.
func Successors(insn Instruction, fallthroughTarget int) []int {
	switch x := insn.(type) {
	case Jump:
		return []int{x.Target}
	case BranchIf:
		return []int{x.Then, x.Else}
	case Switch:
		succs := make([]int, 0, len(x.Cases)+1)
		for _, c := range x.Cases {
			succs = append(succs, c.Target)
		}
		return append(succs, x.Default)
	case Return, Throw:
		return nil
	default:
		if fallthroughTarget < 0 {
			return nil
		}
		return []int{fallthroughTarget}
	}
}

// VariableKind classes a variable for interference purposes (§4.8):
// two variables of different kind classes never interfere even if
// simultaneously live, since they occupy disjoint physical register
// files.
type VariableKind int

const (
	KindUnknown VariableKind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindReference
	KindAddress
)

// Class collapses a VariableKind to the coarse register-file class used
// by interference checks (§4.8: "integer-like vs floating vs reference
// vs wide").
func (k VariableKind) Class() KindClass {
	switch k {
	case KindInt32:
		return ClassIntLike
	case KindInt64, KindAddress:
		return ClassWide
	case KindFloat32, KindFloat64:
		return ClassFloat
	case KindReference:
		return ClassReference
	default:
		return ClassIntLike
	}
}

func (k VariableKind) String() string {
	switch k {
	case KindInt32:
		return "i32"
	case KindInt64:
		return "i64"
	case KindFloat32:
		return "f32"
	case KindFloat64:
		return "f64"
	case KindReference:
		return "reference"
	case KindAddress:
		return "address"
	default:
		return "unknown"
	}
}

// KindClass is the coarse register-file class two variables must share
// to possibly interfere.
type KindClass int

const (
	ClassIntLike KindClass = iota
	ClassFloat
	ClassReference
	ClassWide
)
