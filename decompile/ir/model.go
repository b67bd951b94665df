// Package ir holds the decompilation core's data model: the input
// Program/BasicBlock/Instruction shapes, the output Statement tree, and
// the narrow collaborator contracts (ClassSource, AsyncSplitter,
// Optimizer) at the core's boundary. It is imported by every other
// decompile/... package and imports none of them, the way the teacher's
// own ir package sits underneath front, back and analyze.
package ir

import "fmt"

// MethodReference names a method for diagnostics. It carries no behaviour.
type MethodReference struct {
	ClassName  string
	Name       string
	Descriptor string
}

func (m MethodReference) String() string {
	return fmt.Sprintf("%s.%s%s", m.ClassName, m.Name, m.Descriptor)
}

// DecompilerOptions are the flags accepted at the core's boundary (§6).
type DecompilerOptions struct {
	FriendlyToDebugger bool
	SplitMethods       map[MethodReference]struct{}
}

// Program is an ordered sequence of basic blocks; block 0 is the entry.
type Program struct {
	Blocks    []*BasicBlock
	Variables int // number of variable slots, 0..Variables-1
}

func (p *Program) BasicBlockCount() int { return len(p.Blocks) }

func (p *Program) BasicBlockAt(i int) *BasicBlock { return p.Blocks[i] }

// BasicBlock is a maximal instruction sequence with a single entry and a
// single terminating instruction.
type BasicBlock struct {
	Index int

	Instructions []Instruction

	// ExceptionVariable is non-nil iff this block is an exception
	// handler entry; its value names the variable the caught exception
	// is bound to.
	ExceptionVariable *int

	// TryCatch is ordered; earlier entries catch first (§3).
	TryCatch []TryCatchRange
}

func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// TryCatchRange describes one handler active during the execution of the
// owning block's body. ExceptionType == "" means catch-all.
type TryCatchRange struct {
	ExceptionType    string
	HandlerBlock     int
	ExceptionVar     *int
}

// Same reports whether two ranges name the same handler for bookmarking
// purposes (§4.5 compares handler index and exception type, not the bound
// variable — the variable can differ across re-entries into the same
// physical handler without it being a different scope).
func (r TryCatchRange) Same(o TryCatchRange) bool {
	return r.HandlerBlock == o.HandlerBlock && r.ExceptionType == o.ExceptionType
}

// ClassDescriptor is the minimal shape the core needs from a resolved
// class; real field/method tables live in the class-loading subsystem,
// out of scope here (§1).
type ClassDescriptor struct {
	Name string
}

// ClassSource resolves class names for type inference and exception-type
// lookup (§6). Implementations must be safe for read-only concurrent use
// (§5).
type ClassSource interface {
	Get(name string) (*ClassDescriptor, bool)
}

// NilClassSource resolves nothing; useful when a method's types are fully
// known without cross-class lookup (e.g. in tests).
type NilClassSource struct{}

func (NilClassSource) Get(string) (*ClassDescriptor, bool) { return nil, false }
