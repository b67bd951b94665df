// Package decompile is the core orchestrator (§2, §6): it wires
// decompile/graph, decompile/rangetree, decompile/gen, decompile/async,
// decompile/regalloc, decompile/typeinfer, decompile/optimize and
// decompile/listing together into DecompileRegular/DecompileAsync, and
// defines the failure semantics of §4.10/§7. It imports every
// decompile/... subpackage except decompile/rangetree, which only
// decompile/gen uses; none of them import it back.
package decompile

import (
	"fmt"

	"github.com/aheadvm/declc/decompile/ir"
	"github.com/aheadvm/declc/decompile/listing"
)

// ErrorKind classifies why a method failed to decompile (§7).
type ErrorKind int

const (
	// ErrUnknown is never produced by this package; it exists so a
	// zero-valued ErrorKind is visibly wrong rather than silently
	// looking like IrreducibleControlFlow.
	ErrUnknown ErrorKind = iota
	ErrIrreducibleControlFlow
	ErrMalformedExceptionScope
	ErrInstructionLowering
	ErrTypeInference
	ErrAsyncSplit
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIrreducibleControlFlow:
		return "irreducible control flow"
	case ErrMalformedExceptionScope:
		return "malformed exception scope"
	case ErrInstructionLowering:
		return "instruction lowering error"
	case ErrTypeInference:
		return "type inference failure"
	case ErrAsyncSplit:
		return "async split failure"
	default:
		return "unknown"
	}
}

// DecompilationError is the diagnostic bundle §7 requires for every
// fatal method failure: the method, a human-readable listing of the
// program that failed, the kind of failure, and (where applicable) the
// underlying cause. The core never attempts partial recovery — a method
// that fails is rejected whole.
type DecompilationError struct {
	Method  ir.MethodReference
	Listing string
	Kind    ErrorKind
	Cause   error
}

func (e *DecompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decompile %v: %s: %v", e.Method, e.Kind, e.Cause)
	}
	return fmt.Sprintf("decompile %v: %s", e.Method, e.Kind)
}

func (e *DecompilationError) Unwrap() error { return e.Cause }

// fail builds a DecompilationError, rendering p's listing lazily so a
// success path never pays for it.
func fail(method ir.MethodReference, p *ir.Program, kind ErrorKind, cause error) error {
	return &DecompilationError{
		Method:  method,
		Listing: listing.Build(p),
		Kind:    kind,
		Cause:   cause,
	}
}
