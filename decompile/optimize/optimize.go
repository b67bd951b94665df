// Package optimize defines the Optimizer collaborator contract (§6) and
// a default identity pass. Real optimizations — constant folding,
// dead-branch elimination, jump threading — are explicitly out of scope
// (§1: "optimiser passes... are a collaborator"); IdentityOptimizer
// exists only so the core is runnable end to end without a real one
// wired in, and so the idempotence property in §8 has something to hold
// against.
package optimize

import "github.com/aheadvm/declc/decompile/ir"

// IdentityOptimizer implements ir.Optimizer by doing nothing. Running it
// any number of times over the same MethodNode leaves it unchanged.
type IdentityOptimizer struct{}

func (IdentityOptimizer) Optimize(node ir.MethodNode, original *ir.Program, friendlyToDebugger bool) error {
	return nil
}
