package opt

import "kanso/internal/ssa/ir"

// ResolveIsUnconstrainedPass folds every call to the is_unconstrained
// intrinsic into a boolean constant reflecting the calling function's
// own runtime: true inside a Brillig function, false inside an ACIR
// one. Grounded on
// ssa/opt/resolve_is_unconstrained.rs (read in full): collect the
// matching calls per reachable block, replace their single result with
// the constant, then drop the (now pointless) call instructions from
// their blocks.
func ResolveIsUnconstrainedPass() Pass {
	return NewPass("resolve_is_unconstrained",
		"Replaces is_unconstrained() calls with a constant reflecting the caller's runtime.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				resolveIsUnconstrainedInFunction(fn)
			}
			return nil
		})
}

func resolveIsUnconstrainedInFunction(fn *ir.Function) {
	dfg := fn.DFG
	isUnconstrained := fn.Runtime.IsBrillig()
	replacement := ir.FieldElementZero()
	if isUnconstrained {
		replacement = ir.One()
	}

	for _, block := range fn.ReachableBlocks() {
		var keep []ir.InstructionId
		for _, id := range dfg.Block(block).Instructions() {
			data := dfg.Instruction(id)
			if isIsUnconstrainedCall(dfg, data) {
				results := dfg.ResultsOf(id)
				if len(results) == 1 {
					dfg.ReplaceValue(results[0], dfg.Constant(replacement, ir.Bool()))
				}
				dfg.RemoveInstruction(id)
				continue
			}
			keep = append(keep, id)
		}
		dfg.Block(block).SetInstructions(keep)
	}
}

func isIsUnconstrainedCall(dfg *ir.DataFlowGraph, data ir.InstructionData) bool {
	if data.Op != ir.OpCall {
		return false
	}
	target := dfg.ValueData(data.Target)
	return target.Kind == ir.ValueIntrinsic && target.Intrinsic == ir.IntrinsicIsUnconstrained
}
