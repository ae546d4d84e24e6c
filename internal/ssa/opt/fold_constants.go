package opt

import "kanso/internal/ssa/ir"

// FoldConstantsPass re-runs insertion-time simplification over every
// instruction already in the program. Simplification only ever fires
// automatically when an instruction is first built (see
// DataFlowGraph.InsertInstructionAndResults); once a later pass
// replaces one of an instruction's operands with a constant it didn't
// have at construction time, nothing re-examines it until a pass
// explicitly asks the DFG to look again. This is that pass. Grounded
// on ssa/opt/mod.rs's fold_constants step, which performs the same
// "reinsert everything, let simplify do the work" pass over the whole
// function.
func FoldConstantsPass() Pass {
	return NewPass("fold_constants",
		"Re-simplifies every instruction now that earlier passes may have produced new constant operands.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				for _, block := range fn.ReachableBlocks() {
					reinsertAllWithSimplification(fn.DFG, block)
				}
			}
			return nil
		})
}
