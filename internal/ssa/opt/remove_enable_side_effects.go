package opt

import "kanso/internal/ssa/ir"

// RemoveEnableSideEffectsPass drops EnableSideEffectsIf instructions
// that no longer carry information: a second one in a row makes the
// first redundant (only the most recent condition is ever in effect),
// and one whose condition is the known-true constant is a no-op by
// definition. Grounded on ssa/opt/remove_enable_side_effects.rs.
func RemoveEnableSideEffectsPass() Pass {
	return NewPass("remove_enable_side_effects",
		"Drops redundant or trivially-true EnableSideEffectsIf instructions.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				removeEnableSideEffectsInFunction(fn)
			}
			return nil
		})
}

func removeEnableSideEffectsInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()
		remove := map[uint32]bool{}

		var lastID ir.InstructionId
		haveLast := false
		for _, id := range original {
			data := dfg.Instruction(id)
			if data.Op != ir.OpEnableSideEffectsIf {
				haveLast = false
				continue
			}
			if haveLast {
				remove[lastID.Index()] = true
			}
			if dfg.IsConstantTrue(data.Condition) {
				remove[id.Index()] = true
				haveLast = false
				continue
			}
			lastID = id
			haveLast = true
		}

		if len(remove) == 0 {
			continue
		}
		var kept []ir.InstructionId
		for _, id := range original {
			if remove[id.Index()] {
				dfg.RemoveInstruction(id)
				continue
			}
			kept = append(kept, id)
		}
		dfg.Block(block).SetInstructions(kept)
	}
}
