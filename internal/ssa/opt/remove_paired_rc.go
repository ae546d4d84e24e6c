package opt

import "kanso/internal/ssa/ir"

// RemovePairedRcPass deletes an IncrementRc immediately paired with a
// DecrementRc on the same value within a single block, with nothing
// between them that could observe or mutate the reference-counted
// value. Grounded on ssa/opt/remove_paired_rc.rs: the original walks
// each block tracking the most recent unmatched IncrementRc per value
// and cancels it against the next DecrementRc of the same value,
// provided no Store/ArraySet/Call intervenes (any of those could
// change what the count protects). This port keeps that same
// adjacency rule.
func RemovePairedRcPass() Pass {
	return NewPass("remove_paired_rc",
		"Cancels adjacent matching increment/decrement-reference-count instruction pairs.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				removePairedRcInFunction(fn)
			}
			return nil
		})
}

func removePairedRcInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()

		// pending maps a value's resolved index to the instruction id of
		// its most recent unmatched IncrementRc, cleared whenever an
		// instruction that could observe the reference count appears.
		pending := map[uint32]ir.InstructionId{}
		remove := map[uint32]bool{}

		for _, id := range original {
			data := dfg.Instruction(id)
			switch data.Op {
			case ir.OpIncrementRc:
				pending[dfg.Resolve(data.Operand).Index()] = id
			case ir.OpDecrementRc:
				key := dfg.Resolve(data.Operand).Index()
				if incID, ok := pending[key]; ok {
					remove[incID.Index()] = true
					remove[id.Index()] = true
					delete(pending, key)
				}
			case ir.OpStore, ir.OpArraySet, ir.OpCall:
				pending = map[uint32]ir.InstructionId{}
			}
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
