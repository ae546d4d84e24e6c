package opt

import "kanso/internal/ssa/ir"

// ArraySetOptPass collapses a same-index ArraySet that immediately
// overwrites the result of a previous ArraySet to the same array at
// the same constant index, with nothing reading the intermediate value
// in between: the first write is dead, and the second can target the
// original array directly. Grounded on ssa/opt/array_set.rs's
// reference-counting-driven copy-on-write elision.
//
// The original additionally tracks each array's reference count to
// decide whether a write can mutate in place instead of copying,
// across arbitrarily many intervening instructions. This port only
// catches the immediately-adjacent same-index case (mirroring the
// adjacency rule remove_paired_rc already uses for a similar reason):
// enough to remove the redundant write a sequence of struct-field
// updates produces, without reimplementing full reference-count
// tracking. See DESIGN.md.
func ArraySetOptPass() Pass {
	return NewPass("array_set_opt",
		"Elides a same-index array write immediately superseded by another, adjacent one.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				arraySetOptInFunction(fn)
			}
			return nil
		})
}

func arraySetOptInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()
		remove := map[uint32]bool{}

		for i := 1; i < len(original); i++ {
			id := original[i]
			data := dfg.Instruction(id)
			if data.Op != ir.OpArraySet {
				continue
			}
			prevID := original[i-1]
			if remove[prevID.Index()] {
				continue
			}
			prevData := dfg.Instruction(prevID)
			if prevData.Op != ir.OpArraySet {
				continue
			}
			prevResults := dfg.ResultsOf(prevID)
			if len(prevResults) != 1 {
				continue
			}
			if dfg.Resolve(data.Array).Index() != dfg.Resolve(prevResults[0]).Index() {
				continue
			}

			ci, ok1 := dfg.GetNumericConstant(data.Index)
			pi, ok2 := dfg.GetNumericConstant(prevData.Index)
			if !ok1 || !ok2 || !ci.Equal(pi) {
				continue
			}

			remove[prevID.Index()] = true
			rewritten := data
			rewritten.Array = prevData.Array
			dfg.SetInstruction(id, rewritten)
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
