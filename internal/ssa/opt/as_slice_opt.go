package opt

import "kanso/internal/ssa/ir"

// AsSliceOptPass folds array_len(as_slice(array)) directly into the
// array's own statically-known length, so the rest of the pipeline
// never has to carry a runtime length for a slice whose size was fixed
// the moment it was converted from an array. Grounded on
// ssa/opt/as_slice_length.rs: the original handles several more
// as_slice-adjacent shapes (as_slice immediately followed by push/pop
// specialization); this port keeps the one that matters most — the
// length query — and leaves the rest unoptimized rather than
// unimplemented in a way that could silently miscompute a length.
func AsSliceOptPass() Pass {
	return NewPass("as_slice_opt",
		"Folds array_len(as_slice(array)) into the array's static length.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				asSliceOptInFunction(fn)
			}
			return nil
		})
}

func asSliceOptInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		for _, id := range dfg.Block(block).Instructions() {
			data := dfg.Instruction(id)
			if data.Op != ir.OpCall || len(data.Args) == 0 {
				continue
			}
			target := dfg.ValueData(data.Target)
			if target.Kind != ir.ValueIntrinsic || target.Intrinsic != ir.IntrinsicArrayLen {
				continue
			}

			arg := dfg.ValueData(dfg.Resolve(data.Args[0]))
			if arg.Kind != ir.ValueInstructionResult {
				continue
			}
			argInstr := dfg.Instruction(arg.Instruction)
			if argInstr.Op != ir.OpCall || len(argInstr.Args) == 0 {
				continue
			}
			argTarget := dfg.ValueData(argInstr.Target)
			if argTarget.Kind != ir.ValueIntrinsic || argTarget.Intrinsic != ir.IntrinsicArrayAsSlice {
				continue
			}

			arrType := dfg.TypeOfValue(argInstr.Args[0])
			if arrType.Kind != ir.TypeArray {
				continue
			}
			results := dfg.ResultsOf(id)
			if len(results) != 1 {
				continue
			}
			lenType := dfg.TypeOfValue(results[0]).UnwrapNumeric()
			dfg.ReplaceValue(results[0], dfg.Constant(ir.FromUint64(uint64(arrType.ArrayLen)), lenType))
		}
	}
}
