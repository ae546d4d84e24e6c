package opt

import (
	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// RemoveIfElsePass lowers every remaining numeric IfElse instruction
// (built by remove_bit_shifts' insertPow, or directly by the front end
// for a small conditional expression) into the arithmetic
// blend an arithmetic circuit can actually express: cond*(then-else) +
// else. Grounded on ssa/opt/remove_if_else.rs.
//
// Array- and slice-typed IfElse instructions are left alone: the
// original lowers those through the same predicated-array-merge
// machinery array_set_opt's COW-elision logic builds on, which this
// port's array_set_opt does not yet implement (see its own doc
// comment) — so there is nothing yet for this pass to hand an
// array-typed IfElse off to. A numeric IfElse is always fully handled.
func RemoveIfElsePass() Pass {
	return NewPass("remove_if_else",
		"Lowers numeric IfElse instructions into an arithmetic blend of their two arms.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				removeIfElseInFunction(fn)
			}
			return nil
		})
}

func removeIfElseInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).TakeInstructions()
		b := ssagen.NewFunctionBuilder(fn)
		b.SwitchToBlock(block)

		for _, id := range original {
			data := dfg.Instruction(id)
			if data.Op != ir.OpIfElse || data.ResultType.Kind != ir.TypeNumeric {
				dfg.Block(block).AppendExisting(id)
				continue
			}

			t := data.ResultType.Numeric
			condAsType := b.InsertCast(data.Condition, t)
			diff := b.InsertBinary(ir.BinSub, data.Then, data.Else, t)
			scaled := b.InsertBinary(ir.BinMul, condAsType, diff, t)
			result := b.InsertBinary(ir.BinAdd, scaled, data.Else, t)

			if results := dfg.ResultsOf(id); len(results) == 1 {
				dfg.ReplaceValue(results[0], result)
			}
			dfg.RemoveInstruction(id)
		}
	}
}
