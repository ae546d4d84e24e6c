package opt

import "kanso/internal/ssa/ir"

// resolveInstructionOperands returns a copy of d with every operand
// passed through dfg.Resolve, so a pass that re-inserts an instruction
// (to give DFG-level simplification another chance to fire) never does
// so against a stale, since-replaced value id.
func resolveInstructionOperands(dfg *ir.DataFlowGraph, d ir.InstructionData) ir.InstructionData {
	r := dfg.Resolve
	out := d
	switch d.Op {
	case ir.OpBinary:
		out.LHS, out.RHS = r(d.LHS), r(d.RHS)
	case ir.OpNot, ir.OpCast, ir.OpTruncate, ir.OpConstrain, ir.OpConstrainNotEqual,
		ir.OpRangeCheck, ir.OpIncrementRc, ir.OpDecrementRc, ir.OpLoad:
		out.Operand = r(d.Operand)
	case ir.OpCall:
		out.Target = r(d.Target)
		args := make([]ir.ValueId, len(d.Args))
		for i, a := range d.Args {
			args[i] = r(a)
		}
		out.Args = args
		if d.HasPredicate {
			out.Predicate = r(d.Predicate)
		}
	case ir.OpStore:
		out.Address, out.Value = r(d.Address), r(d.Value)
	case ir.OpEnableSideEffectsIf:
		out.Condition = r(d.Condition)
	case ir.OpArrayGet:
		out.Array, out.Index = r(d.Array), r(d.Index)
	case ir.OpArraySet:
		out.Array, out.Index, out.NewValue = r(d.Array), r(d.Index), r(d.NewValue)
	case ir.OpIfElse:
		out.Condition, out.Then, out.Else = r(d.Condition), r(d.Then), r(d.Else)
	}
	return out
}

// reinsertAllWithSimplification rebuilds every instruction of block
// through InsertInstructionAndResults after resolving its operands,
// giving DFG-level simplification another chance to fire now that
// earlier passes may have produced new constant or redundant operands.
// Old results are replaced by the new ones, and the old instruction is
// removed whenever the reinsertion did not return that same id.
func reinsertAllWithSimplification(dfg *ir.DataFlowGraph, block ir.BasicBlockId) {
	original := dfg.Block(block).TakeInstructions()
	for _, id := range original {
		data := resolveInstructionOperands(dfg, dfg.Instruction(id))
		callStack := dfg.InstructionCallStack(id)
		res := dfg.InsertInstructionAndResults(block, data, callStack)

		oldResults := dfg.ResultsOf(id)
		newResults := res.Results()
		for i, ov := range oldResults {
			if i < len(newResults) {
				dfg.ReplaceValue(ov, newResults[i])
			}
		}
		if instrID, ok := res.InstructionID(); !ok || instrID.Index() != id.Index() {
			dfg.RemoveInstruction(id)
		}
	}
}
