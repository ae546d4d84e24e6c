package opt

import "kanso/internal/ssa/ir"

// DeadInstructionEliminationPass removes every instruction whose
// results are unused and which has no side effect that would make
// removing it observable. Grounded on
// ssa/opt/dead_instruction_elimination.rs: a single backward pass per
// block, building the used-value set from the terminator and every
// instruction kept so far, deleting anything not in that set and
// without HasSideEffects.
func DeadInstructionEliminationPass() Pass {
	return NewPass("dead_instruction_elimination",
		"Removes instructions whose results are never used and which have no side effect.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				deadInstructionEliminationInFunction(fn)
			}
			return nil
		})
}

func deadInstructionEliminationInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()
		used := map[uint32]bool{}

		markUsed := func(v ir.ValueId) { used[dfg.Resolve(v).Index()] = true }
		if term := dfg.Block(block).Terminator(); term != nil {
			for _, v := range term.ReturnValues {
				markUsed(v)
			}
			if term.Kind == ir.TermJmpIf {
				markUsed(term.CondValue)
			}
			for _, v := range term.Args {
				markUsed(v)
			}
		}

		keep := make([]bool, len(original))
		for i := len(original) - 1; i >= 0; i-- {
			id := original[i]
			data := dfg.Instruction(id)

			resultsUsed := false
			for _, r := range dfg.ResultsOf(id) {
				if used[dfg.Resolve(r).Index()] {
					resultsUsed = true
					break
				}
			}

			if !resultsUsed && !data.HasSideEffects() {
				continue
			}
			keep[i] = true
			markOperands(dfg, data, markUsed)
		}

		var kept []ir.InstructionId
		for i, id := range original {
			if keep[i] {
				kept = append(kept, id)
				continue
			}
			dfg.RemoveInstruction(id)
		}
		dfg.Block(block).SetInstructions(kept)
	}
}

func markOperands(dfg *ir.DataFlowGraph, d ir.InstructionData, mark func(ir.ValueId)) {
	switch d.Op {
	case ir.OpBinary:
		mark(d.LHS)
		mark(d.RHS)
	case ir.OpNot, ir.OpCast, ir.OpTruncate, ir.OpConstrain, ir.OpConstrainNotEqual,
		ir.OpRangeCheck, ir.OpIncrementRc, ir.OpDecrementRc, ir.OpLoad:
		mark(d.Operand)
	case ir.OpCall:
		mark(d.Target)
		for _, a := range d.Args {
			mark(a)
		}
		if d.HasPredicate {
			mark(d.Predicate)
		}
	case ir.OpStore:
		mark(d.Address)
		mark(d.Value)
	case ir.OpEnableSideEffectsIf:
		mark(d.Condition)
	case ir.OpArrayGet:
		mark(d.Array)
		mark(d.Index)
	case ir.OpArraySet:
		mark(d.Array)
		mark(d.Index)
		mark(d.NewValue)
	case ir.OpIfElse:
		mark(d.Condition)
		mark(d.Then)
		mark(d.Else)
	}
}
