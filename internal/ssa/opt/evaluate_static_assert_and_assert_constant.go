package opt

import (
	"fmt"

	"kanso/internal/ssa/ir"
)

// EvaluateStaticAssertAndAssertConstantPass resolves every call to the
// static_assert and assert_constant intrinsics at compile time: each
// requires its argument to already be a known constant by this point
// in the pipeline (placed after the first mem2reg/simplify_cfg and
// as_slice_opt, before loop unrolling, exactly as spec.md's ordering has it).
// static_assert additionally requires that constant to be true.
// Either requirement failing is a compile error, not a runtime
// constraint — there is no circuit to emit it into. Grounded on
// ssa/opt/evaluate_static_assert_and_assert_constant.rs.
func EvaluateStaticAssertAndAssertConstantPass() Pass {
	return NewPass("evaluate_static_assert_and_assert_constant",
		"Evaluates static_assert/assert_constant calls at compile time and removes them.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				if err := evaluateStaticAssertsInFunction(fn); err != nil {
					return fmt.Errorf("function %q: %w", fn.Name, err)
				}
			}
			return nil
		})
}

func evaluateStaticAssertsInFunction(fn *ir.Function) error {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).Instructions()
		var remove []ir.InstructionId

		for _, id := range original {
			data := dfg.Instruction(id)
			if data.Op != ir.OpCall {
				continue
			}
			target := dfg.ValueData(data.Target)
			if target.Kind != ir.ValueIntrinsic {
				continue
			}
			if target.Intrinsic != ir.IntrinsicStaticAssert && target.Intrinsic != ir.IntrinsicAssertConstant {
				continue
			}
			if len(data.Args) == 0 {
				continue
			}

			c, ok := dfg.GetNumericConstant(data.Args[0])
			if !ok {
				return fmt.Errorf("%s argument must be known at compile time", target.Intrinsic)
			}
			if target.Intrinsic == ir.IntrinsicStaticAssert && !c.Equal(ir.One()) {
				return fmt.Errorf("static assertion failed")
			}
			remove = append(remove, id)
		}

		if len(remove) == 0 {
			continue
		}
		removeSet := map[uint32]bool{}
		for _, id := range remove {
			removeSet[id.Index()] = true
			dfg.RemoveInstruction(id)
		}
		var kept []ir.InstructionId
		for _, id := range original {
			if !removeSet[id.Index()] {
				kept = append(kept, id)
			}
		}
		dfg.Block(block).SetInstructions(kept)
	}
	return nil
}
