package opt

import (
	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// FlattenCfgPass collapses every if/else diamond (a block ending in
// JmpIf whose two arms each end in an unconditional Jmp to the same
// join block, and which no other block reaches) into a single
// straight-line block: the condition's own block keeps its
// instructions, then the then-arm's body runs guarded by
// EnableSideEffectsIf(cond), then the else-arm's body runs guarded by
// EnableSideEffectsIf(!cond), then every value the join block expected
// as a parameter is resolved via ValueMerger, and finally the join
// block's own body and terminator are appended in turn. Grounded on
// ssa/opt/flatten_cfg.rs, read in full this session.
//
// ACIR has no branch instruction, so every value a constrain or a
// side-effecting instruction touches must be computed along every
// path and then blended with the branch condition — that's what
// EnableSideEffectsIf communicates to the instructions between one and
// the next: "scale your constraint by this condition, you may not be
// the path that was actually taken." This front end's ssagen never
// currently emits a JmpIf (see DESIGN.md), so no diamond is produced
// yet to flatten; the pass is written in full regardless, since
// spec.md names it and the IR fully supports the pattern once a future
// front end starts lowering conditionals to branches instead of
// straight-line code.
func FlattenCfgPass() Pass {
	return NewPass("flatten_cfg",
		"Collapses if/else diamonds into straight-line code guarded by EnableSideEffectsIf.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				flattenCfgInFunction(fn)
			}
			return nil
		})
}

func flattenCfgInFunction(fn *ir.Function) {
	// One map per function, not per diamond: a join value built by an
	// earlier diamond's ArraySet chain must still be walkable by
	// tryMergeOnlyChangedIndices when a later diamond in the same
	// function merges a value derived from it. Mirrors the original's
	// FlattenCfgContext, which owns array_set_conditionals for the
	// whole pass rather than resetting it per if/else.
	arraySetConditionals := map[ir.ValueId]ir.ValueId{}
	for flattenOneDiamond(fn, arraySetConditionals) {
	}
}

func flattenOneDiamond(fn *ir.Function, arraySetConditionals map[ir.ValueId]ir.ValueId) bool {
	dfg := fn.DFG
	blocks := fn.ReachableBlocks()
	preds := predecessorCounts(dfg, blocks)

	for _, condBlock := range blocks {
		term := dfg.Block(condBlock).Terminator()
		if term == nil || term.Kind != ir.TermJmpIf {
			continue
		}
		thenBlock, elseBlock := term.Then, term.Else
		if preds[thenBlock.Index()] != 1 || preds[elseBlock.Index()] != 1 {
			continue
		}
		thenTerm := dfg.Block(thenBlock).Terminator()
		elseTerm := dfg.Block(elseBlock).Terminator()
		if thenTerm == nil || elseTerm == nil {
			continue
		}
		if thenTerm.Kind != ir.TermJmp || elseTerm.Kind != ir.TermJmp {
			continue
		}
		if thenTerm.Destination.Index() != elseTerm.Destination.Index() {
			continue
		}
		join := thenTerm.Destination
		if preds[join.Index()] != 2 {
			continue
		}

		flattenDiamond(fn, condBlock, thenBlock, elseBlock, join, term, thenTerm, elseTerm, arraySetConditionals)
		return true
	}
	return false
}

func flattenDiamond(fn *ir.Function, condBlock, thenBlock, elseBlock, join ir.BasicBlockId,
	term, thenTerm, elseTerm *ir.Terminator, arraySetConditionals map[ir.ValueId]ir.ValueId) {
	dfg := fn.DFG
	cond := term.CondValue

	b := ssagen.NewFunctionBuilder(fn)
	b.SwitchToBlock(condBlock)

	dfg.InsertInstructionAndResultsWithoutSimplification(condBlock,
		ir.InstructionData{Op: ir.OpEnableSideEffectsIf, Condition: cond}, ir.CallStackId{})
	for _, id := range dfg.Block(thenBlock).TakeInstructions() {
		dfg.Block(condBlock).AppendExisting(id)
	}

	notCond := b.InsertNot(cond, ir.Bool())
	dfg.InsertInstructionAndResultsWithoutSimplification(condBlock,
		ir.InstructionData{Op: ir.OpEnableSideEffectsIf, Condition: notCond}, ir.CallStackId{})
	for _, id := range dfg.Block(elseBlock).TakeInstructions() {
		dfg.Block(condBlock).AppendExisting(id)
	}

	params := dfg.BlockParameters(join)
	types := make([]ir.Type, len(params))
	for i, p := range params {
		types[i] = dfg.TypeOfValue(p)
	}

	merger := NewValueMergerWithState(b, arraySetConditionals)
	merged := merger.Merge(cond, thenTerm.Args, elseTerm.Args, types)
	for i, p := range params {
		if i < len(merged) {
			dfg.ReplaceValue(p, merged[i])
		}
	}

	for _, id := range dfg.Block(join).TakeInstructions() {
		dfg.Block(condBlock).AppendExisting(id)
	}
	dfg.SetBlockTerminator(condBlock, dfg.Block(join).TakeTerminator())
}
