package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/fieldelement"
	"kanso/internal/ssa/ir"
)

// Scenario 1: constant folding of a sum. v2 = add v0:u32(5), v1:u32(7)
// is built bypassing insert-time simplification (mirroring an
// instruction some earlier pass left with constant operands it didn't
// have at construction time); fold_constants must fold it to
// NumericConstant(12, u32) and drop the add from the block, which then
// stays empty after dead_instruction_elimination.
func TestFoldConstantsPass_FoldsSumOfTwoConstants(t *testing.T) {
	ssa := ir.NewSsa()
	fn := ssa.AddFunction("main", ir.RuntimeAcir)
	dfg := fn.DFG
	block := fn.Entry()

	v0 := dfg.Constant(fieldU64(5), ir.UnsignedOf(32))
	v1 := dfg.Constant(fieldU64(7), ir.UnsignedOf(32))
	sum := dfg.InsertInstructionAndResultsWithoutSimplification(block, ir.InstructionData{
		Op: ir.OpBinary, BinOp: ir.BinAdd, LHS: v0, RHS: v1, ResultType: ir.NumericOf(ir.UnsignedOf(32)),
	}, ir.CallStackId{})
	v2 := sum.First()

	require.NoError(t, FoldConstantsPass().Run(ssa))

	c, ok := dfg.GetNumericConstant(dfg.Resolve(v2))
	require.True(t, ok, "v2 must resolve to a known constant after folding")
	assert.Equal(t, fieldU64(12).String(), c.String())

	require.NoError(t, DeadInstructionEliminationPass().Run(ssa))
	assert.Empty(t, dfg.Block(block).Instructions(), "the folded, now-unused add instruction must be eliminated")
}

func fieldU64(n uint64) ir.FieldElement { return fieldelement.FromUint64(n) }
