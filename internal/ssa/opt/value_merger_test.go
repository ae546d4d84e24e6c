package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// ValueMerger idempotence: merging a position where both arms already
// hold the identical value emits no instruction at all — Merge sees the
// same resolved ValueId on both sides and passes it through unchanged.
func TestValueMerger_IdempotentWhenArmsAgree(t *testing.T) {
	ssa := ir.NewSsa()
	fn := ssa.AddFunction("main", ir.RuntimeAcir)
	dfg := fn.DFG
	block := fn.Entry()
	cond := dfg.AddBlockParameter(block, ir.NumericOf(ir.Bool()))
	a := dfg.Constant(fieldU64(42), ir.UnsignedOf(32))

	b := ssagen.NewFunctionBuilder(fn)
	b.SwitchToBlock(block)
	before := len(dfg.Block(block).Instructions())

	merger := NewValueMerger(b)
	out := merger.Merge(cond, []ir.ValueId{a}, []ir.ValueId{a}, []ir.Type{ir.NumericOf(ir.UnsignedOf(32))})

	require.Len(t, out, 1)
	assert.Equal(t, a.Index(), out[0].Index())
	assert.Equal(t, before, len(dfg.Block(block).Instructions()), "merging identical arms must emit nothing")
}

// ValueMerger correctness: merging two different arms picks the then
// side when the condition evaluates true and the else side when it
// evaluates false.
func TestValueMerger_SelectsCorrectArmByCondition(t *testing.T) {
	u32 := ir.UnsignedOf(32)
	thenConst := fieldU64(11)
	elseConst := fieldU64(22)

	for _, tc := range []struct {
		condIsTrue bool
		want       ir.FieldElement
	}{
		{condIsTrue: true, want: thenConst},
		{condIsTrue: false, want: elseConst},
	} {
		ssa := ir.NewSsa()
		fn := ssa.AddFunction("main", ir.RuntimeAcir)
		dfg := fn.DFG
		block := fn.Entry()

		condVal := ir.FieldElementZero()
		if tc.condIsTrue {
			condVal = ir.One()
		}
		cond := dfg.Constant(condVal, ir.Bool())
		a := dfg.Constant(thenConst, u32)
		bVal := dfg.Constant(elseConst, u32)

		builder := ssagen.NewFunctionBuilder(fn)
		builder.SwitchToBlock(block)
		merger := NewValueMerger(builder)

		out := merger.Merge(cond, []ir.ValueId{a}, []ir.ValueId{bVal}, []ir.Type{ir.NumericOf(u32)})
		require.Len(t, out, 1)

		c, ok := dfg.GetNumericConstant(out[0])
		require.True(t, ok)
		assert.Equal(t, tc.want.String(), c.String())
	}
}
