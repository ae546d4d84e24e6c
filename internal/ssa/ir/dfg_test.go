package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/fieldelement"
)

func TestConstantDeduplication(t *testing.T) {
	dfg := NewDataFlowGraph()
	a := dfg.Constant(fieldU64(7), UnsignedOf(32))
	b := dfg.Constant(fieldU64(7), UnsignedOf(32))
	c := dfg.Constant(fieldU64(7), Field())

	assert.Equal(t, a.Index(), b.Index(), "equal value+type constants must share a ValueId")
	assert.NotEqual(t, a.Index(), c.Index(), "same value but different type must not be deduplicated")
}

func TestResolveFollowsChainToFixedPoint(t *testing.T) {
	dfg := NewDataFlowGraph()
	a := dfg.Constant(fieldU64(1), Field())
	b := dfg.Constant(fieldU64(2), Field())
	c := dfg.Constant(fieldU64(3), Field())

	dfg.ReplaceValue(a, b)
	dfg.ReplaceValue(b, c)

	require.Equal(t, c.Index(), dfg.Resolve(a).Index())
	require.Equal(t, c.Index(), dfg.Resolve(b).Index())
	require.Equal(t, c.Index(), dfg.Resolve(c).Index())
}

func TestCastFieldToFieldIsNoOp(t *testing.T) {
	dfg := NewDataFlowGraph()
	block := dfg.MakeBlock()
	v := dfg.Constant(fieldU64(5), Field())

	result := dfg.InsertInstructionAndResults(block, InstructionData{
		Op: OpCast, Operand: v, DstNumeric: Field(), ResultType: NumericOf(Field()),
	}, CallStackId{})

	assert.Equal(t, v.Index(), result.First().Index())
}

func TestCastUnsignedTruncates(t *testing.T) {
	dfg := NewDataFlowGraph()
	block := dfg.MakeBlock()
	v := dfg.Constant(fieldU64(300), Field())

	result := dfg.InsertInstructionAndResults(block, InstructionData{
		Op: OpCast, Operand: v, DstNumeric: UnsignedOf(8), ResultType: NumericOf(UnsignedOf(8)),
	}, CallStackId{})

	c, ok := dfg.GetNumericConstant(result.First())
	require.True(t, ok)
	assert.Equal(t, fieldU64(300%256).String(), c.String())
}

func TestCastSignedOnlySimplifiesBelowHalfRange(t *testing.T) {
	dfg := NewDataFlowGraph()
	block := dfg.MakeBlock()

	small := dfg.Constant(fieldU64(10), Field())
	r1 := dfg.InsertInstructionAndResults(block, InstructionData{
		Op: OpCast, Operand: small, DstNumeric: SignedOf(8), ResultType: NumericOf(SignedOf(8)),
	}, CallStackId{})
	c, ok := dfg.GetNumericConstant(r1.First())
	require.True(t, ok)
	assert.Equal(t, "10", c.String())

	large := dfg.Constant(fieldU64(200), Field())
	r2 := dfg.InsertInstructionAndResults(block, InstructionData{
		Op: OpCast, Operand: large, DstNumeric: SignedOf(8), ResultType: NumericOf(SignedOf(8)),
	}, CallStackId{})
	_, stillUnsimplified := dfg.GetNumericConstant(r2.First())
	assert.False(t, stillUnsimplified, "a constant at or above 2^(bits-1) must not be folded into Signed")
}

func TestConstrainOnKnownTrueIsRemoved(t *testing.T) {
	dfg := NewDataFlowGraph()
	block := dfg.MakeBlock()
	one := dfg.Constant(One(), Bool())

	result := dfg.InsertInstructionAndResults(block, InstructionData{Op: OpConstrain, Operand: one}, CallStackId{})
	assert.Equal(t, 0, result.Len())
	id, hasInstruction := result.InstructionID()
	assert.False(t, hasInstruction)
	_ = id
}

func fieldU64(n uint64) FieldElement { return fieldelement.FromUint64(n) }
