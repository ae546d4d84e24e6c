package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// Scenario 2: Shl by constant 3 on a u8 whose lhs is only known to need
// 5 bits. max_bit = 5 + 3 = 8 <= 8, so the lowering must not need to
// wrap around at all: the result is exactly lhs * 8.
func TestInsertWrappingShiftLeft_NoOverflowNeedsNoWraparound(t *testing.T) {
	ssa := ir.NewSsa()
	fn := ssa.AddFunction("main", ir.RuntimeAcir)
	b := ssagen.NewFunctionBuilder(fn)
	dfg := fn.DFG

	u8 := ir.UnsignedOf(8)
	lhs := dfg.Constant(fieldU64(17), u8) // 17 = 0b10001, needs 5 bits
	rhs := dfg.Constant(fieldU64(3), u8)

	result := insertWrappingShiftLeft(b, lhs, rhs, u8)

	c, ok := dfg.GetNumericConstant(dfg.Resolve(result))
	require.True(t, ok)
	assert.Equal(t, fieldU64(17*8).String(), c.String())
}

// Scenario 3: Shl by constant 5 on the same lhs. max_bit = 5 + 5 = 10 >
// 8, so the lowering must wrap: the result is (17 * 32) mod 256 = 32,
// not the unwrapped 544.
func TestInsertWrappingShiftLeft_OverflowWrapsToBitWidth(t *testing.T) {
	ssa := ir.NewSsa()
	fn := ssa.AddFunction("main", ir.RuntimeAcir)
	b := ssagen.NewFunctionBuilder(fn)
	dfg := fn.DFG

	u8 := ir.UnsignedOf(8)
	lhs := dfg.Constant(fieldU64(17), u8)
	rhs := dfg.Constant(fieldU64(5), u8)

	result := insertWrappingShiftLeft(b, lhs, rhs, u8)

	c, ok := dfg.GetNumericConstant(dfg.Resolve(result))
	require.True(t, ok)
	assert.Equal(t, fieldU64((17*32)%256).String(), c.String())
}

// Bit-shift equivalence: for every unsigned lhs and shift amount
// r < bitWidth, Shl(lhs, r) == (lhs * 2^r) mod 2^bitWidth and
// Shr(lhs, r) == lhs / 2^r (floor division, since lhs is unsigned).
func TestBitShiftEquivalence(t *testing.T) {
	const bitWidth = 8
	u8 := ir.UnsignedOf(bitWidth)

	for _, lhsVal := range []uint64{0, 1, 7, 63, 200, 255} {
		for r := uint32(0); r < bitWidth; r++ {
			ssa := ir.NewSsa()
			fn := ssa.AddFunction("main", ir.RuntimeAcir)
			b := ssagen.NewFunctionBuilder(fn)
			dfg := fn.DFG

			lhs := dfg.Constant(fieldU64(lhsVal), u8)
			rhs := dfg.Constant(fieldU64(uint64(r)), u8)

			shl := insertWrappingShiftLeft(b, lhs, rhs, u8)
			shlConst, ok := dfg.GetNumericConstant(dfg.Resolve(shl))
			require.True(t, ok)
			want := (lhsVal * (uint64(1) << r)) % (uint64(1) << bitWidth)
			assert.Equal(t, fieldU64(want).String(), shlConst.String(),
				"Shl(%d, %d)", lhsVal, r)

			shr := insertShiftRight(b, lhs, rhs, u8)
			shrConst, ok := dfg.GetNumericConstant(dfg.Resolve(shr))
			require.True(t, ok)
			assert.Equal(t, fieldU64(lhsVal>>r).String(), shrConst.String(),
				"Shr(%d, %d)", lhsVal, r)
		}
	}
}

// Power law: pow_dyn(2, rhs) == 2^rhs for every rhs up to the exponent's
// own bit width, evaluated over the field (insertPow always produces a
// Field-typed accumulator).
func TestPowerLaw(t *testing.T) {
	const maxBits = 8
	u8 := ir.UnsignedOf(maxBits)

	for r := uint32(0); r < maxBits; r++ {
		ssa := ir.NewSsa()
		fn := ssa.AddFunction("main", ir.RuntimeAcir)
		b := ssagen.NewFunctionBuilder(fn)
		dfg := fn.DFG

		rhs := dfg.Constant(fieldU64(uint64(r)), u8)
		result := insertPow(b, rhs, maxBits)

		c, ok := dfg.GetNumericConstant(dfg.Resolve(result))
		require.True(t, ok)
		assert.Equal(t, fieldU64(uint64(1)<<r).String(), c.String(), "pow(2, %d)", r)
	}
}

// RemoveBitShiftsPass only touches ACIR functions; a Brillig function's
// Shl/Shr survive untouched since the bytecode backend has a native
// shift instruction.
func TestRemoveBitShiftsPass_SkipsBrilligFunctions(t *testing.T) {
	ssa := ir.NewSsa()
	fn := ssa.AddFunction("unconstrained_fn", ir.RuntimeBrillig)
	dfg := fn.DFG
	block := fn.Entry()

	u8 := ir.UnsignedOf(8)
	lhs := dfg.Constant(fieldU64(17), u8)
	rhs := dfg.Constant(fieldU64(3), u8)
	dfg.InsertInstructionAndResultsWithoutSimplification(block, ir.InstructionData{
		Op: ir.OpBinary, BinOp: ir.BinShl, LHS: lhs, RHS: rhs, ResultType: ir.NumericOf(u8),
	}, ir.CallStackId{})

	require.NoError(t, RemoveBitShiftsPass().Run(ssa))

	instrs := dfg.Block(block).Instructions()
	require.Len(t, instrs, 1)
	assert.Equal(t, ir.OpBinary, dfg.Instruction(instrs[0]).Op)
	assert.Equal(t, ir.BinShl, dfg.Instruction(instrs[0]).BinOp)
}
