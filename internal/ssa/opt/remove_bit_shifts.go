package opt

import (
	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// RemoveBitShiftsPass replaces every Shl/Shr binary instruction in ACIR
// functions with an equivalent multiply/divide-by-a-dynamically-computed
// power-of-two sequence, since arithmetic circuits have no native shift
// opcode. Brillig functions are left untouched: the bytecode backend has
// a real shift instruction, so this pass is a no-op there exactly as in
// the original (ssa/opt/remove_bit_shifts.rs, read in full this
// session — the early `if function.runtime().is_brillig() { return }`
// guard, insert_wrapping_shift_left/insert_shift_right, and the
// square-and-multiply pow helper are all translated here in the same
// algorithmic shape, renamed into this package's conventions).
func RemoveBitShiftsPass() Pass {
	return NewPass("remove_bit_shifts",
		"Lowers Shl/Shr into multiply/divide by a dynamically-computed power of two (ACIR only).",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				if fn.Runtime.IsBrillig() {
					continue
				}
				removeBitShiftsInFunction(fn)
			}
			return nil
		})
}

func removeBitShiftsInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).TakeInstructions()

		b := ssagen.NewFunctionBuilder(fn)
		b.SwitchToBlock(block)

		for _, id := range original {
			data := dfg.Instruction(id)
			if data.Op != ir.OpBinary || (data.BinOp != ir.BinShl && data.BinOp != ir.BinShr) {
				dfg.Block(block).AppendExisting(id)
				continue
			}

			t := data.ResultType.UnwrapNumeric()
			results := dfg.ResultsOf(id)
			var replacement ir.ValueId
			if data.BinOp == ir.BinShl {
				replacement = insertWrappingShiftLeft(b, data.LHS, data.RHS, t)
			} else {
				replacement = insertShiftRight(b, data.LHS, data.RHS, t)
			}
			if len(results) == 1 {
				dfg.ReplaceValue(results[0], replacement)
			}
			// the replacement sequence was already appended to the
			// block by the builder calls above; the original Shl/Shr
			// instruction itself is simply not re-added.
		}
	}
}

// insertWrappingShiftLeft computes lhs << rhs as lhs * 2^rhs, truncated
// back to t's bit width (the "wrapping" part: overflow bits are
// discarded exactly as a real shift-left would).
//
// When rhs is a known constant, the exact growth in bit width
// (maxLhsBits + shiftAmount) is known too, which lets this skip the
// truncate entirely when the product provably already fits t's width —
// matching the original's max_bit <= bit_size fast path.
func insertWrappingShiftLeft(b *ssagen.FunctionBuilder, lhs, rhs ir.ValueId, t ir.NumericType) ir.ValueId {
	dfg := b.Function().DFG
	bitSize := t.BitSize

	if rc, ok := dfg.GetNumericConstant(dfg.Resolve(rhs)); ok {
		shiftAmount := uint32(rc.BigInt().Uint64())
		if shiftAmount >= 128 {
			// 2^shiftAmount overflows a u128 in the original, whose own
			// overflow arm carries an "if bit_size < 128" check that is
			// dead there (the outer assert already guarantees it) —
			// kept as the zero result without the dead inner check, per
			// DESIGN.md.
			return b.Constant(ir.FieldElementZero(), t)
		}
		pow := b.Constant(ir.FromUint64(uint64(1)<<shiftAmount), t)
		maxBit := dfg.GetValueMaxNumBits(dfg.Resolve(lhs)) + shiftAmount

		if maxBit <= bitSize {
			return b.InsertBinary(ir.BinMul, lhs, pow, t)
		}
		field := b.InsertCast(lhs, ir.Field())
		powField := b.InsertCast(pow, ir.Field())
		product := b.InsertBinary(ir.BinMul, field, powField, ir.Field())
		return b.InsertTruncate(product, bitSize, maxBit, t)
	}

	// Dynamic shift amount: no single known max_bit to truncate to, so
	// this always casts through Field and truncates to the widest
	// possible growth (bitSize doubled). The original instead nullifies
	// an out-of-range shift via a separate overflow predicate; this port
	// keeps the simpler truncate-based bound here. See DESIGN.md.
	pow := insertPow(b, rhs, t.MaxBitSize())
	field := b.InsertCast(lhs, ir.Field())
	powField := b.InsertCast(pow, ir.Field())
	product := b.InsertBinary(ir.BinMul, field, powField, ir.Field())
	return b.InsertTruncate(product, bitSize, 2*t.MaxBitSize(), t)
}

// insertShiftRight computes lhs >> rhs as lhs / 2^rhs (unsigned) or, for
// signed operands, the same division performed on the two's-complement
// magnitude (sign handling left to the surrounding cast/truncate
// instructions already present from the unsigned path, matching the
// reduced-but-real scope noted in DESIGN.md for this pass).
func insertShiftRight(b *ssagen.FunctionBuilder, lhs, rhs ir.ValueId, t ir.NumericType) ir.ValueId {
	pow := insertPow(b, rhs, t.MaxBitSize())
	return b.InsertBinary(ir.BinDiv, lhs, pow, t)
}

// insertPow computes 2^exponent via square-and-multiply: exponent is a
// runtime SSA value (not necessarily a constant), so the power can't be
// folded directly. This walks every bit position up to maxBits,
// extracting each bit of exponent and conditionally folding the
// running square into the accumulator — the same shape as the
// original's pow_dyn helper, which extracts bits via a to_bits
// intrinsic this IR has no equivalent for. Bit i of exponent is
// extracted here as (exponent / 2^i) mod 2 instead: both 2^i and 2 are
// Go-level constants (i is the loop counter, not an SSA value), so
// this never has to build a BinShr of its own — which would be a
// replacement instruction this same pass's single pre-captured
// instruction list can never revisit, left to reach codegen unlowered.
func insertPow(b *ssagen.FunctionBuilder, exponent ir.ValueId, maxBits uint32) ir.ValueId {
	expType := ir.UnsignedOf(maxBits)
	unsignedExp := b.InsertCast(exponent, expType)
	two := b.Constant(ir.FromUint64(2), expType)

	acc := b.Constant(ir.One(), ir.Field())
	square := b.Constant(ir.FromUint64(2), ir.Field())

	for i := uint32(0); i < maxBits; i++ {
		divisor := b.Constant(ir.FromUint64(uint64(1)<<i), expType)
		quotient := b.InsertBinary(ir.BinDiv, unsignedExp, divisor, expType)
		bit := b.InsertBinary(ir.BinMod, quotient, two, expType)
		bitField := b.InsertCast(bit, ir.Field())
		isSet := b.InsertBinary(ir.BinEq, bitField, b.Constant(ir.One(), ir.Field()), ir.Bool())
		candidate := b.InsertBinary(ir.BinMul, acc, square, ir.Field())
		acc = b.InsertIfElse(isSet, candidate, acc, ir.NumericOf(ir.Field()))
		square = b.InsertBinary(ir.BinMul, square, square, ir.Field())
	}
	return acc
}
