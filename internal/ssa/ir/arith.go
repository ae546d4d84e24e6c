package ir

import (
	"math/big"

	"kanso/internal/fieldelement"
)

// FieldElementZero re-exports fieldelement.Zero for brevity within this
// package's simplification rules.
func FieldElementZero() FieldElement { return fieldelement.Zero() }

// FromBigIntField reduces an arbitrary-precision integer into a field
// element, for front ends parsing integer literals.
func FromBigIntField(n *big.Int) FieldElement { return fieldelement.FromBigInt(n) }

// FromUint64 lifts a machine integer into the field.
func FromUint64(n uint64) FieldElement { return fieldelement.FromUint64(n) }

// FromUint64Pow2 returns 2^bits as a field element, used by cast
// truncation and the Shl/Shr constant-folding rules.
func FromUint64Pow2(bits uint32) FieldElement {
	pow := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return fieldelement.FromBigInt(pow)
}

// FieldElementMod reduces c modulo m, both treated as non-negative
// integers (not field elements in the cryptographic sense — this is
// only used for the integer-truncation semantics of casts and bit
// shifts, never for field division).
func FieldElementMod(c, m FieldElement) FieldElement {
	r := new(big.Int).Mod(c.BigInt(), m.BigInt())
	return fieldelement.FromBigInt(r)
}

// bitwiseNot complements the low BitSize bits of c (undefined/unused for
// NativeField, which has no fixed width to complement against).
func bitwiseNot(c FieldElement, t NumericType) FieldElement {
	if t.Kind == NativeField {
		return c
	}
	mask := new(big.Int).Sub(FromUint64Pow2(t.BitSize).BigInt(), big.NewInt(1))
	r := new(big.Int).Xor(c.BigInt(), mask)
	return fieldelement.FromBigInt(r)
}

// evalBinary folds a binary operator over two known-constant operands,
// respecting the wraparound semantics of the operand's numeric type.
// Returns ok=false for operations this constant folder does not attempt:
// division or modulo by zero, modulo over the native field, shifts by an
// amount that does not fit in a uint64, and unknown operators. Field
// division by a non-zero constant is folded.
func evalBinary(op BinaryOp, l, r FieldElement, t NumericType) (FieldElement, bool) {
	lb, rb := l.BigInt(), r.BigInt()
	switch op {
	case BinAdd:
		return wrap(new(big.Int).Add(lb, rb), t), true
	case BinSub:
		return wrap(new(big.Int).Sub(lb, rb), t), true
	case BinMul:
		return wrap(new(big.Int).Mul(lb, rb), t), true
	case BinDiv:
		if rb.Sign() == 0 {
			return FieldElement{}, false
		}
		if t.Kind == NativeField {
			return l.Div(r), true
		}
		return wrap(new(big.Int).Quo(lb, rb), t), true
	case BinMod:
		if rb.Sign() == 0 || t.Kind == NativeField {
			return FieldElement{}, false
		}
		return wrap(new(big.Int).Rem(lb, rb), t), true
	case BinEq:
		return boolOf(l.Equal(r)), true
	case BinLt:
		return boolOf(lb.Cmp(rb) < 0), true
	case BinAnd:
		return wrap(new(big.Int).And(lb, rb), t), true
	case BinOr:
		return wrap(new(big.Int).Or(lb, rb), t), true
	case BinXor:
		return wrap(new(big.Int).Xor(lb, rb), t), true
	case BinShl:
		if !rb.IsUint64() {
			return FieldElement{}, false
		}
		return wrap(new(big.Int).Lsh(lb, uint(rb.Uint64())), t), true
	case BinShr:
		if !rb.IsUint64() {
			return FieldElement{}, false
		}
		return wrap(new(big.Int).Rsh(lb, uint(rb.Uint64())), t), true
	default:
		return FieldElement{}, false
	}
}

func wrap(v *big.Int, t NumericType) FieldElement {
	if t.Kind == NativeField {
		return fieldelement.FromBigInt(v)
	}
	return FieldElementMod(fieldelement.FromBigInt(v), FromUint64Pow2(t.BitSize))
}

func boolOf(b bool) FieldElement {
	if b {
		return fieldelement.One()
	}
	return fieldelement.Zero()
}
