// Package fieldelement implements the opaque prime-field element type that
// the rest of the compiler treats as a black box: arithmetic is always
// performed modulo a fixed prime, never over raw machine integers.
package fieldelement

import "math/big"

// modulus is the BN254 scalar field prime, the default field of the
// original backend this compiler targets.
var modulus, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// FieldElement is an element of the scalar field, always reduced modulo
// modulus. The zero value is the field's zero element.
type FieldElement struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() FieldElement { return FieldElement{} }

// One returns the multiplicative identity.
func One() FieldElement {
	var f FieldElement
	f.v.SetInt64(1)
	return f
}

// FromUint64 lifts a machine integer into the field.
func FromUint64(n uint64) FieldElement {
	var f FieldElement
	f.v.SetUint64(n)
	f.v.Mod(&f.v, modulus)
	return f
}

// FromBigInt reduces an arbitrary-precision integer into the field.
// Negative inputs wrap around following Go's Euclidean Mod semantics
// (the result is always in [0, modulus)).
func FromBigInt(n *big.Int) FieldElement {
	var f FieldElement
	f.v.Mod(n, modulus)
	if f.v.Sign() < 0 {
		f.v.Add(&f.v, modulus)
	}
	return f
}

// FromBytesBE reduces a big-endian byte string into the field.
func FromBytesBE(b []byte) FieldElement {
	n := new(big.Int).SetBytes(b)
	return FromBigInt(n)
}

// ToBytesBE renders the element as a fixed 32-byte big-endian string.
func (f FieldElement) ToBytesBE() [32]byte {
	var out [32]byte
	f.v.FillBytes(out[:])
	return out
}

// BigInt returns a copy of the underlying value, in [0, modulus).
func (f FieldElement) BigInt() *big.Int {
	return new(big.Int).Set(&f.v)
}

// IsZero reports whether f is the additive identity.
func (f FieldElement) IsZero() bool { return f.v.Sign() == 0 }

// Add returns f+g mod modulus.
func (f FieldElement) Add(g FieldElement) FieldElement {
	var r FieldElement
	r.v.Add(&f.v, &g.v)
	r.v.Mod(&r.v, modulus)
	return r
}

// Sub returns f-g mod modulus.
func (f FieldElement) Sub(g FieldElement) FieldElement {
	var r FieldElement
	r.v.Sub(&f.v, &g.v)
	r.v.Mod(&r.v, modulus)
	if r.v.Sign() < 0 {
		r.v.Add(&r.v, modulus)
	}
	return r
}

// Mul returns f*g mod modulus.
func (f FieldElement) Mul(g FieldElement) FieldElement {
	var r FieldElement
	r.v.Mul(&f.v, &g.v)
	r.v.Mod(&r.v, modulus)
	return r
}

// Div returns f/g mod modulus (g must be non-zero; panics otherwise,
// mirroring the original's behavior of treating division by zero as an
// internal compiler error rather than a recoverable one).
func (f FieldElement) Div(g FieldElement) FieldElement {
	if g.IsZero() {
		panic("fieldelement: division by zero")
	}
	inv := new(big.Int).ModInverse(&g.v, modulus)
	var r FieldElement
	r.v.Mul(&f.v, inv)
	r.v.Mod(&r.v, modulus)
	return r
}

// Neg returns -f mod modulus.
func (f FieldElement) Neg() FieldElement {
	var r FieldElement
	r.v.Neg(&f.v)
	r.v.Mod(&r.v, modulus)
	if r.v.Sign() < 0 {
		r.v.Add(&r.v, modulus)
	}
	return r
}

// Equal reports whether f and g denote the same field element.
func (f FieldElement) Equal(g FieldElement) bool { return f.v.Cmp(&g.v) == 0 }

// Cmp orders field elements by their canonical [0, modulus) representative.
// Used only for deterministic iteration/printing, not for field arithmetic.
func (f FieldElement) Cmp(g FieldElement) int { return f.v.Cmp(&g.v) }

// String renders the canonical decimal representative.
func (f FieldElement) String() string { return f.v.String() }

// FitsInBits reports whether the canonical representative fits in the
// given number of unsigned bits, i.e. is strictly less than 2^bits.
func (f FieldElement) FitsInBits(bits uint32) bool {
	return f.v.BitLen() <= int(bits)
}
