package ir

import "fmt"

// NumericType is the scalar type of a Value: the native prime field, or a
// fixed-width two's-complement integer interpretation over the same
// underlying field element.
type NumericType struct {
	Kind    NumericKind
	BitSize uint32 // unused when Kind == NativeField
}

// NumericKind distinguishes the three numeric interpretations.
type NumericKind uint8

const (
	NativeField NumericKind = iota
	Unsigned
	Signed
)

// Field is shorthand for the native field numeric type.
func Field() NumericType { return NumericType{Kind: NativeField} }

// UnsignedOf builds an unsigned integer numeric type of the given width.
func UnsignedOf(bits uint32) NumericType { return NumericType{Kind: Unsigned, BitSize: bits} }

// SignedOf builds a signed integer numeric type of the given width.
func SignedOf(bits uint32) NumericType { return NumericType{Kind: Signed, BitSize: bits} }

// Bool is the canonical boolean representation: an unsigned 1-bit integer.
func Bool() NumericType { return UnsignedOf(1) }

func (n NumericType) String() string {
	switch n.Kind {
	case NativeField:
		return "Field"
	case Unsigned:
		return fmt.Sprintf("u%d", n.BitSize)
	case Signed:
		return fmt.Sprintf("i%d", n.BitSize)
	default:
		return "<invalid numeric type>"
	}
}

// MaxBitSize returns the bit size used for range-check purposes: 254 for
// the native field (the BN254 scalar field's bit length), or the
// declared width otherwise.
func (n NumericType) MaxBitSize() uint32 {
	if n.Kind == NativeField {
		return 254
	}
	return n.BitSize
}

// TypeKind distinguishes the composite shapes a Value can have.
type TypeKind uint8

const (
	TypeNumeric TypeKind = iota
	TypeArray
	TypeSlice
	TypeReference
	TypeFunction
)

// Type is the full type of a Value: a numeric scalar, a fixed-length
// array, a dynamically-sized slice, a mutable reference, or a function
// pointer. Only one branch is meaningful per Kind.
type Type struct {
	Kind     TypeKind
	Numeric  NumericType
	Element  *Type // Array, Slice, Reference
	ArrayLen uint32
}

// NumericOf wraps a numeric type as a full Type.
func NumericOf(n NumericType) Type { return Type{Kind: TypeNumeric, Numeric: n} }

// ArrayOf builds a fixed-length array-of-element type.
func ArrayOf(elem Type, length uint32) Type {
	return Type{Kind: TypeArray, Element: &elem, ArrayLen: length}
}

// SliceOf builds a dynamically-sized slice-of-element type.
func SliceOf(elem Type) Type { return Type{Kind: TypeSlice, Element: &elem} }

// ReferenceTo builds a mutable-reference-to-element type.
func ReferenceTo(elem Type) Type { return Type{Kind: TypeReference, Element: &elem} }

// FunctionType is the type of a function value (used for function
// pointers passed to higher-order calls before defunctionalization).
func FunctionType() Type { return Type{Kind: TypeFunction} }

// UnwrapNumeric asserts this type is numeric and returns its NumericType.
// Panics otherwise: callers only call this where the type is already
// known numeric (mirrors the original's unwrap_numeric, an internal
// compiler error if violated).
func (t Type) UnwrapNumeric() NumericType {
	if t.Kind != TypeNumeric {
		panic(fmt.Sprintf("ir: UnwrapNumeric called on non-numeric type %s", t))
	}
	return t.Numeric
}

// Equal reports structural equality between two types.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypeNumeric:
		return t.Numeric == other.Numeric
	case TypeArray:
		return t.ArrayLen == other.ArrayLen && t.Element.Equal(*other.Element)
	case TypeSlice, TypeReference:
		return t.Element.Equal(*other.Element)
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeNumeric:
		return t.Numeric.String()
	case TypeArray:
		return fmt.Sprintf("[%s; %d]", t.Element, t.ArrayLen)
	case TypeSlice:
		return fmt.Sprintf("[%s]", t.Element)
	case TypeReference:
		return fmt.Sprintf("&mut %s", t.Element)
	case TypeFunction:
		return "function"
	default:
		return "<invalid type>"
	}
}
