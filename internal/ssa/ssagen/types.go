package ssagen

import (
	"math/big"
	"strconv"
	"strings"

	"kanso/internal/ast"
	"kanso/internal/ssa/ir"
)

// typeOf maps a kanso source-level type name onto the SSA numeric type
// it's represented by. Kanso's EVM-flavored integer types (U8..U256) map
// onto equally-wide unsigned SSA integers; Address is treated as a
// 160-bit unsigned quantity, matching its EVM representation; anything
// unrecognized (including composite/struct types, out of scope for this
// reduced front-end seam) defaults to Field.
func typeOf(t *ast.VariableType) ir.Type {
	if t == nil {
		return ir.NumericOf(ir.Field())
	}
	name := t.Name.Value
	switch {
	case name == "bool":
		return ir.NumericOf(ir.Bool())
	case name == "Address":
		return ir.NumericOf(ir.UnsignedOf(160))
	case strings.HasPrefix(name, "U"):
		if bits, err := strconv.Atoi(name[1:]); err == nil {
			return ir.NumericOf(ir.UnsignedOf(uint32(bits)))
		}
	case strings.HasPrefix(name, "I"):
		if bits, err := strconv.Atoi(name[1:]); err == nil {
			return ir.NumericOf(ir.SignedOf(uint32(bits)))
		}
	}
	return ir.NumericOf(ir.Field())
}

func returnTypesOf(t *ast.VariableType) []ir.Type {
	if t == nil {
		return nil
	}
	if len(t.TupleElements) > 0 {
		out := make([]ir.Type, len(t.TupleElements))
		for i, el := range t.TupleElements {
			out[i] = typeOf(el)
		}
		return out
	}
	return []ir.Type{typeOf(t)}
}

// parseFieldLiteral parses a decimal or 0x-prefixed hexadecimal integer
// literal into a field constant.
func parseFieldLiteral(lit string) (ir.FieldElement, error) {
	lit = strings.TrimSpace(lit)
	base := 10
	digits := lit
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		base = 16
		digits = lit[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return ir.FieldElement{}, &literalError{lit}
	}
	return ir.FromBigIntField(n), nil
}

type literalError struct{ lit string }

func (e *literalError) Error() string { return "ssagen: invalid numeric literal " + e.lit }
