package ssagen

import (
	"fmt"

	"kanso/internal/ast"
	"kanso/internal/semantic"
	"kanso/internal/ssa/ir"
)

// BuildProgram is the create_program entry point of spec.md §2: given a
// monomorphized AST (here, a kanso ast.Contract already checked against
// a semantic.ContextRegistry by the front end) it builds the full Ssa
// program that the optimization pipeline then runs over.
//
// The front end is out of scope for this compiler (spec.md §1 treats it
// as an external collaborator), so this walk intentionally only
// understands the subset of kanso syntax needed to exercise every SSA
// instruction kind: literals, identifiers, binary/unary expressions,
// let/assign/return/require statements, and calls. Statements this walk
// doesn't recognize are skipped; an expression it doesn't recognize is
// returned as an "unsupported expression" error.
func BuildProgram(contract *ast.Contract, _ *semantic.ContextRegistry) (*ir.Ssa, error) {
	prog := ir.NewSsa()

	functions := collectFunctions(contract)
	if len(functions) == 0 {
		return nil, fmt.Errorf("ssagen: contract %q has no functions to compile", contract.Name.Value)
	}

	built := make(map[string]*ir.Function, len(functions))
	for _, astFn := range functions {
		runtime := ir.RuntimeAcir
		fn := prog.AddFunction(astFn.Name.Value, runtime)
		built[astFn.Name.Value] = fn
	}

	for _, astFn := range functions {
		fn := built[astFn.Name.Value]
		if err := buildFunction(fn, astFn); err != nil {
			return nil, fmt.Errorf("ssagen: building %q: %w", astFn.Name.Value, err)
		}
	}

	return prog, nil
}

func collectFunctions(contract *ast.Contract) []*ast.Function {
	var out []*ast.Function
	for _, item := range contract.Items {
		if fn, ok := item.(*ast.Function); ok {
			out = append(out, fn)
		}
	}
	return out
}

// scope is a per-function environment mapping source-level names to
// their current SSA value, the monomorphic-SSA-construction analogue of
// the teacher builder's variable stack.
type scope struct {
	vars map[string]ir.ValueId
}

func newScope() *scope { return &scope{vars: make(map[string]ir.ValueId)} }

func buildFunction(fn *ir.Function, astFn *ast.Function) error {
	b := NewFunctionBuilder(fn)
	sc := newScope()

	for _, p := range astFn.Params {
		t := typeOf(p.Type)
		v := b.AddParameter(fn.Entry(), t)
		sc.vars[p.Name.Value] = v
	}
	fn.ReturnTypes = returnTypesOf(astFn.Return)

	if astFn.Body == nil {
		b.Return(nil)
		return nil
	}

	for _, item := range astFn.Body.Items {
		if err := buildBlockItem(b, sc, item); err != nil {
			return err
		}
	}

	if astFn.Body.TailExpr != nil {
		v, err := buildExpr(b, sc, astFn.Body.TailExpr.Expr)
		if err != nil {
			return err
		}
		b.Return([]ir.ValueId{v})
		return nil
	}

	b.Return(nil)
	return nil
}

func buildBlockItem(b *FunctionBuilder, sc *scope, item ast.FunctionBlockItem) error {
	switch n := item.(type) {
	case *ast.LetStmt:
		v, err := buildExpr(b, sc, n.Expr)
		if err != nil {
			return err
		}
		sc.vars[n.Name.Value] = v
		return nil
	case *ast.AssignStmt:
		v, err := buildExpr(b, sc, n.Value)
		if err != nil {
			return err
		}
		if ident, ok := n.Target.(*ast.IdentExpr); ok {
			sc.vars[ident.Name] = v
		}
		return nil
	case *ast.RequireStmt:
		if len(n.Args) == 0 {
			return fmt.Errorf("require!() with no arguments")
		}
		cond, err := buildExpr(b, sc, n.Args[0])
		if err != nil {
			return err
		}
		b.InsertConstrain(cond, "require!")
		return nil
	case *ast.ReturnStmt:
		if n.Value == nil {
			b.Return(nil)
			return nil
		}
		v, err := buildExpr(b, sc, n.Value)
		if err != nil {
			return err
		}
		b.Return([]ir.ValueId{v})
		return nil
	case *ast.ExprStmt:
		_, err := buildExpr(b, sc, n.Expr)
		return err
	case *ast.Comment:
		return nil
	default:
		return nil
	}
}

func buildExpr(b *FunctionBuilder, sc *scope, e ast.Expr) (ir.ValueId, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return buildLiteral(b, n)
	case *ast.IdentExpr:
		v, ok := sc.vars[n.Name]
		if !ok {
			return ir.ValueId{}, fmt.Errorf("undefined identifier %q", n.Name)
		}
		return v, nil
	case *ast.ParenExpr:
		return buildExpr(b, sc, n.Value)
	case *ast.UnaryExpr:
		return buildUnary(b, sc, n)
	case *ast.BinaryExpr:
		return buildBinary(b, sc, n)
	case *ast.CallExpr:
		return buildCall(b, sc, n)
	default:
		return ir.ValueId{}, fmt.Errorf("ssagen: unsupported expression %T", e)
	}
}

func buildUnary(b *FunctionBuilder, sc *scope, n *ast.UnaryExpr) (ir.ValueId, error) {
	v, err := buildExpr(b, sc, n.Value)
	if err != nil {
		return ir.ValueId{}, err
	}
	switch n.Op {
	case "!":
		return b.InsertNot(v, ir.Bool()), nil
	case "-":
		zero := b.Constant(ir.FieldElementZero(), ir.Field())
		return b.InsertBinary(ir.BinSub, zero, v, ir.Field()), nil
	default:
		return v, nil
	}
}

func buildBinary(b *FunctionBuilder, sc *scope, n *ast.BinaryExpr) (ir.ValueId, error) {
	lhs, err := buildExpr(b, sc, n.Left)
	if err != nil {
		return ir.ValueId{}, err
	}
	rhs, err := buildExpr(b, sc, n.Right)
	if err != nil {
		return ir.ValueId{}, err
	}
	op, resultType, negate, err := binaryOpOf(n.Op)
	if err != nil {
		return ir.ValueId{}, err
	}
	result := b.InsertBinary(op, lhs, rhs, resultType)
	if negate {
		result = b.InsertNot(result, resultType)
	}
	return result, nil
}

// binaryOpOf maps a source operator to the instruction that computes
// it, plus whether the caller must still negate that instruction's
// result: this IR has no not-equal or greater-or-equal comparison op of
// its own, so "!=" computes BinEq and ">=" computes BinLt, and the
// third return value tells buildBinary to wrap the result in a Not —
// "a != b" lowers to Not(Eq(a, b)), ">=" to Not(Lt(a, b)).
func binaryOpOf(op string) (ir.BinaryOp, ir.NumericType, bool, error) {
	switch op {
	case "+":
		return ir.BinAdd, ir.Field(), false, nil
	case "-":
		return ir.BinSub, ir.Field(), false, nil
	case "*":
		return ir.BinMul, ir.Field(), false, nil
	case "/":
		return ir.BinDiv, ir.Field(), false, nil
	case "%":
		return ir.BinMod, ir.Field(), false, nil
	case "==":
		return ir.BinEq, ir.Bool(), false, nil
	case "!=":
		return ir.BinEq, ir.Bool(), true, nil
	case "<":
		return ir.BinLt, ir.Bool(), false, nil
	case ">=":
		return ir.BinLt, ir.Bool(), true, nil
	case "&":
		return ir.BinAnd, ir.Field(), false, nil
	case "|":
		return ir.BinOr, ir.Field(), false, nil
	case "^":
		return ir.BinXor, ir.Field(), false, nil
	case "<<":
		return ir.BinShl, ir.Field(), false, nil
	case ">>":
		return ir.BinShr, ir.Field(), false, nil
	default:
		return 0, ir.NumericType{}, false, fmt.Errorf("ssagen: unsupported binary operator %q", op)
	}
}

func buildLiteral(b *FunctionBuilder, n *ast.LiteralExpr) (ir.ValueId, error) {
	switch n.Value {
	case "true":
		return b.Constant(ir.One(), ir.Bool()), nil
	case "false":
		return b.Constant(ir.FieldElementZero(), ir.Bool()), nil
	default:
		val, err := parseFieldLiteral(n.Value)
		if err != nil {
			return ir.ValueId{}, err
		}
		return b.Constant(val, ir.Field()), nil
	}
}

func buildCall(b *FunctionBuilder, sc *scope, n *ast.CallExpr) (ir.ValueId, error) {
	name := calleeName(n.Callee)
	args := make([]ir.ValueId, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := buildExpr(b, sc, a)
		if err != nil {
			return ir.ValueId{}, err
		}
		args = append(args, v)
	}
	target := b.fn.DFG.ForeignFunctionValue(name)
	results := b.InsertCall(target, args, []ir.Type{ir.NumericOf(ir.Field())})
	if len(results) == 0 {
		return b.Constant(ir.FieldElementZero(), ir.Field()), nil
	}
	return results[0], nil
}

func calleeName(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.IdentExpr:
		return n.Name
	case *ast.CalleePath:
		if len(n.Parts) == 0 {
			return "<path>"
		}
		return n.Parts[len(n.Parts)-1].Value
	default:
		return "<call>"
	}
}
