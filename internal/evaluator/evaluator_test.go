package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/acir"
	"kanso/internal/brillig"
	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// Scenario 6: force_brillig_output marks every original function as
// Brillig and introduces exactly one ACIR circuit (the trampoline)
// taking over as the program's entry point, while every original
// function (main included) still compiles down to its own brillig
// bytecode.
func TestForceBrilligOutput_YieldsOneAcirTrampolinePerBrilligFunction(t *testing.T) {
	program := ir.NewSsa()

	main := program.AddFunction("main", ir.RuntimeAcir)
	u32 := ir.UnsignedOf(32)
	mainBuilder := ssagen.NewFunctionBuilder(main)
	p := mainBuilder.AddParameter(main.Entry(), ir.NumericOf(u32))
	main.ReturnTypes = []ir.Type{ir.NumericOf(u32)}
	mainBuilder.Return([]ir.ValueId{p})

	helper := program.AddFunction("helper", ir.RuntimeAcir)
	helperBuilder := ssagen.NewFunctionBuilder(helper)
	helper.ReturnTypes = nil
	helperBuilder.Return(nil)

	require.Equal(t, main.ID, program.MainID())

	forceBrilligOutput(program)

	fns := program.Functions()
	require.Len(t, fns, 3, "the two original functions plus the new trampoline")

	var acirCount, brilligCount int
	var trampoline *ir.Function
	for _, fn := range fns {
		if fn.Runtime.IsBrillig() {
			brilligCount++
			continue
		}
		acirCount++
		trampoline = fn
	}
	assert.Equal(t, 1, acirCount, "force_brillig_output must leave exactly one ACIR function")
	assert.Equal(t, 2, brilligCount, "every original function becomes brillig")

	require.NotNil(t, trampoline)
	assert.Equal(t, "main", trampoline.Name, "the trampoline takes over main's external name")
	assert.Equal(t, program.MainFunction().ID, trampoline.ID, "the trampoline is the new entry point")
	assert.Equal(t, []ir.Type{ir.NumericOf(u32)}, trampoline.ReturnTypes)
	assert.Len(t, trampoline.Parameters(), 1, "the trampoline keeps main's original parameter count")

	_, _, err := acir.Compile(trampoline, acir.UnboundedWidth())
	require.NoError(t, err, "the trampoline itself must still be a valid ACIR circuit")

	procs := brillig.NewProcedureRegistry()
	for _, fn := range fns {
		if !fn.Runtime.IsBrillig() {
			continue
		}
		_, err := brillig.Generate(fn, map[string]brillig.Register{}, procs)
		require.NoErrorf(t, err, "function %q must still lower to brillig bytecode", fn.Name)
	}
}
