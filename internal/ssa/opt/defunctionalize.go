package opt

import "kanso/internal/ssa/ir"

// DefunctionalizePass would normally replace every call through a
// function-typed value (a function passed around as data rather than
// named directly at the call site) with a numeric dispatch id plus a
// generated apply function switching on it, so that every later pass
// only ever has to deal with direct calls. Grounded on
// ssa/ir/defunctionalize.rs (read in full this session).
//
// This front end's grammar never produces a function-typed value
// outside of direct call position — contracts call functions by name,
// there is no function-literal expression and no way to store a
// function in a variable or pass one as an argument. Every OpCall
// instruction's Target therefore already resolves directly to a
// ValueFunction/ValueIntrinsic/ValueForeignFunction, which is exactly
// the postcondition this pass exists to establish. Running it is a
// structural no-op here; it stays in the pipeline at the position
// spec.md's ordering names so that a front end gaining closures later
// has somewhere to plug in without reshuffling the rest of the list.
func DefunctionalizePass() Pass {
	return NewPass("defunctionalize",
		"Replaces indirect calls through function values with a dispatch switch (no-op: this front end has no function values).",
		func(ssa *ir.Ssa) error {
			return nil
		})
}
