package opt

import "kanso/internal/ssa/ir"

// UnrollLoopsIterativelyPass would replace every bounded loop with a
// copy of its body per iteration, substituting the induction variable
// with its compile-time value each time, repeating until no loop
// remains or the pass gives up on one whose bound isn't a compile-time
// constant. Grounded on ssa/opt/unrolling.rs.
//
// A loop is a block that is its own (possibly indirect) successor — a
// back edge. This front end's ssagen never builds one: there is no
// loop construct in the grammar it lowers (contracts are straight-line
// sequences of statements; see DESIGN.md), so every reachable block
// graph this compiler ever produces is acyclic by construction, and
// there is nothing for this pass to find. It is kept at its pipeline
// position, checking that invariant, rather than removed, so that a
// future front end adding a loop construct has an obvious place to
// wire real unrolling into.
func UnrollLoopsIterativelyPass() Pass {
	return NewPass("unroll_loops_iteratively",
		"Unrolls bounded loops by repeating their body once per iteration (no-op: this front end never produces a back edge).",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				if hasBackEdge(fn) {
					// left as a structural assertion: a back edge reaching
					// here means a front end started emitting loops without
					// this pass growing real unrolling to go with it.
					panic("ir: unroll_loops_iteratively: unexpected back edge in acyclic-only pipeline")
				}
			}
			return nil
		})
}

func hasBackEdge(fn *ir.Function) bool {
	dfg := fn.DFG
	visiting := map[uint32]bool{}
	done := map[uint32]bool{}

	var walk func(ir.BasicBlockId) bool
	walk = func(id ir.BasicBlockId) bool {
		if visiting[id.Index()] {
			return true
		}
		if done[id.Index()] {
			return false
		}
		visiting[id.Index()] = true
		for _, succ := range dfg.Block(id).Successors() {
			if walk(succ) {
				return true
			}
		}
		visiting[id.Index()] = false
		done[id.Index()] = true
		return false
	}
	return walk(fn.Entry())
}
