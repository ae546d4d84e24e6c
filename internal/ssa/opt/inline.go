package opt

import "kanso/internal/ssa/ir"

// InlinePass replaces a direct call to a known, non-recursive callee
// with a copy of that callee's body spliced in at the call site,
// substituting call arguments for callee parameters and the callee's
// return values for the call's own results. Grounded on
// ssa/opt/inline.rs, read in full this session.
//
// The original inlines callees of arbitrary shape by mapping every one
// of the callee's blocks into fresh blocks in the caller and rewiring
// jumps accordingly. This front end's ssagen never emits more than one
// block per function (no control-flow constructs lower to branches
// yet — see DESIGN.md), so every real callee is already single-block,
// and this port only handles that case: it leaves a call alone rather
// than inline it if the callee's reachable-block count is ever more
// than one, instead of reimplementing general multi-block inlining
// against a front end that cannot produce it.
//
// noPredicates distinguishes the pipeline's two inlining passes: the
// first run (before flatten_cfg) only inlines callees that share the
// caller's runtime, preserving the ACIR/Brillig boundary until the CFG
// has been flattened; the second run (after flatten_cfg, named
// inline_no_predicates in spec.md's ordering) no longer needs to keep
// that boundary since cross-runtime calls have already been resolved
// by then, so it inlines regardless of runtime.
func InlinePass(noPredicates bool) Pass {
	name := "inline"
	desc := "Inlines direct calls to single-block, non-recursive callees, respecting the runtime boundary."
	if noPredicates {
		name = "inline_no_predicates"
		desc = "Inlines direct calls to single-block, non-recursive callees, ignoring the runtime boundary."
	}
	return NewPass(name, desc, func(ssa *ir.Ssa) error {
		for _, fn := range ssa.Functions() {
			inlineInFunction(ssa, fn, noPredicates)
		}
		return nil
	})
}

func inlineInFunction(ssa *ir.Ssa, fn *ir.Function, noPredicates bool) {
	dfg := fn.DFG
	for _, block := range fn.ReachableBlocks() {
		original := dfg.Block(block).TakeInstructions()
		for _, id := range original {
			data := dfg.Instruction(id)
			if data.Op != ir.OpCall {
				dfg.Block(block).AppendExisting(id)
				continue
			}

			target := dfg.ValueData(data.Target)
			if target.Kind != ir.ValueFunction {
				dfg.Block(block).AppendExisting(id)
				continue
			}
			callee := ssa.Function(target.Function)
			if callee == nil || callee.ID.Index() == fn.ID.Index() || callee.Recursive {
				dfg.Block(block).AppendExisting(id)
				continue
			}
			if len(callee.ReachableBlocks()) != 1 {
				dfg.Block(block).AppendExisting(id)
				continue
			}
			if !noPredicates && callee.Runtime != fn.Runtime {
				dfg.Block(block).AppendExisting(id)
				continue
			}

			inlineCall(dfg, callee, block, id, data)
		}
	}
}

func inlineCall(dfg *ir.DataFlowGraph, callee *ir.Function, callerBlock ir.BasicBlockId, callID ir.InstructionId, callData ir.InstructionData) {
	calleeDFG := callee.DFG
	mapping := map[uint32]ir.ValueId{}

	for i, p := range callee.Parameters() {
		if i < len(callData.Args) {
			mapping[calleeDFG.Resolve(p).Index()] = callData.Args[i]
		}
	}

	entry := callee.Entry()
	for _, iid := range calleeDFG.Block(entry).Instructions() {
		idata := calleeDFG.Instruction(iid)
		remapped := remapInstructionValues(dfg, calleeDFG, mapping, idata)
		res := dfg.InsertInstructionAndResults(callerBlock, remapped, ir.CallStackId{})

		oldResults := calleeDFG.ResultsOf(iid)
		newResults := res.Results()
		for i, ov := range oldResults {
			if i < len(newResults) {
				mapping[calleeDFG.Resolve(ov).Index()] = newResults[i]
			}
		}
	}

	callResults := dfg.ResultsOf(callID)
	if term := calleeDFG.Block(entry).Terminator(); term != nil && term.Kind == ir.TermReturn {
		for i, rv := range term.ReturnValues {
			if i >= len(callResults) {
				break
			}
			dfg.ReplaceValue(callResults[i], remapValue(dfg, calleeDFG, mapping, rv))
		}
	}

	dfg.RemoveInstruction(callID)
}

// remapValue translates a value belonging to calleeDFG into the
// equivalent value in the caller's dfg, materializing constants and
// function/intrinsic/foreign-function references afresh (their ids are
// only meaningful within the DFG that interned them) and otherwise
// relying on mapping, which must already hold an entry for every
// parameter and every instruction result processed so far.
func remapValue(dfg, calleeDFG *ir.DataFlowGraph, mapping map[uint32]ir.ValueId, v ir.ValueId) ir.ValueId {
	rv := calleeDFG.Resolve(v)
	if mv, ok := mapping[rv.Index()]; ok {
		return mv
	}
	data := calleeDFG.ValueData(rv)
	switch data.Kind {
	case ir.ValueNumericConstant:
		c, _ := calleeDFG.GetNumericConstant(rv)
		nv := dfg.Constant(c, data.NumericType)
		mapping[rv.Index()] = nv
		return nv
	case ir.ValueFunction:
		nv := dfg.FunctionValue(data.Function)
		mapping[rv.Index()] = nv
		return nv
	case ir.ValueIntrinsic:
		nv := dfg.IntrinsicValue(data.Intrinsic)
		mapping[rv.Index()] = nv
		return nv
	case ir.ValueForeignFunction:
		name, _ := calleeDFG.ForeignFunctionName(data.ForeignFunction)
		nv := dfg.ForeignFunctionValue(name)
		mapping[rv.Index()] = nv
		return nv
	default:
		// a parameter or instruction result with no mapping entry means
		// the callee referenced a value out of program order, which a
		// well-formed single-block function never does.
		panic("ir: inline: unmapped value during inlining")
	}
}

func remapInstructionValues(dfg, calleeDFG *ir.DataFlowGraph, mapping map[uint32]ir.ValueId, d ir.InstructionData) ir.InstructionData {
	rv := func(v ir.ValueId) ir.ValueId { return remapValue(dfg, calleeDFG, mapping, v) }
	out := d
	switch d.Op {
	case ir.OpBinary:
		out.LHS, out.RHS = rv(d.LHS), rv(d.RHS)
	case ir.OpNot, ir.OpCast, ir.OpTruncate, ir.OpConstrain, ir.OpRangeCheck,
		ir.OpIncrementRc, ir.OpDecrementRc, ir.OpLoad:
		out.Operand = rv(d.Operand)
	case ir.OpConstrainNotEqual:
		out.Operand = rv(d.Operand)
	case ir.OpCall:
		out.Target = rv(d.Target)
		args := make([]ir.ValueId, len(d.Args))
		for i, a := range d.Args {
			args[i] = rv(a)
		}
		out.Args = args
		if d.HasPredicate {
			out.Predicate = rv(d.Predicate)
		}
	case ir.OpStore:
		out.Address, out.Value = rv(d.Address), rv(d.Value)
	case ir.OpEnableSideEffectsIf:
		out.Condition = rv(d.Condition)
	case ir.OpArrayGet:
		out.Array, out.Index = rv(d.Array), rv(d.Index)
	case ir.OpArraySet:
		out.Array, out.Index, out.NewValue = rv(d.Array), rv(d.Index), rv(d.NewValue)
	case ir.OpIfElse:
		out.Condition, out.Then, out.Else = rv(d.Condition), rv(d.Then), rv(d.Else)
	}
	return out
}
