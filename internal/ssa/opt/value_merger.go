package opt

import (
	"fmt"

	"kanso/internal/ssa/ir"
	"kanso/internal/ssa/ssagen"
)

// ValueMerger combines a value produced by a flattened if branch with
// its counterpart from the corresponding else branch into one value
// selected by the branch condition, for every block-parameter position
// the two branches disagree on. Grounded on
// ssa/opt/flatten_cfg/value_merger.rs's ValueMerger (read in full):
// merge_values' dispatch on the value's type (numeric/array/slice),
// merge_array_values' and merge_slice_values' elementwise recursion,
// make_slice_dummy_data's zero-padding for a too-short slice arm, and
// try_merge_only_changed_indices' two-hop ArraySet-chain shortcut are
// all carried over; each function's doc comment below says where this
// port's instruction set forces a different encoding of the same
// behavior.
type ValueMerger struct {
	b *ssagen.FunctionBuilder

	// arraySetConditionals maps an ArraySet result value to the
	// EnableSideEffectsIf condition that was live when it was built, so
	// a later tryMergeOnlyChangedIndices call walking back through it
	// (possibly from a different diamond than the one that built it)
	// can recover which branch actually produced it. Mirrors the
	// original's array_set_conditionals map, which the flatten_cfg
	// context threads across every diamond in a function; here
	// flatten_cfg.go allocates one map per function and passes it into
	// every ValueMerger it constructs for that function.
	arraySetConditionals map[ir.ValueId]ir.ValueId

	// currentCondition/haveCondition is the branch condition Merge is
	// currently operating under, read by tryMergeOnlyChangedIndices
	// (which requires one to be set, matching the original's
	// current_condition: Option<Value>) and restored there once its
	// changed-indices EnableSideEffectsIf bookkeeping is done.
	currentCondition ir.ValueId
	haveCondition    bool

	// notCond/haveNot cache Not(cond) so Merge inserts it at most once
	// per call no matter how many positions need it, and never at all
	// when every position the caller asks about already agrees —
	// preserving the idempotence flatten_cfg relies on for diamonds
	// with no real data dependency on the condition.
	notCond ir.ValueId
	haveNot bool
}

// NewValueMerger returns a merger with its own, empty array-set
// bookkeeping. Convenience constructor for callers (and tests) that
// only ever flatten a single diamond.
func NewValueMerger(b *ssagen.FunctionBuilder) *ValueMerger {
	return NewValueMergerWithState(b, map[ir.ValueId]ir.ValueId{})
}

// NewValueMergerWithState returns a merger sharing arraySetConditionals
// with every other ValueMerger flatten_cfg.go constructs for the same
// function, so the changed-indices walk can see ArraySet chains built
// while flattening an earlier diamond in that function.
func NewValueMergerWithState(b *ssagen.FunctionBuilder, arraySetConditionals map[ir.ValueId]ir.ValueId) *ValueMerger {
	return &ValueMerger{b: b, arraySetConditionals: arraySetConditionals}
}

// Merge returns, position by position, a value equal to thenValues[i]
// when the two arms already agree, and the merge of thenValues[i] with
// elseValues[i] (dispatched by types[i]'s kind, in mergeValues)
// otherwise.
func (m *ValueMerger) Merge(cond ir.ValueId, thenValues, elseValues []ir.ValueId, types []ir.Type) []ir.ValueId {
	m.currentCondition = cond
	m.haveCondition = true
	m.notCond = ir.ValueId{}
	m.haveNot = false

	dfg := m.b.Function().DFG
	out := make([]ir.ValueId, len(thenValues))
	for i := range thenValues {
		then := dfg.Resolve(thenValues[i])
		els := then
		if i < len(elseValues) {
			els = dfg.Resolve(elseValues[i])
		}
		if then.Index() == els.Index() {
			out[i] = then
			continue
		}
		var t ir.Type
		if i < len(types) {
			t = types[i]
		}
		out[i] = m.mergeValues(cond, then, els, t)
	}
	return out
}

// elseCondition returns Not(cond), inserting it at most once per Merge
// call regardless of how many positions need it.
func (m *ValueMerger) elseCondition(cond ir.ValueId) ir.ValueId {
	if m.haveNot {
		return m.notCond
	}
	m.notCond = m.b.InsertNot(cond, ir.Bool())
	m.haveNot = true
	return m.notCond
}

// mergeValues is merge_values: resolve both arms, short-circuit when
// they already match, otherwise dispatch on t.Kind exactly the way the
// original dispatches on dfg.type_of_value(then_value).
func (m *ValueMerger) mergeValues(cond, thenValue, elseValue ir.ValueId, t ir.Type) ir.ValueId {
	dfg := m.b.Function().DFG
	thenValue = dfg.Resolve(thenValue)
	elseValue = dfg.Resolve(elseValue)
	if thenValue.Index() == elseValue.Index() {
		return thenValue
	}

	switch t.Kind {
	case ir.TypeNumeric:
		return m.mergeNumericValues(cond, thenValue, elseValue, t.Numeric)
	case ir.TypeArray:
		return m.mergeArrayValues(cond, thenValue, elseValue, t)
	case ir.TypeSlice:
		return m.mergeSliceValues(cond, thenValue, elseValue, t)
	case ir.TypeReference:
		panic("ir: value_merger: cannot merge references produced by an if/else branch")
	case ir.TypeFunction:
		panic("ir: value_merger: cannot merge functions produced by an if/else branch")
	default:
		panic(fmt.Sprintf("ir: value_merger: unhandled type kind %d", t.Kind))
	}
}

// mergeNumericValues is merge_numeric_values: c*then + (1-c)*else, built
// from real Cast/Binary instructions the same way the original does,
// rather than as a single IfElse node. This IR's OpIfElse exists (and
// ssagen uses it for conditionals it lowers directly), but flatten_cfg
// specifically needs the arithmetic-selector encoding: every constrain
// in both arms has already been rewritten conditional on cond/notCond
// via EnableSideEffectsIf, and a mismatched join value must fold into
// that same predicated-arithmetic shape rather than introduce a branch
// the rest of the pass just finished removing.
func (m *ValueMerger) mergeNumericValues(cond, thenValue, elseValue ir.ValueId, t ir.NumericType) ir.ValueId {
	notCond := m.elseCondition(cond)
	thenCond := m.b.InsertCast(cond, t)
	elseCond := m.b.InsertCast(notCond, t)
	thenTerm := m.b.InsertBinary(ir.BinMul, thenCond, thenValue, t)
	elseTerm := m.b.InsertBinary(ir.BinMul, elseCond, elseValue, t)
	return m.b.InsertBinary(ir.BinAdd, thenTerm, elseTerm, t)
}

// mergeArrayValues is merge_array_values. tryMergeOnlyChangedIndices
// runs first; failing that, every element is merged recursively and
// written into a copy of thenValue. The original builds the result
// with a dedicated MakeArray instruction; this IR has no array
// constructor at all (an array value only ever exists as the result of
// ArrayGet/ArraySet, and ArraySet is already copy-on-write), so the
// equivalent of "build a literal array" here is ArraySet-ing every
// index of an existing same-shaped array value in turn, starting from
// thenValue itself.
func (m *ValueMerger) mergeArrayValues(cond, thenValue, elseValue ir.ValueId, t ir.Type) ir.ValueId {
	if merged, ok := m.tryMergeOnlyChangedIndices(cond, thenValue, elseValue, t.ArrayLen); ok {
		return merged
	}

	dfg := m.b.Function().DFG
	elemType := *t.Element
	array := thenValue
	for i := uint32(0); i < t.ArrayLen; i++ {
		index := m.b.Constant(ir.FromUint64(uint64(i)), ir.Field())
		thenElem := m.b.InsertArrayGet(thenValue, index, elemType)
		elseElem := m.b.InsertArrayGet(elseValue, index, elemType)
		merged := m.mergeValues(cond, thenElem, elseElem, elemType)
		array = dfg.Resolve(m.b.InsertArraySet(array, index, merged, t))
	}
	return array
}

// mergeSliceValues is merge_slice_values. The original tracks each
// slice value's length in an external slice_sizes map built before
// flattening begins; this port's Type carries no length for TypeSlice
// at all (slices are dynamically sized, spec.md §3), so length is read
// the only other way a slice value can be introspected here — as the
// ArrayLen of whichever arm still resolves to a concrete TypeArray
// shape — which plays the same role get_array_constant plays in the
// original when slice_sizes has no entry for a value. A slice whose
// length can't be determined from either arm raises the same ICE the
// original does.
func (m *ValueMerger) mergeSliceValues(cond, thenValue, elseValue ir.ValueId, t ir.Type) ir.ValueId {
	dfg := m.b.Function().DFG
	thenLen, thenOK := sliceLength(dfg, thenValue)
	elseLen, elseOK := sliceLength(dfg, elseValue)
	if !thenOK && !elseOK {
		panic(fmt.Sprintf("ir: value_merger: merging slices %s/%s during flatten_cfg without a known length",
			ir.FormatValueID(thenValue), ir.FormatValueID(elseValue)))
	}
	length := thenLen
	if !thenOK || (elseOK && elseLen > thenLen) {
		length = elseLen
	}

	elemType := *t.Element
	arrayType := ir.ArrayOf(elemType, length)
	array := m.zeroedArrayBase(arrayType)
	for i := uint32(0); i < length; i++ {
		index := m.b.Constant(ir.FromUint64(uint64(i)), ir.Field())
		thenElem := m.sliceElementOrDummy(thenValue, thenOK, thenLen, i, elemType, index)
		elseElem := m.sliceElementOrDummy(elseValue, elseOK, elseLen, i, elemType, index)
		merged := m.mergeValues(cond, thenElem, elseElem, elemType)
		array = dfg.Resolve(m.b.InsertArraySet(array, index, merged, arrayType))
	}
	return array
}

// sliceElementOrDummy is the per-side half of merge_slice_values'
// get_element closure: a real element when index is in bounds for this
// side, or make_slice_dummy_data's zero padding when this side is the
// shorter of the two arms.
func (m *ValueMerger) sliceElementOrDummy(array ir.ValueId, known bool, length, index uint32, elemType ir.Type, indexValue ir.ValueId) ir.ValueId {
	if !known || index >= length {
		return m.makeSliceDummyData(elemType)
	}
	return m.b.InsertArrayGet(array, indexValue, elemType)
}

// makeSliceDummyData is make_slice_dummy_data: a zero value of t's
// shape, used to pad the shorter side of two merged slices out to the
// longer side's length. A numeric type zeroes to its own numeric zero;
// an array type recurses into a fully-zeroed array, built index by
// index the same way mergeArrayValues substitutes for the MakeArray the
// original would emit here; a slice of slices is the same unreachable
// case the original panics on.
func (m *ValueMerger) makeSliceDummyData(t ir.Type) ir.ValueId {
	switch t.Kind {
	case ir.TypeNumeric:
		return m.b.Constant(ir.FieldElementZero(), t.Numeric)
	case ir.TypeArray:
		elemType := *t.Element
		zero := m.makeSliceDummyData(elemType)
		array := m.zeroedArrayBase(t)
		for i := uint32(0); i < t.ArrayLen; i++ {
			index := m.b.Constant(ir.FromUint64(uint64(i)), ir.Field())
			array = m.b.InsertArraySet(array, index, zero, t)
		}
		return array
	case ir.TypeSlice:
		panic("ir: value_merger: cannot build dummy data for a slice of slices")
	default:
		panic(fmt.Sprintf("ir: value_merger: cannot build dummy data for type kind %d", t.Kind))
	}
}

// zeroedArrayBase allocates and immediately loads a reference of type t,
// giving a well-typed array value with no prior contents to ArraySet
// over. Used wherever dummy data (or a slice merge's result) needs a
// starting array value that isn't already one of the two merge inputs.
func (m *ValueMerger) zeroedArrayBase(t ir.Type) ir.ValueId {
	ref := m.b.InsertAllocate(t)
	return m.b.InsertLoad(ref, t)
}

// sliceLength reports (length, true) when v resolves to a value whose
// contents dfg.GetArrayConstant can still reconstruct — this port's
// equivalent of the original falling back to get_array_constant when
// its external slice_sizes map has no entry for a value.
func sliceLength(dfg *ir.DataFlowGraph, v ir.ValueId) (uint32, bool) {
	_, t, ok := dfg.GetArrayConstant(v)
	if !ok {
		return 0, false
	}
	return t.ArrayLen, true
}

// arraySetStep is one hop of a backward walk through an ArraySet chain:
// the step's own result value, the index it wrote, that index's element
// type, and the EnableSideEffectsIf condition live when it was built.
type arraySetStep struct {
	value     ir.ValueId
	index     ir.ValueId
	elemType  ir.Type
	condition ir.ValueId
}

// tryMergeOnlyChangedIndices is try_merge_only_changed_indices: spec.md
// §9's "preserve verbatim" two-hop bound. It only ever looks one
// ArraySet hop back from each arm, twice, so it only fires when one arm
// is a short ArraySet chain rooted at (or reachable from) the other arm
// — anything deeper falls through to the full elementwise merge in
// mergeArrayValues, exactly like the original. Every changed-index
// element is re-merged under the outer cond (not the per-step
// condition recorded for its own EnableSideEffectsIf), matching the
// original passing its own then_condition/else_condition — not the
// chain step's condition — into merge_values inside this same loop.
func (m *ValueMerger) tryMergeOnlyChangedIndices(cond, thenValue, elseValue ir.ValueId, arrayLength uint32) (ir.ValueId, bool) {
	if !m.haveCondition {
		return ir.ValueId{}, false
	}

	const maxIters = 2
	dfg := m.b.Function().DFG
	thenRoot := dfg.Resolve(thenValue)
	elseRoot := dfg.Resolve(elseValue)
	currentThen := thenRoot
	currentElse := elseRoot
	var seenThen, seenElse []arraySetStep
	found := false

	for i := 0; i < maxIters; i++ {
		if currentThen.Index() == elseRoot.Index() {
			seenElse = nil
			found = true
			break
		}
		if currentElse.Index() == thenRoot.Index() {
			seenThen = nil
			found = true
			break
		}
		if idx := stepIndexOf(seenThen, currentElse); idx >= 0 {
			seenElse = seenElse[:idx]
			found = true
			break
		}
		if idx := stepIndexOf(seenElse, currentThen); idx >= 0 {
			seenThen = seenThen[:idx]
			found = true
			break
		}
		currentThen = m.findPreviousArraySet(currentThen, &seenThen)
		currentElse = m.findPreviousArraySet(currentElse, &seenElse)
	}

	if !found {
		return ir.ValueId{}, false
	}

	changed := make([]arraySetStep, 0, len(seenThen)+len(seenElse))
	for _, s := range seenThen {
		changed = appendChangedStep(changed, s)
	}
	for _, s := range seenElse {
		changed = appendChangedStep(changed, s)
	}
	if uint32(len(changed)) >= arrayLength {
		return ir.ValueId{}, false
	}

	array := thenRoot
	arrayType := dfg.TypeOfValue(array)
	for _, step := range changed {
		m.insertEnableSideEffectsIf(step.condition)
		thenElem := m.b.InsertArrayGet(thenRoot, step.index, step.elemType)
		elseElem := m.b.InsertArrayGet(elseRoot, step.index, step.elemType)
		merged := m.mergeValues(cond, thenElem, elseElem, step.elemType)
		array = dfg.Resolve(m.b.InsertArraySet(array, step.index, merged, arrayType))
		m.arraySetConditionals[array] = step.condition
	}
	m.insertEnableSideEffectsIf(m.currentCondition)
	return array, true
}

// findPreviousArraySet is find_previous_array_set: when result is the
// value an ArraySet produced and arraySetConditionals holds a condition
// for it, it records that hop's (index, element type, condition) onto
// steps and returns the array it was built from, continuing the walk
// one hop further back. An ArraySet with no recorded condition, any
// other defining instruction, a block parameter or a constant is a
// dead end and is
// returned unchanged, which is what lets the two-iteration loop above
// terminate early instead of always spending both hops.
func (m *ValueMerger) findPreviousArraySet(result ir.ValueId, steps *[]arraySetStep) ir.ValueId {
	dfg := m.b.Function().DFG
	data := dfg.ValueData(result)
	if data.Kind != ir.ValueInstructionResult {
		return result
	}
	instr := dfg.Instruction(data.Instruction)
	if instr.Op != ir.OpArraySet {
		return result
	}
	condition, ok := m.arraySetConditionals[result]
	if !ok {
		return result
	}
	elemType := dfg.TypeOfValue(instr.NewValue)
	*steps = append(*steps, arraySetStep{value: result, index: instr.Index, elemType: elemType, condition: condition})
	return dfg.Resolve(instr.Array)
}

// stepIndexOf returns the position of an already-seen step whose result
// value is v, or -1.
func stepIndexOf(steps []arraySetStep, v ir.ValueId) int {
	for i, s := range steps {
		if s.value.Index() == v.Index() {
			return i
		}
	}
	return -1
}

// appendChangedStep adds step to changed unless an entry for the same
// (index, condition) pair is already present, mirroring the original's
// FxHashSet<(index, typ, condition)> dedup.
func appendChangedStep(changed []arraySetStep, step arraySetStep) []arraySetStep {
	for _, existing := range changed {
		if existing.index.Index() == step.index.Index() && existing.condition.Index() == step.condition.Index() {
			return changed
		}
	}
	return append(changed, step)
}

// insertEnableSideEffectsIf appends a raw EnableSideEffectsIf the same
// way flatten_cfg.go does, without DFG-level simplification: it is pure
// bookkeeping for later ACIR codegen and has no value to simplify.
func (m *ValueMerger) insertEnableSideEffectsIf(cond ir.ValueId) {
	m.b.Function().DFG.InsertInstructionAndResultsWithoutSimplification(
		m.b.CurrentBlock(), ir.InstructionData{Op: ir.OpEnableSideEffectsIf, Condition: cond}, ir.CallStackId{})
}
