package brillig

import "kanso/internal/ssa/ir"

// globalArraySpecializationThreshold is the repetition count above
// which a constant array's repeating element group is worth
// materializing via a real runtime loop in the globals-init Artifact,
// rather than fully unrolled as one store per element. At or below the
// threshold, unrolling produces less bytecode outright (the loop's own
// fixed overhead isn't paid back); above it, a loop's constant
// bytecode size wins over stores that would otherwise grow linearly
// with the repetition count. Grounded on
// brillig/brillig_ir/artifact.rs's own global-array specialization
// (read in full this session); the exact cutover point is a tuning
// constant the original doesn't fix at a single named value either.
// Kept as a package-level var, not a const, since a caller embedding
// this compiler may reasonably want to tune it.
var globalArraySpecializationThreshold uint32 = 10

// CollectGlobals returns every numeric constant already interned in
// program.Globals: by construction (see ir.Ssa's own doc comment on
// its Globals field) anything built there is meant to be shared across
// every function that references it rather than recomputed locally, so
// the whole set is always worth materializing once in the shared
// globals-init Artifact.
func CollectGlobals(program *ir.Ssa) []ir.ValueId {
	return program.Globals.NumericConstants()
}

// CollectGlobalArrays returns, for each constant array built in
// program.Globals's entry block, the one value representing its fully
// written contents: whichever ArraySet in that block is never itself
// read back in as a later ArraySet's Array operand (the end of its
// chain). spec.md §3 permits "NumericConstant and MakeArray
// instructions over other globals" in the globals DFG; this IR has no
// MakeArray instruction at all (see ir.DataFlowGraph.GetArrayConstant's
// doc comment), so a global array is instead the accumulated result of
// ArraySet-ing every index of some base value in the same block, the
// same substitute opt/value_merger.go uses for building array values
// during flatten_cfg.
func CollectGlobalArrays(program *ir.Ssa) []ir.ValueId {
	dfg := program.Globals
	if dfg.NumBlocks() == 0 {
		return nil
	}
	ids := dfg.Block(dfg.EntryBlock()).Instructions()

	consumed := map[uint32]bool{}
	for _, id := range ids {
		instr := dfg.Instruction(id)
		if instr.Op == ir.OpArraySet {
			consumed[dfg.Resolve(instr.Array).Index()] = true
		}
	}

	var roots []ir.ValueId
	for _, id := range ids {
		instr := dfg.Instruction(id)
		if instr.Op != ir.OpArraySet {
			continue
		}
		results := dfg.ResultsOf(id)
		if len(results) == 0 {
			continue
		}
		result := dfg.Resolve(results[0])
		if !consumed[result.Index()] {
			roots = append(roots, result)
		}
	}
	return roots
}

// ShouldSpecialize reports whether a repeating group recurring
// itemCount times clears the loop-strategy threshold: strictly more
// than globalArraySpecializationThreshold repetitions loops, exactly
// at or below it unrolls.
func ShouldSpecialize(itemCount uint32) bool {
	return itemCount > globalArraySpecializationThreshold
}

// repeatingGroup finds the shortest prefix of elements that, repeated,
// reconstructs elements exactly, and reports how many times it repeats.
// A non-repeating array reports itself as a group of one repetition.
func repeatingGroup(elements []ir.FieldElement) ([]ir.FieldElement, uint32) {
	n := len(elements)
	for period := 1; period <= n; period++ {
		if n%period != 0 {
			continue
		}
		matches := true
		for i := period; i < n && matches; i++ {
			if !elements[i].Equal(elements[i%period]) {
				matches = false
			}
		}
		if matches {
			return elements[:period], uint32(n / period)
		}
	}
	return elements, 1
}

// CompileRepeatingArray builds the opcodes that materialize a constant
// array's elements into the contiguous array living at basePtr,
// choosing between two strategies based on how many times the array's
// shortest repeating element group recurs: unrolled straight-line
// stores at or below globalArraySpecializationThreshold repetitions
// (cheap at runtime, one store per element), or a real counted loop
// above it (constant-size bytecode regardless of how many times the group
// repeats, at the cost of a runtime loop). Grounded on
// brillig/brillig_ir/artifact.rs's global-array specialization, read in
// full this session. *next is the function's live register-allocation
// cursor, advanced as registers are consumed.
func CompileRepeatingArray(elements []ir.FieldElement, basePtr Register, next *Register) []Opcode {
	group, itemCount := repeatingGroup(elements)
	if !ShouldSpecialize(itemCount) {
		return straightLineArrayInit(elements, basePtr, next)
	}
	return loopArrayInit(group, itemCount, basePtr, next)
}

func straightLineArrayInit(elements []ir.FieldElement, basePtr Register, next *Register) []Opcode {
	ops := make([]Opcode, 0, len(elements)*3)
	for i, fe := range elements {
		valReg := *next
		*next++
		ops = append(ops, Opcode{Kind: OpConst, Dst: valReg, Const: fe})

		idxReg := *next
		*next++
		ops = append(ops, Opcode{Kind: OpConst, Dst: idxReg, Const: ir.FromUint64(uint64(i))})

		ops = append(ops, Opcode{Kind: OpArraySet, Dst: basePtr, Array: basePtr, Index: idxReg, NewValue: valReg})
	}
	return ops
}

// loopArrayInit emits a real counted loop storing one copy of group per
// iteration at index counter*len(group)+j, running itemCount times. Its
// bytecode size is fixed by len(group) alone, never by itemCount.
func loopArrayInit(group []ir.FieldElement, itemCount uint32, basePtr Register, next *Register) []Opcode {
	groupLen := uint32(len(group))
	var ops []Opcode

	counter := *next
	*next++
	ops = append(ops, Opcode{Kind: OpConst, Dst: counter, Const: ir.FieldElementZero()})
	limit := *next
	*next++
	ops = append(ops, Opcode{Kind: OpConst, Dst: limit, Const: ir.FromUint64(uint64(itemCount))})
	groupLenReg := *next
	*next++
	ops = append(ops, Opcode{Kind: OpConst, Dst: groupLenReg, Const: ir.FromUint64(uint64(groupLen))})

	loopStart := len(ops)
	cond := *next
	*next++
	ops = append(ops, Opcode{Kind: OpBinary, BinOp: ir.BinLt, Dst: cond, LHS: counter, RHS: limit})
	exitFixup := len(ops)
	ops = append(ops, Opcode{Kind: OpJumpIfNot, Cond: cond})

	scaled := *next
	*next++
	ops = append(ops, Opcode{Kind: OpBinary, BinOp: ir.BinMul, Dst: scaled, LHS: counter, RHS: groupLenReg})

	for j, fe := range group {
		valReg := *next
		*next++
		ops = append(ops, Opcode{Kind: OpConst, Dst: valReg, Const: fe})

		idx := scaled
		if j > 0 {
			offset := *next
			*next++
			ops = append(ops, Opcode{Kind: OpConst, Dst: offset, Const: ir.FromUint64(uint64(j))})
			summed := *next
			*next++
			ops = append(ops, Opcode{Kind: OpBinary, BinOp: ir.BinAdd, Dst: summed, LHS: scaled, RHS: offset})
			idx = summed
		}

		ops = append(ops, Opcode{Kind: OpArraySet, Dst: basePtr, Array: basePtr, Index: idx, NewValue: valReg})
	}

	one := *next
	*next++
	ops = append(ops, Opcode{Kind: OpConst, Dst: one, Const: ir.One()})
	incremented := *next
	*next++
	ops = append(ops, Opcode{Kind: OpBinary, BinOp: ir.BinAdd, Dst: incremented, LHS: counter, RHS: one})
	ops = append(ops, Opcode{Kind: OpMov, Dst: counter, Src: incremented})
	ops = append(ops, Opcode{Kind: OpJump, Target: loopStart})

	ops[exitFixup].Target = len(ops)
	return ops
}

// CompileGlobals builds the shared globals-init Artifact: one OpConst
// per module-level scalar constant, plus one CompileRepeatingArray
// dispatch per module-level constant array, run once before any
// function's own code. The returned map lets Generate recognize, by
// value, a global a function references that was already materialized
// here, so it emits a reference to the shared register(s) instead of
// redundant work of its own. Returns a nil Artifact when there is
// nothing to initialize, so callers don't need to special-case an
// empty program.
func CompileGlobals(program *ir.Ssa) (map[string]Register, *Artifact) {
	constants := CollectGlobals(program)
	arrays := CollectGlobalArrays(program)
	if len(constants) == 0 && len(arrays) == 0 {
		return map[string]Register{}, nil
	}

	regs := map[string]Register{}
	var next Register
	var opcodes []Opcode
	for _, v := range constants {
		fe, ok := program.Globals.GetNumericConstant(v)
		if !ok {
			continue
		}
		data := program.Globals.ValueData(v)
		key := constantKey(fe, data.NumericType)
		if _, seen := regs[key]; seen {
			continue
		}
		r := next
		next++
		regs[key] = r
		opcodes = append(opcodes, Opcode{Kind: OpConst, Dst: r, Const: fe})
	}

	for _, v := range arrays {
		elements, t, ok := program.Globals.GetArrayConstant(v)
		if !ok {
			continue
		}
		key := arrayKey(elements, t)
		if _, seen := regs[key]; seen {
			continue
		}
		basePtr := next
		next++
		regs[key] = basePtr
		opcodes = append(opcodes, Opcode{Kind: OpAllocate, Dst: basePtr})
		opcodes = append(opcodes, CompileRepeatingArray(elements, basePtr, &next)...)
	}

	return regs, &Artifact{Name: "__globals", Opcodes: opcodes, NumRegisters: uint32(next)}
}

// arrayKey identifies a constant array's contents the same way
// constantKey identifies a scalar constant's, so a function body that
// builds the identical array can one day be recognized and pointed at
// the shared register CompileGlobals already materialized it in,
// instead of rebuilding it locally.
func arrayKey(elements []ir.FieldElement, t ir.Type) string {
	key := t.String()
	for _, fe := range elements {
		key += ":" + fe.String()
	}
	return key
}
