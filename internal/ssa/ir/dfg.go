package ir

import (
	"fmt"

	"kanso/internal/fieldelement"
)

// FieldElement is re-exported here so the rest of this package (and its
// callers) can talk about constants without importing fieldelement
// directly.
type FieldElement = fieldelement.FieldElement

// One is fieldelement.One, re-exported for convenience.
func One() FieldElement { return fieldelement.One() }

// DataFlowGraph owns every value, instruction, and basic block belonging
// to a single Function. It is the sole place instructions are created,
// simplified on insertion, and later rewritten by optimization passes;
// per the concurrency model, exactly one goroutine may hold it at a time
// (enforced by the embedded ownerGuard).
type DataFlowGraph struct {
	guard ownerGuard

	values       DenseMap[ValueData]
	instructions SparseMap[InstructionData]
	blocks       DenseMap[BasicBlock]

	blockParamTypes map[uint32][]Type

	// replacements implements resolve(): a forwarding chain from a
	// value that was simplified away to the value it was replaced by.
	replacements map[uint32]ValueId

	constantValues map[constantKey]ValueId
	fieldPool      map[string]FieldElement
	fieldIDs       map[string]FieldElementId
	nextFieldID    uint32

	functionValues  map[uint32]ValueId
	intrinsicValues map[Intrinsic]ValueId
	foreignFuncs    map[string]ForeignFunctionId
	foreignValues   map[string]ValueId

	callStacks            CallStackHelper
	instructionCallStacks map[uint32]CallStackId
	instructionResults    map[uint32][]ValueId

	entryBlock BasicBlockId
	hasEntry   bool
}

type constantKey struct {
	field string
	typ   NumericType
}

// NewDataFlowGraph returns an empty DFG ready to have its entry block
// created.
func NewDataFlowGraph() *DataFlowGraph {
	return &DataFlowGraph{
		blockParamTypes:       make(map[uint32][]Type),
		replacements:          make(map[uint32]ValueId),
		constantValues:        make(map[constantKey]ValueId),
		fieldPool:             make(map[string]FieldElement),
		fieldIDs:              make(map[string]FieldElementId),
		functionValues:        make(map[uint32]ValueId),
		intrinsicValues:       make(map[Intrinsic]ValueId),
		foreignFuncs:          make(map[string]ForeignFunctionId),
		foreignValues:         make(map[string]ValueId),
		instructionCallStacks: make(map[uint32]CallStackId),
		instructionResults:    make(map[uint32][]ValueId),
	}
}

// MakeBlock allocates a new, parameter-less, instruction-less block.
func (dfg *DataFlowGraph) MakeBlock() BasicBlockId {
	dfg.guard.check()
	id := dfg.blocks.Insert(BasicBlock{})
	if !dfg.hasEntry {
		dfg.entryBlock = id
		dfg.hasEntry = true
	}
	return id
}

// EntryBlock returns the function's first block.
func (dfg *DataFlowGraph) EntryBlock() BasicBlockId { return dfg.entryBlock }

// AddBlockParameter appends a new parameter of type t to block and
// returns its ValueId.
func (dfg *DataFlowGraph) AddBlockParameter(block BasicBlockId, t Type) ValueId {
	dfg.guard.check()
	b := dfg.blocks.GetMut(block)
	pos := len(b.parameters)
	v := dfg.values.Insert(ValueData{Kind: ValueParam, Block: block, ParamPos: pos})
	b.addParameter(v)
	dfg.blockParamTypes[block.Index()] = append(dfg.blockParamTypes[block.Index()], t)
	return v
}

// BlockParameters returns the ValueIds of block's parameters.
func (dfg *DataFlowGraph) BlockParameters(block BasicBlockId) []ValueId {
	return dfg.Block(block).Parameters()
}

// Block returns the BasicBlock stored at id.
func (dfg *DataFlowGraph) Block(id BasicBlockId) *BasicBlock {
	return dfg.blocks.GetMut(id)
}

// SetBlockTerminator sets block's terminator, overwriting any previous one.
func (dfg *DataFlowGraph) SetBlockTerminator(block BasicBlockId, t Terminator) {
	dfg.guard.check()
	dfg.Block(block).setTerminator(t)
}

// Constant interns a (value, type) pair, returning the same ValueId for
// every call with an equal pair.
func (dfg *DataFlowGraph) Constant(value FieldElement, t NumericType) ValueId {
	dfg.guard.check()
	key := constantKey{field: value.String(), typ: t}
	if id, ok := dfg.constantValues[key]; ok {
		return id
	}
	fid := dfg.internField(value)
	id := dfg.values.Insert(ValueData{Kind: ValueNumericConstant, Constant: fid, NumericType: t})
	dfg.constantValues[key] = id
	return id
}

func (dfg *DataFlowGraph) internField(value FieldElement) FieldElementId {
	key := value.String()
	if id, ok := dfg.fieldIDs[key]; ok {
		return id
	}
	id := NewID[fieldConstantTag](dfg.nextFieldID)
	dfg.nextFieldID++
	dfg.fieldPool[key] = value
	dfg.fieldIDs[key] = id
	return id
}

// FunctionValue returns the (deduplicated) Value denoting function fn.
func (dfg *DataFlowGraph) FunctionValue(fn FunctionId) ValueId {
	if id, ok := dfg.functionValues[fn.Index()]; ok {
		return id
	}
	id := dfg.values.Insert(ValueData{Kind: ValueFunction, Function: fn})
	dfg.functionValues[fn.Index()] = id
	return id
}

// IntrinsicValue returns the (deduplicated) Value denoting intrinsic i.
func (dfg *DataFlowGraph) IntrinsicValue(i Intrinsic) ValueId {
	if id, ok := dfg.intrinsicValues[i]; ok {
		return id
	}
	id := dfg.values.Insert(ValueData{Kind: ValueIntrinsic, Intrinsic: i})
	dfg.intrinsicValues[i] = id
	return id
}

// ForeignFunctionValue returns the (deduplicated) Value denoting an
// oracle call to the named foreign function.
func (dfg *DataFlowGraph) ForeignFunctionValue(name string) ValueId {
	if id, ok := dfg.foreignValues[name]; ok {
		return id
	}
	fid, ok := dfg.foreignFuncs[name]
	if !ok {
		fid = NewID[string](uint32(len(dfg.foreignFuncs)))
		dfg.foreignFuncs[name] = fid
	}
	id := dfg.values.Insert(ValueData{Kind: ValueForeignFunction, ForeignFunction: fid})
	dfg.foreignValues[name] = id
	return id
}

// ForeignFunctionName reverse-looks-up the name an oracle call target
// was interned under. Used by inlining, which must recreate a callee's
// foreign-function values in the caller's own DFG.
func (dfg *DataFlowGraph) ForeignFunctionName(id ForeignFunctionId) (string, bool) {
	for name, fid := range dfg.foreignFuncs {
		if fid == id {
			return name, true
		}
	}
	return "", false
}

// Resolve follows the replacement chain for v until it reaches a value
// that was never simplified away, i.e. a fixed point. Every read of a
// value elsewhere in the DFG must go through Resolve first.
func (dfg *DataFlowGraph) Resolve(v ValueId) ValueId {
	for {
		next, ok := dfg.replacements[v.Index()]
		if !ok {
			return v
		}
		v = next
	}
}

// ReplaceValue records that every future Resolve(old) must return new.
// It does not rewrite existing operands in place; callers rely on
// Resolve being applied lazily wherever a value is read.
func (dfg *DataFlowGraph) ReplaceValue(old, new ValueId) {
	dfg.guard.check()
	if old.Index() == new.Index() {
		return
	}
	dfg.replacements[old.Index()] = new
}

// ValueData returns the stored payload for v (after resolving).
func (dfg *DataFlowGraph) ValueData(v ValueId) ValueData {
	return dfg.values.Get(dfg.Resolve(v))
}

// rawValueData returns the stored payload without resolving first; used
// internally where the caller has already resolved.
func (dfg *DataFlowGraph) rawValueData(v ValueId) ValueData {
	return dfg.values.Get(v)
}

// Instruction returns the stored payload for id.
func (dfg *DataFlowGraph) Instruction(id InstructionId) InstructionData {
	return dfg.instructions.Get(id)
}

// SetInstruction overwrites the payload stored for id.
func (dfg *DataFlowGraph) SetInstruction(id InstructionId, data InstructionData) {
	dfg.guard.check()
	dfg.instructions.Set(id, data)
}

// RemoveInstruction deletes id from the arena; any block still listing
// it must be rebuilt (e.g. via BasicBlock.SetInstructions) separately.
func (dfg *DataFlowGraph) RemoveInstruction(id InstructionId) {
	dfg.guard.check()
	dfg.instructions.Remove(id)
}

// TypeOfValue returns the type of v. Parameters and constants carry
// their type directly; instruction results look up the owning
// instruction's declared result type(s).
func (dfg *DataFlowGraph) TypeOfValue(v ValueId) Type {
	v = dfg.Resolve(v)
	data := dfg.rawValueData(v)
	switch data.Kind {
	case ValueNumericConstant:
		return NumericOf(data.NumericType)
	case ValueParam:
		types := dfg.blockParamTypes[data.Block.Index()]
		return types[data.ParamPos]
	case ValueInstructionResult:
		instr := dfg.instructions.Get(data.Instruction)
		if instr.Op == OpCall {
			return instr.ResultTypes[data.Position]
		}
		return instr.ResultType
	case ValueFunction, ValueIntrinsic, ValueForeignFunction:
		return FunctionType()
	default:
		panic(fmt.Sprintf("ir: TypeOfValue: unhandled value kind %d", data.Kind))
	}
}

// NumericConstants returns every numeric-constant value interned in
// this DFG so far, in no particular order. Used by the Brillig global
// initializer to enumerate the shared constants it must materialize
// once up front.
func (dfg *DataFlowGraph) NumericConstants() []ValueId {
	out := make([]ValueId, 0, len(dfg.constantValues))
	for _, v := range dfg.constantValues {
		out = append(out, v)
	}
	return out
}

// GetNumericConstant returns (value, true) if v resolves to a numeric
// constant, or (zero, false) otherwise.
func (dfg *DataFlowGraph) GetNumericConstant(v ValueId) (FieldElement, bool) {
	v = dfg.Resolve(v)
	data := dfg.rawValueData(v)
	if data.Kind != ValueNumericConstant {
		return FieldElement{}, false
	}
	for key, fid := range dfg.fieldIDs {
		if fid == data.Constant {
			return dfg.fieldPool[key], true
		}
	}
	return FieldElement{}, false
}

// GetValueMaxNumBits returns the tightest known bound on the number of
// bits needed to represent v: the declared width for a typed value, or
// the constant's own bit length when v is a numeric constant (which can
// be tighter than its declared type, e.g. the constant 1 : Field needs
// only 1 bit despite Field's 254-bit width).
func (dfg *DataFlowGraph) GetValueMaxNumBits(v ValueId) uint32 {
	if c, ok := dfg.GetNumericConstant(v); ok {
		if bits := uint32(c.BigInt().BitLen()); bits > 0 {
			return bits
		}
		return 1
	}
	return dfg.TypeOfValue(v).UnwrapNumeric().MaxBitSize()
}

// IsConstantTrue reports whether v resolves to the numeric constant 1.
func (dfg *DataFlowGraph) IsConstantTrue(v ValueId) bool {
	c, ok := dfg.GetNumericConstant(v)
	return ok && c.Equal(One())
}

// GetArrayConstant reconstructs a fully-written array value's flat
// FieldElement contents by walking its ArraySet chain back as far as it
// can, succeeding only if every index in range was written exactly once
// by a constant-indexed ArraySet storing a constant. This is this port's
// ArraySet-chain substitute for the original's get_array_constant, which
// instead reads a single MakeArray instruction's element list directly:
// this IR has no MakeArray instruction at all (see opt/value_merger.go's
// doc comment for the same substitution elsewhere), so array literals
// only ever exist as the accumulated result of ArraySet-ing every index
// of some base array value in turn, and reading one back means undoing
// that accumulation.
func (dfg *DataFlowGraph) GetArrayConstant(v ValueId) ([]FieldElement, Type, bool) {
	t := dfg.TypeOfValue(v)
	if t.Kind != TypeArray {
		return nil, Type{}, false
	}

	elements := make([]FieldElement, t.ArrayLen)
	written := make([]bool, t.ArrayLen)
	current := dfg.Resolve(v)
	for {
		data := dfg.rawValueData(current)
		if data.Kind != ValueInstructionResult {
			break
		}
		instr := dfg.Instruction(data.Instruction)
		if instr.Op != OpArraySet {
			break
		}
		idxConst, ok := dfg.GetNumericConstant(instr.Index)
		if !ok {
			return nil, Type{}, false
		}
		idx := idxConst.BigInt().Uint64()
		if idx < uint64(t.ArrayLen) && !written[idx] {
			fe, ok := dfg.GetNumericConstant(instr.NewValue)
			if !ok {
				return nil, Type{}, false
			}
			elements[idx] = fe
			written[idx] = true
		}
		current = dfg.Resolve(instr.Array)
	}

	for _, ok := range written {
		if !ok {
			return nil, Type{}, false
		}
	}
	return elements, t, true
}

// InsertResult describes what inserting an instruction actually
// produced: either the instruction itself (with its materialized result
// values), or one of the ways DFG-level simplification short-circuited
// it. Either way, Results()/First() give callers a uniform way to read
// the outcome without caring which case applied.
type InsertResult struct {
	kind         insertResultKind
	id           InstructionId
	instrRemoved bool
	values       []ValueId
}

type insertResultKind uint8

const (
	insertedResults insertResultKind = iota
	insertedSimplifiedTo
	insertedSimplifiedToMany
	insertedRemoved
)

// First returns the first (and, for single-result instructions, only)
// result value. Panics if the instruction was removed by simplification,
// mirroring the "no results" panic of the original.
func (r InsertResult) First() ValueId {
	if r.kind == insertedRemoved {
		panic("ir: InsertResult.First called on a removed instruction")
	}
	return r.values[0]
}

// Len returns how many result values are available.
func (r InsertResult) Len() int { return len(r.values) }

// Results returns every result value in position order.
func (r InsertResult) Results() []ValueId { return r.values }

// InstructionID returns the id of the concrete instruction that was
// inserted, and false if the insert was short-circuited by
// simplification (simplified-to/simplified-to-many/removed).
func (r InsertResult) InstructionID() (InstructionId, bool) {
	return r.id, r.kind == insertedResults
}

// InsertInstructionAndResults is the single entry point for adding an
// instruction's body: it tries to simplify the instruction given the
// current DFG state, and only allocates a real instruction + result
// value(s) if simplification left it unchanged. This is what "simplify
// automatically on insert" means throughout the rest of the pipeline.
func (dfg *DataFlowGraph) InsertInstructionAndResults(
	block BasicBlockId, data InstructionData, callStack CallStackId,
) InsertResult {
	dfg.guard.check()
	switch outcome := Simplify(dfg, data); outcome.Kind {
	case SimplifyToValue:
		return InsertResult{kind: insertedSimplifiedTo, values: []ValueId{dfg.Resolve(outcome.Value)}}
	case SimplifyToValues:
		vs := make([]ValueId, len(outcome.Values))
		for i, v := range outcome.Values {
			vs[i] = dfg.Resolve(v)
		}
		return InsertResult{kind: insertedSimplifiedToMany, values: vs}
	case SimplifyToInstruction:
		return dfg.insertWithoutSimplification(block, outcome.Instruction, callStack)
	case SimplifyRemove:
		return InsertResult{kind: insertedRemoved}
	default:
		return dfg.insertWithoutSimplification(block, data, callStack)
	}
}

func (dfg *DataFlowGraph) insertWithoutSimplification(
	block BasicBlockId, data InstructionData, callStack CallStackId,
) InsertResult {
	id := dfg.instructions.Insert(data)
	dfg.instructionCallStacks[id.Index()] = callStack
	dfg.Block(block).insertInstruction(id)
	n := data.ResultCount()
	values := make([]ValueId, n)
	for i := 0; i < n; i++ {
		values[i] = dfg.resultValue(id, i)
	}
	dfg.instructionResults[id.Index()] = values
	return InsertResult{kind: insertedResults, id: id, values: values}
}

// ResultsOf returns the already-materialized result values of a
// previously-inserted instruction, looked up by id alone (no need to
// have kept the InsertResult returned at insertion time). Empty for
// zero-result instructions or ids that were never the product of
// insertWithoutSimplification (i.e. ids wholly simplified away never
// reach here).
func (dfg *DataFlowGraph) ResultsOf(id InstructionId) []ValueId {
	return dfg.instructionResults[id.Index()]
}

func (dfg *DataFlowGraph) resultValue(instr InstructionId, pos int) ValueId {
	return dfg.values.Insert(ValueData{Kind: ValueInstructionResult, Instruction: instr, Position: pos})
}

// InsertInstructionAndResultsWithoutSimplification inserts data verbatim,
// skipping the simplify dispatch. Used by passes that have already
// decided on the exact instruction to emit (e.g. remove_bit_shifts
// building its replacement sequence).
func (dfg *DataFlowGraph) InsertInstructionAndResultsWithoutSimplification(
	block BasicBlockId, data InstructionData, callStack CallStackId,
) InsertResult {
	dfg.guard.check()
	return dfg.insertWithoutSimplification(block, data, callStack)
}

// InstructionCallStack returns the call stack recorded for id.
func (dfg *DataFlowGraph) InstructionCallStack(id InstructionId) CallStackId {
	return dfg.instructionCallStacks[id.Index()]
}

// NumBlocks returns the number of blocks allocated so far (including any
// later made unreachable, since the DFG never compacts the block arena).
func (dfg *DataFlowGraph) NumBlocks() int { return dfg.blocks.Len() }

// AllBlocks returns every block id allocated so far, in allocation order.
func (dfg *DataFlowGraph) AllBlocks() []BasicBlockId { return dfg.blocks.Indices() }
