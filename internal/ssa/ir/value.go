package ir

// ValueId indexes into a DataFlowGraph's value arena.
type ValueId = Id[ValueData]

// ValueKind distinguishes the variants of ValueData.
type ValueKind uint8

const (
	// ValueInstructionResult names one of an instruction's results by
	// position (most instructions produce exactly one; Call can
	// produce several).
	ValueInstructionResult ValueKind = iota
	// ValueParam names one of a basic block's parameters by position.
	ValueParam
	// ValueNumericConstant is an interned constant of a given numeric type.
	ValueNumericConstant
	// ValueFunction names a callable function by id (used as a Call
	// target and, pre-defunctionalization, as a first-class value).
	ValueFunction
	// ValueIntrinsic names one of the fixed built-in operations.
	ValueIntrinsic
	// ValueForeignFunction names an externally-implemented oracle call.
	ValueForeignFunction
)

// ValueData is the payload the DFG stores for a ValueId. Exactly one
// group of fields is meaningful, selected by Kind.
type ValueData struct {
	Kind ValueKind

	// ValueInstructionResult
	Instruction InstructionId
	Position    int

	// ValueParam
	Block    BasicBlockId
	ParamPos int

	// ValueNumericConstant
	Constant    FieldElementId
	NumericType NumericType

	// ValueFunction
	Function FunctionId

	// ValueIntrinsic
	Intrinsic Intrinsic

	// ValueForeignFunction
	ForeignFunction ForeignFunctionId
}

// Intrinsic enumerates the fixed set of built-in operations the Call
// instruction can target instead of a user-defined function.
type Intrinsic uint8

const (
	IntrinsicArrayLen Intrinsic = iota
	IntrinsicArrayAsSlice
	IntrinsicAsSlicePush
	IntrinsicAsSlicePop
	IntrinsicSlicePushBack
	IntrinsicSlicePushFront
	IntrinsicSlicePopBack
	IntrinsicSlicePopFront
	IntrinsicSliceInsert
	IntrinsicSliceRemove
	IntrinsicApplyRangeConstraint
	IntrinsicAssertConstant
	IntrinsicStaticAssert
	IntrinsicIsUnconstrained
	IntrinsicBlackBox
)

func (i Intrinsic) String() string {
	names := [...]string{
		"array_len", "as_slice", "slice_push_back", "slice_push_back",
		"slice_push_back", "slice_push_front", "slice_pop_back",
		"slice_pop_front", "slice_insert", "slice_remove",
		"apply_range_constraint", "assert_constant", "static_assert",
		"is_unconstrained", "black_box",
	}
	if int(i) < len(names) {
		return names[i]
	}
	return "unknown_intrinsic"
}

// FunctionId names a function within an Ssa program.
type FunctionId = Id[functionArenaTag]

type functionArenaTag struct{}

// ForeignFunctionId names an oracle call target, interned by name.
type ForeignFunctionId = Id[string]

// FieldElementId names an interned constant field element.
type FieldElementId = Id[fieldConstantTag]

type fieldConstantTag struct{}
