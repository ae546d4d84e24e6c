// Package ssagen converts a monomorphized front-end AST (package
// internal/ast, resolved against internal/semantic) into the SSA form
// defined by internal/ssa/ir. It plays the role of the original
// compiler's ssa::function_builder plus its create_program entry point.
package ssagen

import (
	"kanso/internal/ssa/ir"
)

// FunctionBuilder is a mutable cursor over one ir.Function: it tracks
// the block currently being appended to and forwards instruction
// construction to the function's DataFlowGraph, inserting each one with
// simplification exactly the way the rest of the pipeline later does.
// This mirrors the teacher compiler's own cursor-based Builder (current
// block/function fields, insert_* helper methods) adapted from
// EVM-opcode emission to the numeric/array/call instruction set spec.md
// §4.3 requires.
type FunctionBuilder struct {
	fn           *ir.Function
	currentBlock ir.BasicBlockId
	callStack    ir.CallStackId
}

// NewFunctionBuilder starts a cursor positioned at fn's entry block.
func NewFunctionBuilder(fn *ir.Function) *FunctionBuilder {
	return &FunctionBuilder{fn: fn, currentBlock: fn.Entry()}
}

// Function returns the function under construction.
func (b *FunctionBuilder) Function() *ir.Function { return b.fn }

// CurrentBlock returns the block the cursor will insert into next.
func (b *FunctionBuilder) CurrentBlock() ir.BasicBlockId { return b.currentBlock }

// SwitchToBlock repositions the cursor, e.g. after creating a successor
// block for an if/else arm.
func (b *FunctionBuilder) SwitchToBlock(block ir.BasicBlockId) { b.currentBlock = block }

// InsertBlock allocates a new, empty block without switching to it.
func (b *FunctionBuilder) InsertBlock() ir.BasicBlockId { return b.fn.DFG.MakeBlock() }

// AddParameter appends a parameter to block and returns its value.
func (b *FunctionBuilder) AddParameter(block ir.BasicBlockId, t ir.Type) ir.ValueId {
	return b.fn.DFG.AddBlockParameter(block, t)
}

func (b *FunctionBuilder) insert(data ir.InstructionData) ir.InsertResult {
	return b.fn.DFG.InsertInstructionAndResults(b.currentBlock, data, b.callStack)
}

// Constant interns a field constant of the given numeric type.
func (b *FunctionBuilder) Constant(v ir.FieldElement, t ir.NumericType) ir.ValueId {
	return b.fn.DFG.Constant(v, t)
}

// InsertBinary appends (or folds) a binary instruction and returns its result.
func (b *FunctionBuilder) InsertBinary(op ir.BinaryOp, lhs, rhs ir.ValueId, resultType ir.NumericType) ir.ValueId {
	res := b.insert(ir.InstructionData{
		Op: ir.OpBinary, BinOp: op, LHS: lhs, RHS: rhs, ResultType: ir.NumericOf(resultType),
	})
	return res.First()
}

// InsertNot appends (or folds) a bitwise-not instruction.
func (b *FunctionBuilder) InsertNot(v ir.ValueId, t ir.NumericType) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpNot, Operand: v, ResultType: ir.NumericOf(t)})
	return res.First()
}

// InsertCast appends (or folds) a cast instruction.
func (b *FunctionBuilder) InsertCast(v ir.ValueId, dst ir.NumericType) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpCast, Operand: v, DstNumeric: dst, ResultType: ir.NumericOf(dst)})
	return res.First()
}

// InsertTruncate appends (or folds) a truncate-to-bits instruction.
func (b *FunctionBuilder) InsertTruncate(v ir.ValueId, bits, maxBit uint32, t ir.NumericType) ir.ValueId {
	res := b.insert(ir.InstructionData{
		Op: ir.OpTruncate, Operand: v, TruncBits: bits, TruncMaxBit: maxBit, ResultType: ir.NumericOf(t),
	})
	return res.First()
}

// InsertConstrain appends (or drops, if trivially true) a constrain.
func (b *FunctionBuilder) InsertConstrain(v ir.ValueId, message string) {
	b.insert(ir.InstructionData{Op: ir.OpConstrain, Operand: v, Message: message})
}

// InsertRangeCheck appends a range-check instruction on v for the given
// bit width.
func (b *FunctionBuilder) InsertRangeCheck(v ir.ValueId, bits uint32) {
	b.insert(ir.InstructionData{Op: ir.OpRangeCheck, Operand: v, TruncBits: bits})
}

// InsertAllocate appends a reference-cell allocation of the given
// element type and returns the resulting reference value.
func (b *FunctionBuilder) InsertAllocate(elemType ir.Type) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpAllocate, ResultType: ir.ReferenceTo(elemType)})
	return res.First()
}

// InsertLoad appends a load from a reference.
func (b *FunctionBuilder) InsertLoad(ref ir.ValueId, elemType ir.Type) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpLoad, Operand: ref, ResultType: elemType})
	return res.First()
}

// InsertStore appends a store into a reference.
func (b *FunctionBuilder) InsertStore(ref, value ir.ValueId) {
	b.insert(ir.InstructionData{Op: ir.OpStore, Address: ref, Value: value})
}

// InsertArrayGet appends (or folds) reading index out of array.
func (b *FunctionBuilder) InsertArrayGet(array, index ir.ValueId, elemType ir.Type) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpArrayGet, Array: array, Index: index, ResultType: elemType})
	return res.First()
}

// InsertArraySet appends an array-set, returning the new array value.
func (b *FunctionBuilder) InsertArraySet(array, index, value ir.ValueId, arrayType ir.Type) ir.ValueId {
	res := b.insert(ir.InstructionData{
		Op: ir.OpArraySet, Array: array, Index: index, NewValue: value, ResultType: arrayType,
	})
	return res.First()
}

// InsertCall appends a call to target with args, returning every result.
func (b *FunctionBuilder) InsertCall(target ir.ValueId, args []ir.ValueId, resultTypes []ir.Type) []ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpCall, Target: target, Args: args, ResultTypes: resultTypes})
	return res.Results()
}

// InsertIfElse appends (or folds) a branchless value merge: then/else
// chosen by condition. Used for small conditionals the front end lowers
// directly rather than leaving to flatten_cfg.
func (b *FunctionBuilder) InsertIfElse(condition, then, elseValue ir.ValueId, t ir.Type) ir.ValueId {
	res := b.insert(ir.InstructionData{Op: ir.OpIfElse, Condition: condition, Then: then, Else: elseValue, ResultType: t})
	return res.First()
}

// Jmp terminates the current block with an unconditional jump.
func (b *FunctionBuilder) Jmp(dest ir.BasicBlockId, args []ir.ValueId) {
	b.fn.DFG.SetBlockTerminator(b.currentBlock, ir.Terminator{Kind: ir.TermJmp, Destination: dest, Args: args})
}

// JmpIf terminates the current block with a conditional jump.
func (b *FunctionBuilder) JmpIf(cond ir.ValueId, then, elseBlock ir.BasicBlockId) {
	b.fn.DFG.SetBlockTerminator(b.currentBlock, ir.Terminator{Kind: ir.TermJmpIf, CondValue: cond, Then: then, Else: elseBlock})
}

// Return terminates the current block, ending the function.
func (b *FunctionBuilder) Return(values []ir.ValueId) {
	b.fn.DFG.SetBlockTerminator(b.currentBlock, ir.Terminator{Kind: ir.TermReturn, ReturnValues: values})
}
