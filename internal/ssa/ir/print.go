package ir

import (
	"encoding/json"
	"fmt"
)

// FormatBlockID renders a block id as "b{n}".
func FormatBlockID(id BasicBlockId) string { return formatID("b", id.Index()) }

// FormatFunctionID renders a function id as "f{n}".
func FormatFunctionID(id FunctionId) string { return formatID("f", id.Index()) }

// FormatForeignFunctionID renders a foreign-function id as "ff{n}".
func FormatForeignFunctionID(id ForeignFunctionId) string { return formatID("ff", id.Index()) }

// FormatInstructionID renders an instruction id as "i{n}".
func FormatInstructionID(id InstructionId) string { return formatID("i", id.Index()) }

// FormatValueID renders a value id as "v{n}".
func FormatValueID(id ValueId) string { return formatID("v", id.Index()) }

// DumpProgram renders ssa as deterministic JSON, suitable for
// `enable_ssa_logging`-style snapshot dumps. Every id uses the
// formatting functions above so the same program always produces
// byte-identical output across runs (the pipeline-determinism property
// spec.md requires).
func DumpProgram(ssa *Ssa) ([]byte, error) {
	doc := map[string]any{
		"main":      FormatFunctionID(ssa.MainID()),
		"functions": dumpFunctions(ssa),
	}
	return json.MarshalIndent(doc, "", "  ")
}

func dumpFunctions(ssa *Ssa) []map[string]any {
	var out []map[string]any
	for _, fn := range ssa.Functions() {
		out = append(out, dumpFunction(fn))
	}
	return out
}

func dumpFunction(fn *Function) map[string]any {
	var blocks []map[string]any
	for _, bid := range fn.ReachableBlocks() {
		blocks = append(blocks, dumpBlock(fn.DFG, bid))
	}
	return map[string]any{
		"id":      FormatFunctionID(fn.ID),
		"name":    fn.Name,
		"runtime": fn.Runtime.String(),
		"blocks":  blocks,
	}
}

func dumpBlock(dfg *DataFlowGraph, id BasicBlockId) map[string]any {
	block := dfg.Block(id)
	var params []string
	for _, p := range block.Parameters() {
		params = append(params, FormatValueID(p))
	}
	var instrs []map[string]any
	for _, iid := range block.Instructions() {
		instrs = append(instrs, dumpInstruction(dfg, iid))
	}
	doc := map[string]any{
		"id":           FormatBlockID(id),
		"parameters":   params,
		"instructions": instrs,
	}
	if term := block.Terminator(); term != nil {
		doc["terminator"] = dumpTerminator(*term)
	}
	return doc
}

func dumpInstruction(dfg *DataFlowGraph, id InstructionId) map[string]any {
	data := dfg.Instruction(id)
	doc := map[string]any{
		"id": FormatInstructionID(id),
		"op": opcodeName(data.Op),
	}
	for i, v := range operandsOf(data) {
		doc[fmt.Sprintf("operand%d", i)] = FormatValueID(dfg.Resolve(v))
	}
	return doc
}

func operandsOf(d InstructionData) []ValueId {
	switch d.Op {
	case OpBinary:
		return []ValueId{d.LHS, d.RHS}
	case OpNot, OpCast, OpTruncate, OpConstrain, OpRangeCheck, OpIncrementRc, OpDecrementRc, OpLoad, OpAllocate:
		return []ValueId{d.Operand}
	case OpCall:
		return append([]ValueId{d.Target}, d.Args...)
	case OpStore:
		return []ValueId{d.Address, d.Value}
	case OpEnableSideEffectsIf:
		return []ValueId{d.Condition}
	case OpArrayGet:
		return []ValueId{d.Array, d.Index}
	case OpArraySet:
		return []ValueId{d.Array, d.Index, d.NewValue}
	case OpIfElse:
		return []ValueId{d.Condition, d.Then, d.Else}
	default:
		return nil
	}
}

func dumpTerminator(t Terminator) map[string]any {
	switch t.Kind {
	case TermJmp:
		return map[string]any{"kind": "jmp", "destination": FormatBlockID(t.Destination)}
	case TermJmpIf:
		return map[string]any{"kind": "jmpif", "then": FormatBlockID(t.Then), "else": FormatBlockID(t.Else)}
	default:
		return map[string]any{"kind": "return"}
	}
}

func opcodeName(op Opcode) string {
	names := [...]string{
		"binary", "not", "cast", "truncate", "constrain", "constrain_not_equal",
		"range_check", "call", "allocate", "load", "store",
		"enable_side_effects_if", "array_get", "array_set",
		"increment_rc", "decrement_rc", "noop", "if_else",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}
