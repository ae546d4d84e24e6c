// Package acir defines the seam between the SSA middle end and real
// arithmetic-circuit opcode emission. Grounded on
// noirc_evaluator/src/ssa.rs's create_program/convert_generated_acir_into_circuit
// and the acvm::acir::circuit::Circuit type they build (both read in
// full this session): Compile reproduces the shape of that boundary —
// a Circuit carrying witness accounting, public/private parameter
// splits, and assertion messages — without performing the actual
// constraint-system emission GeneratedAcir does internally, which is
// explicitly out of scope for this compiler (see DESIGN.md).
package acir

import "kanso/internal/ssa/ir"

// Witness names one row of the constraint system's witness vector.
type Witness uint32

// ExpressionWidth selects how aggressively the (unimplemented) opcode
// emitter would be allowed to fuse terms into a single polynomial gate.
// Mirrors acir::circuit::ExpressionWidth's two variants.
type ExpressionWidth struct {
	Unbounded bool
	Bounded   uint32 // meaningful only when Unbounded is false
}

// UnboundedWidth is the default every backend without a fixed gate
// width uses.
func UnboundedWidth() ExpressionWidth { return ExpressionWidth{Unbounded: true} }

// BoundedWidth fixes the width to a backend-specific constant.
func BoundedWidth(width uint32) ExpressionWidth { return ExpressionWidth{Bounded: width} }

// PublicInputs is an ordered set of witnesses exposed to the verifier:
// either the circuit's public parameters or its return values.
type PublicInputs []Witness

// Opcode is a placeholder for the real arithmetic-circuit instruction
// set (AssertZero, BlackBoxFuncCall, MemoryOp, ...). Emitting actual
// gates is out of scope per spec.md §1; Circuit carries this field only
// so its shape matches what a real backend would fill in.
type Opcode struct{}

// Circuit is one compiled function's constraint system metadata.
// Fields mirror acvm::acir::circuit::Circuit one-for-one so a future,
// real opcode emitter can be dropped in without reshaping this type.
type Circuit struct {
	Name                string
	CurrentWitnessIndex uint32
	ExpressionWidth     ExpressionWidth
	Opcodes             []Opcode
	PrivateParameters   []Witness
	PublicParameters    PublicInputs
	ReturnValues        PublicInputs
	AssertMessages      map[int]string
	Recursive           bool
}

// RemapTable records which Witness (if any) a given SSA ValueId was
// assigned, so a caller inspecting a Circuit can trace a witness back
// to the value that produced it.
type RemapTable struct {
	ValueToWitness map[uint32]Witness
}

// WitnessFor looks up the witness assigned to v, if any.
func (t *RemapTable) WitnessFor(v ir.ValueId) (Witness, bool) {
	w, ok := t.ValueToWitness[v.Index()]
	return w, ok
}

// Compile assigns a witness to each of fn's parameters and return
// values and reports the resulting Circuit shell. It does not lower a
// single instruction into an arithmetic gate: that is the seam this
// package intentionally leaves to a real ACIR backend. Mirrors
// convert_generated_acir_into_circuit's witness/parameter bookkeeping
// without its opcode generation.
func Compile(fn *ir.Function, width ExpressionWidth) (*Circuit, *RemapTable, error) {
	table := &RemapTable{ValueToWitness: map[uint32]Witness{}}
	var next Witness
	assign := func(v ir.ValueId) Witness {
		if w, ok := table.ValueToWitness[v.Index()]; ok {
			return w
		}
		w := next
		next++
		table.ValueToWitness[v.Index()] = w
		return w
	}

	private := make([]Witness, 0, len(fn.Parameters()))
	for _, p := range fn.Parameters() {
		private = append(private, assign(p))
	}

	var returnValues PublicInputs
	for _, b := range fn.ReachableBlocks() {
		t := fn.DFG.Block(b).Terminator()
		if t == nil || t.Kind != ir.TermReturn {
			continue
		}
		for _, v := range t.ReturnValues {
			returnValues = append(returnValues, assign(v))
		}
	}

	circuit := &Circuit{
		Name:                fn.Name,
		CurrentWitnessIndex: uint32(next),
		ExpressionWidth:     width,
		PrivateParameters:   private,
		ReturnValues:        returnValues,
		AssertMessages:      map[int]string{},
		Recursive:           false,
	}
	return circuit, table, nil
}
