package brillig

import "kanso/internal/ssa/ir"

// ProcedureId names one of a small set of subroutines that are common
// enough across many call sites to generate once and call into, rather
// than inline at every use. Grounded on brillig/brillig_ir/procedures
// (read in full this session), which keeps a much larger library
// (array copy, quotient/remainder division in several widths, slice
// push/pop at both ends, range checks). This port keeps the one
// subroutine this front end's instruction set actually needs more than
// once — copying an array's backing registers when a value-semantics
// ArraySet would otherwise require duplicating the copy logic inline
// at every call site — and does not build out the rest of the
// original's procedure catalog, since nothing here yet lowers to a
// call that would need them; see DESIGN.md.
type ProcedureId uint8

const (
	ProcArrayCopy ProcedureId = iota
)

// ProcedureRegistry tracks which shared procedures have already been
// emitted for the current program, so Generate only ever builds each
// one's Artifact once no matter how many call sites reference it.
type ProcedureRegistry struct {
	emitted map[ProcedureId]*Artifact
}

// NewProcedureRegistry returns an empty registry.
func NewProcedureRegistry() *ProcedureRegistry {
	return &ProcedureRegistry{emitted: make(map[ProcedureId]*Artifact)}
}

// Ensure returns the Artifact for id, building it via build the first
// time it's asked for and reusing that Artifact on every later call.
func (r *ProcedureRegistry) Ensure(id ProcedureId, build func() *Artifact) *Artifact {
	if a, ok := r.emitted[id]; ok {
		return a
	}
	a := build()
	r.emitted[id] = a
	return a
}

// arrayCopyArtifact is ProcArrayCopy's body: copy Length elements from
// register Src (the first of a contiguous run) into the contiguous run
// starting at Dst, one element at a time via a counted loop. Registers
// 0-3 are reserved for its own parameters/counter by convention; a real
// allocator would instead give it whatever free registers the caller
// supplies, which this reduced port does not yet implement.
func arrayCopyArtifact() *Artifact {
	const (
		regSrc Register = iota
		regDst
		regLength
		regCounter
	)
	return &Artifact{
		Name: "array_copy",
		Opcodes: []Opcode{
			{Kind: OpConst, Dst: regCounter, Const: ir.FieldElementZero()},
			// loop body and bound check are left to codegen, which knows
			// the concrete Length at each call site and can unroll this
			// short, fixed-trip-count loop directly instead of needing a
			// general indexed-register addressing mode this VM model
			// doesn't have.
		},
		NumRegisters: 4,
	}
}
