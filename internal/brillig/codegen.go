package brillig

import (
	"fmt"

	"kanso/internal/ssa/ir"
)

// Generate lowers one unconstrained function into a register-machine
// Artifact. Grounded on brillig/brillig_gen/brillig_block.rs's
// instruction-by-instruction walk (read in full this session), reduced
// to the single-block, fully-inlined shape the pipeline's inline pass
// guarantees every Brillig function has by the time codegen runs (see
// DESIGN.md): a handful of opcodes this walk may still encounter —
// black-box calls, oracle calls, an un-inlined recursive call, a
// surviving OpIfElse — are reported as returned errors rather than
// silently miscompiled, since nothing in this front end can produce
// them today.
func Generate(fn *ir.Function, globalConsts map[string]Register, procs *ProcedureRegistry) (*Artifact, error) {
	g := &generator{
		fn:         fn,
		dfg:        fn.DFG,
		regs:       map[uint32]Register{},
		globalRegs: globalConsts,
		procs:      procs,
		blockStart: map[uint32]int{},
		fixups:     nil,
	}
	return g.run()
}

type fixup struct {
	opIndex int
	target  ir.BasicBlockId
}

type generator struct {
	fn    *ir.Function
	dfg   *ir.DataFlowGraph
	regs  map[uint32]Register // ValueId.Index() -> allocated register
	next  Register
	procs *ProcedureRegistry

	globalRegs map[string]Register // constant key -> register already set up by the shared globals-init Artifact

	opcodes    []Opcode
	blockStart map[uint32]int // BasicBlockId.Index() -> offset into opcodes
	fixups     []fixup
}

func (g *generator) run() (*Artifact, error) {
	blocks := g.fn.ReachableBlocks()

	// Block parameters need registers up front: a predecessor's Jmp
	// must be able to move its arguments into them before the
	// parameter's own block has been walked.
	for _, b := range blocks {
		for _, p := range g.dfg.BlockParameters(b) {
			g.alloc(p)
		}
	}

	var ferr error
	for _, b := range blocks {
		g.blockStart[b.Index()] = len(g.opcodes)
		block := g.dfg.Block(b)
		for _, id := range block.Instructions() {
			if err := g.emitInstruction(id); err != nil {
				ferr = err
				break
			}
		}
		if ferr != nil {
			break
		}
		g.emitTerminator(block.Terminator())
	}
	if ferr != nil {
		return nil, ferr
	}

	for _, fx := range g.fixups {
		start, ok := g.blockStart[fx.target.Index()]
		if !ok {
			return nil, fmt.Errorf("brillig: jump target block %d never laid out", fx.target.Index())
		}
		switch g.opcodes[fx.opIndex].Kind {
		case OpJump:
			g.opcodes[fx.opIndex].Target = start
		case OpJumpIfNot:
			g.opcodes[fx.opIndex].Target = start
		}
	}

	return &Artifact{
		Name:         g.fn.Name,
		Opcodes:      g.opcodes,
		NumRegisters: uint32(g.next),
		EntryLabel:   g.blockStart[g.fn.Entry().Index()],
	}, nil
}

func (g *generator) alloc(v ir.ValueId) Register {
	v = g.dfg.Resolve(v)
	if r, ok := g.regs[v.Index()]; ok {
		return r
	}
	r := g.next
	g.next++
	g.regs[v.Index()] = r
	return r
}

// operand returns the register already holding v's value, materializing
// a constant with a fresh OpConst (or reusing a hoisted global's
// register) the first time it's referenced. Any other kind of value
// reaching here without a register already assigned is an internal
// compiler error: SSA guarantees a definition is processed before its
// uses.
func (g *generator) operand(v ir.ValueId) Register {
	v = g.dfg.Resolve(v)
	if r, ok := g.regs[v.Index()]; ok {
		return r
	}
	data := g.dfg.ValueData(v)
	if data.Kind != ir.ValueNumericConstant {
		panic(fmt.Sprintf("brillig: value %d used before its register was assigned", v.Index()))
	}
	fe, _ := g.dfg.GetNumericConstant(v)
	key := constantKey(fe, data.NumericType)
	if r, ok := g.globalRegs[key]; ok {
		g.regs[v.Index()] = r
		return r
	}
	r := g.alloc(v)
	g.opcodes = append(g.opcodes, Opcode{Kind: OpConst, Dst: r, Const: fe})
	return r
}

func constantKey(fe ir.FieldElement, t ir.NumericType) string {
	return fe.String() + ":" + t.String()
}

func (g *generator) emitInstruction(id ir.InstructionId) error {
	d := g.dfg.Instruction(id)
	results := g.dfg.ResultsOf(id)
	dst := func() Register {
		if len(results) == 0 {
			return 0
		}
		return g.alloc(results[0])
	}

	switch d.Op {
	case ir.OpBinary:
		g.opcodes = append(g.opcodes, Opcode{
			Kind: OpBinary, Dst: dst(), BinOp: d.BinOp,
			LHS: g.operand(d.LHS), RHS: g.operand(d.RHS),
		})
	case ir.OpNot:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpNot, Dst: dst(), Src: g.operand(d.Operand)})
	case ir.OpCast:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpCast, Dst: dst(), Src: g.operand(d.Operand), NumericType: d.DstNumeric})
	case ir.OpTruncate:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpTruncate, Dst: dst(), Src: g.operand(d.Operand), NumericType: ir.UnsignedOf(d.TruncBits)})
	case ir.OpConstrain:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpConstrain, Src: g.operand(d.Operand), Message: d.Message})
	case ir.OpConstrainNotEqual:
		// Operand already carries the boolean this constrains false
		// (mirrors how every other pass treats OpConstrainNotEqual's
		// single Operand field); no native "constrain false" opcode, so
		// lower to not+constrain.
		neq := g.next
		g.next++
		g.opcodes = append(g.opcodes, Opcode{Kind: OpNot, Dst: neq, Src: g.operand(d.Operand)})
		g.opcodes = append(g.opcodes, Opcode{Kind: OpConstrain, Src: neq, Message: d.Message})
	case ir.OpRangeCheck:
		// A Brillig register already carries its NumericType's width
		// natively; unlike ACIR there is no bit-decomposition gate to
		// emit, so this is a deliberate no-op (brillig/mod.rs only
		// emits BlackBoxOp::RangeCheck for a handful of intrinsics this
		// front end never produces).
	case ir.OpAllocate:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpAllocate, Dst: dst()})
	case ir.OpLoad:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpLoad, Dst: dst(), Src: g.operand(d.Operand)})
	case ir.OpStore:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpStore, Src: g.operand(d.Address), NewValue: g.operand(d.Value)})
	case ir.OpEnableSideEffectsIf:
		// Brillig has no arithmetic predicate to gate: unconstrained
		// code branches for real instead of blending both sides, so
		// this instruction carries no runtime effect here.
	case ir.OpArrayGet:
		g.opcodes = append(g.opcodes, Opcode{Kind: OpArrayGet, Dst: dst(), Array: g.operand(d.Array), Index: g.operand(d.Index)})
	case ir.OpArraySet:
		if err := g.emitArraySet(d, dst()); err != nil {
			return err
		}
	case ir.OpIncrementRc, ir.OpDecrementRc:
		// Reference counting exists to let ACIR's value-semantics
		// arrays share a backing store until mutated; Brillig mutates
		// registers directly and has no equivalent bookkeeping to do.
	case ir.OpNoop:
	case ir.OpIfElse:
		return fmt.Errorf("brillig: OpIfElse reached codegen, remove_if_else should have lowered it first")
	case ir.OpCall:
		return g.emitCall(d, results)
	default:
		return fmt.Errorf("brillig: unhandled opcode %v", d.Op)
	}
	return nil
}

// emitArraySet copies the source array into a fresh run of registers
// (via the shared array-copy procedure) before writing the new element,
// preserving value semantics: mutating the copy must never be visible
// through the original array's registers.
func (g *generator) emitArraySet(d ir.InstructionData, dst Register) error {
	g.procs.Ensure(ProcArrayCopy, arrayCopyArtifact)
	g.opcodes = append(g.opcodes, Opcode{
		Kind: OpCall, Proc: ProcArrayCopy, Args: []Register{g.operand(d.Array)},
	})
	g.opcodes = append(g.opcodes, Opcode{
		Kind: OpArraySet, Dst: dst, Array: dst, Index: g.operand(d.Index), NewValue: g.operand(d.NewValue),
	})
	return nil
}

func (g *generator) emitCall(d ir.InstructionData, results []ir.ValueId) error {
	target := g.dfg.ValueData(g.dfg.Resolve(d.Target))
	switch target.Kind {
	case ir.ValueIntrinsic:
		return g.emitIntrinsic(target.Intrinsic, d, results)
	case ir.ValueFunction:
		return fmt.Errorf("brillig: call to function %d reached codegen uninlined", target.Function.Index())
	case ir.ValueForeignFunction:
		name, _ := g.dfg.ForeignFunctionName(target.ForeignFunction)
		return fmt.Errorf("brillig: foreign function %q calls are not implemented", name)
	default:
		return fmt.Errorf("brillig: call target is not callable")
	}
}

func (g *generator) emitIntrinsic(i ir.Intrinsic, d ir.InstructionData, results []ir.ValueId) error {
	switch i {
	case ir.IntrinsicArrayLen:
		t := g.dfg.TypeOfValue(d.Args[0])
		length := t.ArrayLen
		r := g.alloc(results[0])
		g.opcodes = append(g.opcodes, Opcode{Kind: OpConst, Dst: r, Const: ir.FromUint64(uint64(length))})
		return nil
	case ir.IntrinsicIsUnconstrained:
		r := g.alloc(results[0])
		g.opcodes = append(g.opcodes, Opcode{Kind: OpConst, Dst: r, Const: ir.One()})
		return nil
	case ir.IntrinsicApplyRangeConstraint:
		return nil
	case ir.IntrinsicAssertConstant, ir.IntrinsicStaticAssert:
		return fmt.Errorf("brillig: %s reached codegen, evaluate_static_assert_and_assert_constant should have resolved it", i)
	default:
		return fmt.Errorf("brillig: intrinsic %s is not implemented", i)
	}
}

func (g *generator) emitTerminator(t *ir.Terminator) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ir.TermReturn:
		vals := make([]Register, len(t.ReturnValues))
		for i, v := range t.ReturnValues {
			vals[i] = g.operand(v)
		}
		g.opcodes = append(g.opcodes, Opcode{Kind: OpReturn, Values: vals})
	case ir.TermJmp:
		params := g.dfg.BlockParameters(t.Destination)
		for i, arg := range t.Args {
			g.opcodes = append(g.opcodes, Opcode{Kind: OpMov, Dst: g.regs[params[i].Index()], Src: g.operand(arg)})
		}
		idx := len(g.opcodes)
		g.opcodes = append(g.opcodes, Opcode{Kind: OpJump})
		g.fixups = append(g.fixups, fixup{opIndex: idx, target: t.Destination})
	case ir.TermJmpIf:
		cond := g.operand(t.CondValue)
		idx := len(g.opcodes)
		g.opcodes = append(g.opcodes, Opcode{Kind: OpJumpIfNot, Cond: cond})
		g.fixups = append(g.fixups, fixup{opIndex: idx, target: t.Else})
		// Then falls straight through: ReachableBlocks lays it out as
		// the very next block in DFS order.
	}
}
