package ir

// BasicBlock is a maximal straight-line sequence of instructions ending
// in exactly one Terminator (absent only while the block is still under
// construction). Parameters model the values a predecessor's Jmp must
// supply; they take the place of phi nodes.
type BasicBlock struct {
	parameters   []ValueId
	instructions []InstructionId
	terminator   *Terminator
}

// addParameter appends v to the block's parameter list.
// Callers are expected to have already registered the corresponding
// ValueData (ValueParam) with the DFG; this just records the ordering.
func (b *BasicBlock) addParameter(v ValueId) {
	b.parameters = append(b.parameters, v)
}

// Parameters returns the block's parameters in declaration order.
func (b *BasicBlock) Parameters() []ValueId { return b.parameters }

// Instructions returns the block's instructions in program order.
func (b *BasicBlock) Instructions() []InstructionId { return b.instructions }

// Terminator returns the block's terminator, or nil if unset.
func (b *BasicBlock) Terminator() *Terminator { return b.terminator }

func (b *BasicBlock) insertInstruction(id InstructionId) {
	b.instructions = append(b.instructions, id)
}

func (b *BasicBlock) setTerminator(t Terminator) {
	b.terminator = &t
}

// TakeInstructions removes and returns every instruction in the block,
// leaving it empty. Used by passes (inlining, CFG flattening) that need
// to rebuild a block's body from scratch.
func (b *BasicBlock) TakeInstructions() []InstructionId {
	out := b.instructions
	b.instructions = nil
	return out
}

// TakeTerminator removes the block's terminator, replacing it with an
// empty Return (so the block is never left with a nil terminator
// mid-rewrite) and returns what was there before.
func (b *BasicBlock) TakeTerminator() Terminator {
	old := b.terminator
	b.terminator = &Terminator{Kind: TermReturn}
	if old == nil {
		return Terminator{Kind: TermReturn}
	}
	return *old
}

// SetInstructions overwrites the block's instruction list wholesale.
func (b *BasicBlock) SetInstructions(ids []InstructionId) {
	b.instructions = ids
}

// AppendExisting re-adds an already-built instruction id to the end of
// the block's list, used by passes that rebuild a block one instruction
// at a time (rewriting some, keeping others verbatim) after
// TakeInstructions.
func (b *BasicBlock) AppendExisting(id InstructionId) {
	b.instructions = append(b.instructions, id)
}

// Successors returns the blocks reachable directly from this block's
// terminator.
func (b *BasicBlock) Successors() []BasicBlockId {
	if b.terminator == nil {
		return nil
	}
	return b.terminator.Successors()
}

// IsEmpty reports whether the block has no instructions (it may still
// have a terminator).
func (b *BasicBlock) IsEmpty() bool { return len(b.instructions) == 0 }
