package brillig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ssa/ir"
)

func feU64(n uint64) ir.FieldElement { return ir.FromUint64(n) }

// repeatingGroup finds the shortest prefix whose repetition reconstructs
// the whole array: 16 copies of the same element report a group of one
// element repeated 16 times.
func TestRepeatingGroup_AllSameElement(t *testing.T) {
	elements := make([]ir.FieldElement, 16)
	for i := range elements {
		elements[i] = feU64(1)
	}

	group, itemCount := repeatingGroup(elements)
	require.Len(t, group, 1)
	assert.Equal(t, feU64(1).String(), group[0].String())
	assert.Equal(t, uint32(16), itemCount)
}

// A genuinely non-repeating array reports itself as a single-repetition
// group of its own full length.
func TestRepeatingGroup_NoRepetition(t *testing.T) {
	elements := []ir.FieldElement{feU64(1), feU64(2), feU64(3)}

	group, itemCount := repeatingGroup(elements)
	require.Len(t, group, 3)
	assert.Equal(t, uint32(1), itemCount)
}

// A multi-element group repeating a handful of times is found at its
// true period rather than only detecting single-element repetition.
func TestRepeatingGroup_MultiElementGroup(t *testing.T) {
	elements := []ir.FieldElement{
		feU64(5), feU64(9),
		feU64(5), feU64(9),
		feU64(5), feU64(9),
	}

	group, itemCount := repeatingGroup(elements)
	require.Len(t, group, 2)
	assert.Equal(t, feU64(5).String(), group[0].String())
	assert.Equal(t, feU64(9).String(), group[1].String())
	assert.Equal(t, uint32(3), itemCount)
}

// ShouldSpecialize's boundary is exact: 10 repetitions still unrolls,
// 11 crosses into the loop strategy.
func TestShouldSpecialize_Boundary(t *testing.T) {
	assert.False(t, ShouldSpecialize(10), "itemCount at the threshold must still unroll")
	assert.True(t, ShouldSpecialize(11), "itemCount just past the threshold must loop")
}

// Scenario 5: at the threshold (10 repetitions, not above it),
// CompileRepeatingArray takes the straight-line path and emits exactly
// one OpArraySet per element.
func TestCompileRepeatingArray_StraightLineAtThreshold(t *testing.T) {
	elements := make([]ir.FieldElement, 10)
	for i := range elements {
		elements[i] = feU64(7)
	}

	var next Register
	ops := CompileRepeatingArray(elements, 0, &next)

	sets := countOp(ops, OpArraySet)
	assert.Equal(t, 10, sets, "straight-line strategy stores once per element")

	jumps := countOp(ops, OpJump) + countOp(ops, OpJumpIfNot)
	assert.Zero(t, jumps, "straight-line strategy never branches")
}

// Scenario 5: above the threshold, CompileRepeatingArray takes the loop
// path, whose bytecode size tracks the repeating group's length, not
// the repetition count.
func TestCompileRepeatingArray_LoopAboveThreshold(t *testing.T) {
	group := []ir.FieldElement{feU64(3), feU64(4)}
	elements := make([]ir.FieldElement, 0, 40)
	for i := 0; i < 20; i++ {
		elements = append(elements, group...)
	}

	var next Register
	ops := CompileRepeatingArray(elements, 0, &next)

	sets := countOp(ops, OpArraySet)
	assert.Equal(t, len(group), sets, "loop strategy stores the group once per iteration's worth of bytecode, not once per repetition")

	assert.Equal(t, 1, countOp(ops, OpJumpIfNot), "loop strategy tests the counter against the limit once")
	assert.Equal(t, 1, countOp(ops, OpJump), "loop strategy jumps back to the top once")
}

// loopArrayInit's bytecode size is independent of itemCount: doubling
// the repetition count must not change the opcode count at all, since
// the loop body is only ever emitted once.
func TestLoopArrayInit_SizeIndependentOfItemCount(t *testing.T) {
	group := []ir.FieldElement{feU64(1), feU64(2), feU64(3)}

	var next1 Register
	small := loopArrayInit(group, 11, 0, &next1)

	var next2 Register
	large := loopArrayInit(group, 1000, 0, &next2)

	assert.Equal(t, len(small), len(large), "loop body size must not grow with itemCount")
}

// loopArrayInit produces a structurally sound loop: the conditional
// jump-out target lands after the loop, and the unconditional jump-back
// target lands at the loop's condition check.
func TestLoopArrayInit_JumpTargetsAreConsistent(t *testing.T) {
	group := []ir.FieldElement{feU64(9)}

	var next Register
	ops := loopArrayInit(group, 20, 0, &next)

	var condIdx, exitFixupIdx, backJumpIdx int
	foundCond, foundExit, foundBack := false, false, false
	for i, op := range ops {
		if op.Kind == OpBinary && op.BinOp == ir.BinLt && !foundCond {
			condIdx = i
			foundCond = true
			continue
		}
		if op.Kind == OpJumpIfNot && !foundExit {
			exitFixupIdx = i
			foundExit = true
			continue
		}
		if op.Kind == OpJump {
			backJumpIdx = i
			foundBack = true
		}
	}
	require.True(t, foundCond && foundExit && foundBack)

	assert.Equal(t, condIdx, ops[backJumpIdx].Target, "the back jump must land at the loop's condition check")
	assert.Equal(t, len(ops), ops[exitFixupIdx].Target, "the exit jump must land past the end of the loop body")
}

func countOp(ops []Opcode, kind OpKind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
