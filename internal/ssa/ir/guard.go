package ir

import (
	"fmt"

	"github.com/petermattis/goid"
	"github.com/sasha-s/go-deadlock"
)

// ownerGuard makes the single-threaded, exclusive-ownership model of
// spec.md's concurrency section machine-checked instead of merely
// documented: the first goroutine to touch a DataFlowGraph becomes its
// recorded owner, and any later access from a different goroutine is an
// internal compiler error, not a silently-tolerated race.
//
// The lock itself is a deadlock.Mutex rather than a bare sync.Mutex so
// that if a future pass is mistakenly restructured to hold two DFGs'
// guards at once (e.g. while inlining one function's body into another)
// a lock-ordering cycle is reported immediately in tests rather than
// manifesting as an intermittent hang.
type ownerGuard struct {
	mu      deadlock.Mutex
	ownerID int64
	set     bool
}

// check panics with an ICE-flavored message if a goroutine other than
// the recorded owner calls it. The very first call from any goroutine
// establishes ownership.
func (g *ownerGuard) check() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := goid.Get()
	if !g.set {
		g.ownerID = id
		g.set = true
		return
	}
	if g.ownerID != id {
		panic(fmt.Sprintf(
			"ir: DataFlowGraph accessed from goroutine %d but is owned by goroutine %d "+
				"(a single DataFlowGraph must be owned by exactly one goroutine at a time)",
			id, g.ownerID))
	}
}

// release clears ownership, allowing a different goroutine to take over
// (used when a Function's DFG is handed off between pipeline stages that
// intentionally run on separate worker goroutines, e.g. per-function
// parallel passes — not exercised by the fixed pipeline today, but kept
// so the guard doesn't need to be bypassed if that ever changes).
func (g *ownerGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.set = false
}
