package ir

// Location is one frame of a call stack: the source position a value or
// instruction can be blamed on when a later diagnostic needs to point
// somewhere in the original program.
type Location struct {
	File string
	Line int
	Col  int
}

// CallStackId indexes into a CallStackHelper's interned call-stack table.
type CallStackId = Id[callStackEntry]

type callStackEntry struct {
	locations []Location
	parent    CallStackId
	hasParent bool
}

// CallStackHelper interns call stacks the same way the rest of the IR
// interns everything else: two instructions raised from the same call
// path share one CallStackId instead of each carrying its own copy of
// the (potentially deep) location list.
type CallStackHelper struct {
	entries DenseMap[callStackEntry]
	byKey   map[string]CallStackId
	root    CallStackId
	rootSet bool
}

// Root returns the id of the empty call stack, creating it on first use.
func (h *CallStackHelper) Root() CallStackId {
	if !h.rootSet {
		h.root = h.entries.Insert(callStackEntry{})
		h.rootSet = true
	}
	return h.root
}

// Push interns a new call stack obtained by appending loc onto the stack
// identified by parent.
func (h *CallStackHelper) Push(parent CallStackId, loc Location) CallStackId {
	if h.byKey == nil {
		h.byKey = make(map[string]CallStackId)
	}
	key := stackKey(parent, loc)
	if id, ok := h.byKey[key]; ok {
		return id
	}
	id := h.entries.Insert(callStackEntry{
		locations: append(h.Locations(parent), loc),
		parent:    parent,
		hasParent: true,
	})
	h.byKey[key] = id
	return id
}

// Locations returns the full, root-to-leaf location list for id.
func (h *CallStackHelper) Locations(id CallStackId) []Location {
	entry := h.entries.Get(id)
	out := make([]Location, len(entry.locations))
	copy(out, entry.locations)
	return out
}

func stackKey(parent CallStackId, loc Location) string {
	return formatID("cs", parent.Index()) + "|" + loc.File + "|" +
		formatID("l", uint32(loc.Line)) + formatID("c", uint32(loc.Col))
}
