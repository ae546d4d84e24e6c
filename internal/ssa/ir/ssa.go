package ir

// Ssa is the full compiled program: every function reachable from the
// designated main function, plus the shared globals DFG that holds
// module-level constant values (the repeating arrays Brillig's global
// initializer specializes on).
type Ssa struct {
	functions map[uint32]*Function
	order     []FunctionId
	mainID    FunctionId
	hasMain   bool
	nextID    uint32

	// Globals is a DataFlowGraph of its own holding module-level
	// constants. The Brillig global initializer (internal/brillig
	// globals.go) reads its values; no function's DFG refers to them.
	Globals *DataFlowGraph
}

// NewSsa returns an empty program with an initialized (but empty)
// globals DFG.
func NewSsa() *Ssa {
	return &Ssa{functions: make(map[uint32]*Function), Globals: NewDataFlowGraph()}
}

// AddFunction registers fn under a freshly allocated FunctionId and
// returns it. The very first function added becomes Main.
func (s *Ssa) AddFunction(name string, runtime RuntimeType) *Function {
	id := NewID[functionArenaTag](s.nextID)
	s.nextID++
	fn := NewFunction(id, name, runtime)
	s.functions[id.Index()] = fn
	s.order = append(s.order, id)
	if !s.hasMain {
		s.mainID = id
		s.hasMain = true
	}
	return fn
}

// SetMain designates id as the program's entry point, overriding the
// "first function added" default.
func (s *Ssa) SetMain(id FunctionId) { s.mainID = id; s.hasMain = true }

// MainID returns the entry-point function's id.
func (s *Ssa) MainID() FunctionId { return s.mainID }

// MainFunction returns the entry-point function.
func (s *Ssa) MainFunction() *Function { return s.functions[s.mainID.Index()] }

// Function returns the function stored at id.
func (s *Ssa) Function(id FunctionId) *Function { return s.functions[id.Index()] }

// Functions returns every function in the program, in the order they
// were added (Main is not necessarily first if SetMain was used).
func (s *Ssa) Functions() []*Function {
	out := make([]*Function, len(s.order))
	for i, id := range s.order {
		out[i] = s.functions[id.Index()]
	}
	return out
}

// RemoveFunction deletes id from the program and from its function
// order. No pass in the pipeline calls it.
func (s *Ssa) RemoveFunction(id FunctionId) {
	delete(s.functions, id.Index())
	for i, oid := range s.order {
		if oid.Index() == id.Index() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
