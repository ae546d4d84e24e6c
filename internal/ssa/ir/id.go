// Package ir implements the SSA intermediate representation: arena-indexed
// values and instructions, basic blocks, the per-function data-flow graph,
// and the function/program containers that the optimization pipeline
// operates over.
package ir

import "fmt"

// Id is a typed index into one of the arenas (DenseMap/SparseMap) keyed
// by the phantom type T. Two Ids of different arenas can carry the same
// raw index without colliding because they're never compared across
// arena types.
type Id[T any] struct {
	index uint32
}

// NewID constructs an Id directly from a raw index. Only arena types in
// this package should call this; everything else receives Ids back from
// an arena's Insert/Push.
func NewID[T any](index uint32) Id[T] { return Id[T]{index: index} }

// Index returns the raw arena index this id refers to.
func (id Id[T]) Index() uint32 { return id.index }

// AtomicCounter hands out a strictly increasing sequence of ids. DenseMap,
// SparseMap and the DataFlowGraph keep their own counters and do not use
// it.
type AtomicCounter[T any] struct {
	next uint32
}

// Next returns a fresh id and advances the counter.
func (c *AtomicCounter[T]) Next() Id[T] {
	id := NewID[T](c.next)
	c.next++
	return id
}

// Peek returns the id that the next call to Next will return, without
// consuming it.
func (c *AtomicCounter[T]) Peek() Id[T] { return NewID[T](c.next) }

// DenseMap is an append-only arena: every slot from 0 to Len()-1 is
// populated, so Insert always appends and never leaves a hole.
type DenseMap[T any] struct {
	data []T
}

// Insert appends a value and returns the id it was stored under.
func (m *DenseMap[T]) Insert(v T) Id[T] {
	id := NewID[T](uint32(len(m.data)))
	m.data = append(m.data, v)
	return id
}

// Get returns the value stored at id. Panics if id is out of range,
// mirroring the arena's "always populated" invariant.
func (m *DenseMap[T]) Get(id Id[T]) T {
	return m.data[id.index]
}

// GetMut returns a pointer to the slot at id so callers can mutate in place.
func (m *DenseMap[T]) GetMut(id Id[T]) *T {
	return &m.data[id.index]
}

// Set overwrites the value stored at id.
func (m *DenseMap[T]) Set(id Id[T], v T) {
	m.data[id.index] = v
}

// Len returns the number of populated slots.
func (m *DenseMap[T]) Len() int { return len(m.data) }

// Indices returns every id currently populated, in insertion order.
func (m *DenseMap[T]) Indices() []Id[T] {
	out := make([]Id[T], len(m.data))
	for i := range m.data {
		out[i] = NewID[T](uint32(i))
	}
	return out
}

// SparseMap is an arena where slots can be individually removed, leaving
// holes. Unlike DenseMap, indexing a removed or never-inserted id panics
// with the same diagnostic message as the original implementation, since
// a lookup miss here is always an internal compiler bug, never a
// reportable user error.
type SparseMap[T any] struct {
	data map[uint32]*T
	next uint32
}

// Insert stores v under a freshly allocated id.
func (m *SparseMap[T]) Insert(v T) Id[T] {
	if m.data == nil {
		m.data = make(map[uint32]*T)
	}
	id := NewID[T](m.next)
	m.next++
	m.data[id.index] = &v
	return id
}

// Get returns the value at id, panicking if it was never inserted or has
// since been removed.
func (m *SparseMap[T]) Get(id Id[T]) T {
	v, ok := m.data[id.index]
	if !ok {
		panic("Invalid id used in SparseMap::index")
	}
	return *v
}

// GetMut returns a pointer to the slot at id for in-place mutation.
func (m *SparseMap[T]) GetMut(id Id[T]) *T {
	v, ok := m.data[id.index]
	if !ok {
		panic("Invalid id used in SparseMap::index_mut")
	}
	return v
}

// Set overwrites (or inserts, if previously removed) the value at id.
func (m *SparseMap[T]) Set(id Id[T], v T) {
	if m.data == nil {
		m.data = make(map[uint32]*T)
	}
	m.data[id.index] = &v
}

// Remove deletes the slot at id. Subsequent Get calls on it panic.
func (m *SparseMap[T]) Remove(id Id[T]) {
	delete(m.data, id.index)
}

// Contains reports whether id currently has a value.
func (m *SparseMap[T]) Contains(id Id[T]) bool {
	_, ok := m.data[id.index]
	return ok
}

// TwoWayMap is a bijective interner: Insert returns the existing key if
// an equal value was already interned, so the same logical value is
// never stored twice under two different ids.
type TwoWayMap[K comparable, V any] struct {
	byID    DenseMap[V]
	byValue map[K]Id[V]
	keyOf   func(V) K
}

// NewTwoWayMap constructs an interner keyed by the given projection.
func NewTwoWayMap[K comparable, V any](keyOf func(V) K) *TwoWayMap[K, V] {
	return &TwoWayMap[K, V]{byValue: make(map[K]Id[V]), keyOf: keyOf}
}

// Insert interns v, returning its id. If an equal value (same key) was
// already interned, its existing id is returned and no new slot is
// allocated.
func (m *TwoWayMap[K, V]) Insert(v V) Id[V] {
	key := m.keyOf(v)
	if id, ok := m.byValue[key]; ok {
		return id
	}
	id := m.byID.Insert(v)
	m.byValue[key] = id
	return id
}

// Get returns the interned value for id.
func (m *TwoWayMap[K, V]) Get(id Id[V]) V { return m.byID.Get(id) }

// Len returns the number of distinct interned values.
func (m *TwoWayMap[K, V]) Len() int { return m.byID.Len() }

// IdSet is a deduplicating, insertion-ordered collection of ids. Used
// wherever the original keeps an IndexSet of ValueIds/InstructionIds
// (e.g. the set of instructions already visited by a pass).
type IdSet[T any] struct {
	order []Id[T]
	has   map[uint32]struct{}
}

// Add inserts id if not already present; returns true if it was newly
// added.
func (s *IdSet[T]) Add(id Id[T]) bool {
	if s.has == nil {
		s.has = make(map[uint32]struct{})
	}
	if _, ok := s.has[id.index]; ok {
		return false
	}
	s.has[id.index] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id has been added.
func (s *IdSet[T]) Contains(id Id[T]) bool {
	_, ok := s.has[id.index]
	return ok
}

// Items returns the ids in insertion order.
func (s *IdSet[T]) Items() []Id[T] { return s.order }

// Len returns the number of distinct ids added.
func (s *IdSet[T]) Len() int { return len(s.order) }

// formatID renders an id with the given single/double-letter prefix used
// throughout dumps and error messages: "b" for BasicBlock, "f" for
// Function, "ff" for ForeignFunction, "i" for Instruction, "v" for Value.
func formatID(prefix string, index uint32) string {
	return fmt.Sprintf("%s%d", prefix, index)
}
