// Package table implements typed tables of references: funcref/externref
// storage, bulk table ops, and growth. See SPEC_FULL.md §4.D.
package table

// Null is the table-storage encoding of a null entry. Non-null entries are
// function indices: the imported range, then the locally defined range,
// then (SPEC_FULL.md §3/§4.D) an appended external-funcref range
// introduced through cross-module linking.
const Null int64 = -1

// Table is one instance's table of references.
type Table struct {
	entries []int64
	max     uint32 // only consulted when hasMax is set
	hasMax  bool
}

// New constructs a table with the given initial size and (optional)
// maximum.
func New(size uint32, max uint32, hasMax bool) *Table {
	t := &Table{entries: make([]int64, size), max: max, hasMax: hasMax}
	for i := range t.entries {
		t.entries[i] = Null
	}
	return t
}

// Size returns the current number of entries.
func (t *Table) Size() uint32 { return uint32(len(t.entries)) }

// Get returns the entry at idx. ok is false (TABLE_BOUNDS_ACCESS) if idx is
// out of range.
func (t *Table) Get(idx uint32) (int64, bool) {
	if uint64(idx) >= uint64(len(t.entries)) {
		return 0, false
	}
	return t.entries[idx], true
}

// Set writes the entry at idx. ok is false on out-of-range idx.
func (t *Table) Set(idx uint32, v int64) bool {
	if uint64(idx) >= uint64(len(t.entries)) {
		return false
	}
	t.entries[idx] = v
	return true
}

// Grow extends the table by delta entries initialised to init, returning
// the previous size, or -1 if delta is negative (represented by the
// caller passing it through uint32, so never here), the new size exceeds
// max, or the addition overflows.
func (t *Table) Grow(delta uint32, init int64) int64 {
	old := uint64(len(t.entries))
	newSize := old + uint64(delta)
	if newSize < old { // overflow
		return -1
	}
	if t.hasMax && newSize > uint64(t.max) {
		return -1
	}
	grown := make([]int64, newSize)
	copy(grown, t.entries)
	for i := old; i < newSize; i++ {
		grown[i] = init
	}
	t.entries = grown
	return int64(old)
}

// Fill sets n entries starting at dest to val. n=0 never traps.
func (t *Table) Fill(dest uint32, val int64, n uint32) bool {
	if n == 0 {
		return true
	}
	end := uint64(dest) + uint64(n)
	if end < uint64(dest) || end > uint64(len(t.entries)) {
		return false
	}
	for i := uint64(dest); i < end; i++ {
		t.entries[i] = val
	}
	return true
}

// Copy implements table.copy (memmove semantics, possibly across tables;
// src and dst may be the same table).
func Copy(dst *Table, dstIdx uint32, src *Table, srcIdx uint32, n uint32) bool {
	if n == 0 {
		return true
	}
	dstEnd := uint64(dstIdx) + uint64(n)
	srcEnd := uint64(srcIdx) + uint64(n)
	if dstEnd < uint64(dstIdx) || dstEnd > uint64(len(dst.entries)) {
		return false
	}
	if srcEnd < uint64(srcIdx) || srcEnd > uint64(len(src.entries)) {
		return false
	}
	copy(dst.entries[dstIdx:dstEnd], src.entries[srcIdx:srcEnd])
	return true
}

// ElemSegment is a passive element segment: a pool of encoded references
// plus a dropped flag. Once dropped, its effective size is zero.
type ElemSegment struct {
	Refs    []int64
	Dropped bool
}

// Size returns the segment's effective size (0 once dropped).
func (e *ElemSegment) Size() int {
	if e.Dropped {
		return 0
	}
	return len(e.Refs)
}

// Drop marks the segment dropped.
func (e *ElemSegment) Drop() { e.Dropped = true }

// Init implements table.init: copies n entries from seg[src:src+n] into
// dest. Referencing a dropped segment with n>0 always traps (size is 0).
func (t *Table) Init(seg *ElemSegment, dest, src, n uint32) bool {
	if n == 0 {
		return true
	}
	segSize := uint64(seg.Size())
	if uint64(src)+uint64(n) < uint64(src) || uint64(src)+uint64(n) > segSize {
		return false
	}
	destEnd := uint64(dest) + uint64(n)
	if destEnd < uint64(dest) || destEnd > uint64(len(t.entries)) {
		return false
	}
	copy(t.entries[dest:destEnd], seg.Refs[src:src+uint32(n)])
	return true
}
