// Package memory implements the engine's single linear-memory region: a
// page-addressed byte store with a growth cap and bounds-checked
// load/store, bulk copy/fill, and passive-segment init. See
// SPEC_FULL.md §4.C.
package memory

import "math"

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

// Memory is one instance's linear memory. The backing array is
// pre-allocated at the maximum so growth is memset-only, per
// SPEC_FULL.md §4.C / §3.
type Memory struct {
	bytes       []byte
	currentSize uint32 // bytes, always PageSize*pages
	maxPages    uint32
}

// New pre-allocates a Memory with minPages already committed and room to
// grow to maxPages.
func New(minPages, maxPages uint32) *Memory {
	m := &Memory{
		bytes:       make([]byte, uint64(maxPages)*PageSize),
		currentSize: minPages * PageSize,
		maxPages:    maxPages,
	}
	return m
}

// Size returns the current size in pages.
func (m *Memory) Size() uint32 { return m.currentSize / PageSize }

// Grow extends current_size by delta pages, zero-filling the new region,
// and returns the previous page count. Returns -1 if the result would
// exceed maxPages.
func (m *Memory) Grow(delta uint32) int64 {
	old := m.Size()
	newPages := uint64(old) + uint64(delta)
	if newPages > uint64(m.maxPages) {
		return -1
	}
	newSize := newPages * PageSize
	for i := uint64(m.currentSize); i < newSize; i++ {
		m.bytes[i] = 0
	}
	m.currentSize = uint32(newSize)
	return int64(old)
}

// Bytes returns the raw backing slice truncated to current_size. The
// returned slice aliases memory storage; callers must not retain it past
// the next Grow.
func (m *Memory) Bytes() []byte { return m.bytes[:m.currentSize] }

func (m *Memory) inBounds(addr uint64, size uint64) bool {
	end := addr + size
	return end >= addr && end <= uint64(m.currentSize)
}

// ReadByte/Read16/Read32/Read64 load raw little-endian unsigned values at
// addr (the caller adds the static offset and does any sign extension).
// ok is false (a trap, OUT_OF_BOUNDS_MEMORY) when the access does not fit.

func (m *Memory) ReadByte(addr uint64) (byte, bool) {
	if !m.inBounds(addr, 1) {
		return 0, false
	}
	return m.bytes[addr], true
}

func (m *Memory) WriteByte(addr uint64, v byte) bool {
	if !m.inBounds(addr, 1) {
		return false
	}
	m.bytes[addr] = v
	return true
}

func (m *Memory) Read16(addr uint64) (uint16, bool) {
	if !m.inBounds(addr, 2) {
		return 0, false
	}
	return uint16(m.bytes[addr]) | uint16(m.bytes[addr+1])<<8, true
}

func (m *Memory) Write16(addr uint64, v uint16) bool {
	if !m.inBounds(addr, 2) {
		return false
	}
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
	return true
}

func (m *Memory) Read32(addr uint64) (uint32, bool) {
	if !m.inBounds(addr, 4) {
		return 0, false
	}
	b := m.bytes[addr : addr+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

func (m *Memory) Write32(addr uint64, v uint32) bool {
	if !m.inBounds(addr, 4) {
		return false
	}
	b := m.bytes[addr : addr+4]
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return true
}

func (m *Memory) Read64(addr uint64) (uint64, bool) {
	if !m.inBounds(addr, 8) {
		return 0, false
	}
	b := m.bytes[addr : addr+8]
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, true
}

func (m *Memory) Write64(addr uint64, v uint64) bool {
	if !m.inBounds(addr, 8) {
		return false
	}
	b := m.bytes[addr : addr+8]
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
	return true
}

// ReadF32/WriteF32 move the raw 32-bit bit pattern, per SPEC_FULL.md §4.C.
func (m *Memory) ReadF32(addr uint64) (float32, bool) {
	bits, ok := m.Read32(addr)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(bits), true
}

func (m *Memory) WriteF32(addr uint64, v float32) bool {
	return m.Write32(addr, math.Float32bits(v))
}

// ReadF64/WriteF64 move the raw 64-bit bit pattern.
func (m *Memory) ReadF64(addr uint64) (float64, bool) {
	bits, ok := m.Read64(addr)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

func (m *Memory) WriteF64(addr uint64, v float64) bool {
	return m.Write64(addr, math.Float64bits(v))
}

// Copy implements memory.copy: memmove semantics over [src,src+n) into
// [dest,dest+n), trapping (returning false) if either range is out of
// bounds. n=0 never traps even for otherwise-invalid ranges, per
// SPEC_FULL.md §8 property 7.
func (m *Memory) Copy(dest, src, n uint64) bool {
	if n == 0 {
		return true
	}
	if !m.inBounds(dest, n) || !m.inBounds(src, n) {
		return false
	}
	copy(m.bytes[dest:dest+n], m.bytes[src:src+n]) // copy() is memmove-safe on overlap
	return true
}

// Fill implements memory.fill.
func (m *Memory) Fill(dest uint64, value byte, n uint64) bool {
	if n == 0 {
		return true
	}
	if !m.inBounds(dest, n) {
		return false
	}
	b := m.bytes[dest : dest+n]
	for i := range b {
		b[i] = value
	}
	return true
}

// Init implements memory.init: copies n bytes from data[src:src+n] to
// dest. data is the (possibly already-dropped, i.e. size-zeroed) segment
// backing slice.
func (m *Memory) Init(data []byte, dest, src, n uint64) bool {
	if n == 0 {
		return true
	}
	if src+n < src || src+n > uint64(len(data)) {
		return false
	}
	if !m.inBounds(dest, n) {
		return false
	}
	copy(m.bytes[dest:dest+n], data[src:src+n])
	return true
}
