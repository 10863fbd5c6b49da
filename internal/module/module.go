// Package module defines the engine's module image (the shape the
// out-of-scope compiler emits) and the per-instance runtime context the
// interpreter operates on. See SPEC_FULL.md §4.E.
package module

import (
	"bytes"

	"github.com/moonbitlang/wasm5go/api"
	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/table"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// FuncType is a function signature. H1/H2 are the signature hashes
// SPEC_FULL.md §4.E mandates: H1 encodes parameter/result types in order,
// H2 packs (num_params<<16)|num_results. Equal (H1,H2) is the engine's
// sole notion of type equality for call_indirect/call_ref checks.
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
	H1, H2  uint32
}

// ComputeSignatureHash fills in t.H1/t.H2 per the rule every compiler
// emitting code for this engine must also use (SPEC_FULL.md §4.E).
func (t *FuncType) ComputeSignatureHash() {
	var h1 uint32 = 2166136261 // FNV-1a offset basis
	mix := func(b byte) {
		h1 ^= uint32(b)
		h1 *= 16777619
	}
	for _, p := range t.Params {
		mix(p)
	}
	mix(0xff) // separator between params and results
	for _, r := range t.Results {
		mix(r)
	}
	t.H1 = h1
	t.H2 = uint32(len(t.Params))<<16 | uint32(len(t.Results))
}

// SameSignature reports whether a and b have identical (H1,H2), the only
// check call_indirect/call_ref perform (SPEC_FULL.md §8 property 9).
func SameSignature(a, b *FuncType) bool { return a.H1 == b.H1 && a.H2 == b.H2 }

// OpCode identifies a threaded-interpreter handler. The code stream is
// rendered in Go as a slice of Instr rather than raw handler-pointer words
// (SPEC_FULL.md §3 "Code stream" rendering note): dispatch is a switch
// over OpCode, the substitute the source's own design notes (§9) prescribe
// for managed languages.
type OpCode uint16

// Instr is one code-stream instruction: an opcode plus up to three
// immediates. Which immediates are used, and their meaning, is documented
// per opcode in internal/engine/interpreter.
type Instr struct {
	Op   OpCode
	A, B, C int64
}

// FuncMeta describes one defined function.
type FuncMeta struct {
	CodeEntry int // index into Image.Code where this function's entry op lives
	NumLocals int
	TypeIdx   int
}

// ImportKind distinguishes the three ways an imported function can resolve.
type ImportKind uint8

const (
	// ImportUnresolved means no binding exists; an invocation is a no-op
	// that zero-fills results (SPEC_FULL.md §7).
	ImportUnresolved ImportKind = iota
	// ImportHost means the import is dispatched to a host handler id
	// (spectest or WASI).
	ImportHost
	// ImportLinked means the import is a defined function in another
	// module's Context, reached via cross-module context switch.
	ImportLinked
)

// ImportMeta is the static (per-Image) shape of one imported function.
type ImportMeta struct {
	NumParams  int
	NumResults int
	TypeIdx    int
}

// ImportBinding is the per-instance resolution of one import, set up at
// instantiation/link time.
type ImportBinding struct {
	Kind          ImportKind
	HandlerID     int
	TargetContext *Context
	TargetFuncIdx int
}

// Image is the cold, read-mostly, shared shape of a compiled module:
// code stream, types, function metadata, and import signatures. Multiple
// Contexts may be instantiated from one Image.
type Image struct {
	Code    []Instr
	Types   []FuncType
	Funcs   []FuncMeta
	Imports []ImportMeta

	// BrTables holds the variable-length target lists referenced by
	// OpBrTable instructions (Instr.A indexes this slice). The last
	// element of each entry is the default (out-of-range) target.
	BrTables [][]int64
}

// DataSegment is a passive data segment: a byte pool plus a dropped flag
// that zeroes its effective size (SPEC_FULL.md §3/§4.C).
type DataSegment struct {
	Bytes   []byte
	Dropped bool
}

// Size returns the segment's effective size (0 once dropped).
func (d *DataSegment) Size() int {
	if d.Dropped {
		return 0
	}
	return len(d.Bytes)
}

// Drop marks the segment dropped; memory.init referencing it with n>0
// always traps thereafter.
func (d *DataSegment) Drop() { d.Dropped = true }

// activeBytes returns the segment bytes visible to memory.init: empty
// once dropped, matching Size() above.
func (d *DataSegment) activeBytes() []byte {
	if d.Dropped {
		return nil
	}
	return d.Bytes
}

// ActiveBytes is the exported form of activeBytes, used by the
// interpreter's memory.init handler.
func (d *DataSegment) ActiveBytes() []byte { return d.activeBytes() }

// OutputBufferCap bounds the spectest print-handler output buffer
// (SPEC_FULL.md §3).
const OutputBufferCap = 1 << 20

// Context is one module instantiation: the mutable runtime bank the
// interpreter's opcode handlers read and write. See SPEC_FULL.md §4.E/§4.H.
type Context struct {
	Name  string
	Image *Image

	Memory  *memory.Memory
	Tables  []*table.Table
	Globals []wasmval.Slot

	DataSegments []DataSegment
	ElemSegments []table.ElemSegment

	NumImportedFuncs    int
	NumExternalFuncrefs int

	ImportBindings []ImportBinding

	// ExternalFuncrefs resolves the table/funcref index range beyond this
	// module's own imported+defined functions to a function in another
	// linked module's Context (SPEC_FULL.md §3/§4.D "external funcref
	// range"). Index i here corresponds to table/funcref value
	// NumImportedFuncs+len(Image.Funcs)+i.
	ExternalFuncrefs []ExternalFuncRef

	Handlers map[int]HostFunc

	Heap   *heap.Heap
	Output bytes.Buffer
}

// HostFunc is a host import handler: args in, results out, matching the
// "args in, results out, in-place" ABI contract of SPEC_FULL.md §9.
type HostFunc func(ctx *Context, args []wasmval.Slot) []wasmval.Slot

// ExternalFuncRef is the per-instance resolution of one external funcref
// table entry introduced by cross-module linking.
type ExternalFuncRef struct {
	TargetContext *Context
	TargetFuncIdx int
	TypeIdx       int // index into TargetContext.Image.Types
}

// AppendOutput writes s to the bounded output buffer used by spectest
// print_* handlers, truncating silently once OutputBufferCap is reached
// (the buffer is diagnostic, not a correctness surface).
func (c *Context) AppendOutput(s string) {
	if c.Output.Len() >= OutputBufferCap {
		return
	}
	remaining := OutputBufferCap - c.Output.Len()
	if len(s) > remaining {
		s = s[:remaining]
	}
	c.Output.WriteString(s)
}
