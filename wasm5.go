// Package wasm5go is the driver-facing surface of the execution engine:
// it re-exports the threaded interpreter's entry points and adds a
// Registry for linking named module instances together, per
// SPEC_FULL.md's component H (cross-module context) and the engine's
// stated scope (a decoded, validated module in, a running instance out;
// the decoder/loader itself is an external collaborator per spec.md §1).
package wasm5go

import (
	"github.com/moonbitlang/wasm5go/internal/engine/interpreter"
	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/table"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// Config re-exports the interpreter's tuning knobs so callers never need
// to import internal/engine/interpreter directly.
type Config = interpreter.Config

// DefaultConfig returns the engine's default tuning.
func DefaultConfig() Config { return interpreter.DefaultConfig() }

// Execute runs the function at entryFuncIdx in ctx with the default
// configuration, returning its results or a trap code.
func Execute(ctx *module.Context, entryFuncIdx int, args []wasmval.Slot) ([]wasmval.Slot, module.TrapCode) {
	return interpreter.Execute(ctx, entryFuncIdx, args)
}

// ExecuteWithConfig is Execute with caller-supplied tuning.
func ExecuteWithConfig(ctx *module.Context, entryFuncIdx int, args []wasmval.Slot, cfg Config) ([]wasmval.Slot, module.TrapCode) {
	return interpreter.ExecuteWithConfig(ctx, entryFuncIdx, args, cfg)
}

// CallExternalFFI invokes funcIdx in target from outside the engine (a
// foreign host, or the driver), reusing the same dispatch machinery as an
// ordinary local call (SPEC_FULL.md §6 "Cross-module FFI"). Re-exported
// here because internal/engine/interpreter is unreachable from outside
// this module.
func CallExternalFFI(target *module.Context, funcIdx int, args []wasmval.Slot) ([]wasmval.Slot, module.TrapCode) {
	return interpreter.CallExternalFFI(target, funcIdx, args)
}

// InstanceConfig supplies the pieces of a module.Context the out-of-scope
// loader would otherwise produce from a decoded binary: the already
// materialized memory, tables, globals and segments for one instantiation
// of img.
type InstanceConfig struct {
	Image        *module.Image
	Memory       *memory.Memory
	Tables       []*table.Table
	Globals      []wasmval.Slot
	DataSegments []module.DataSegment
	ElemSegments []table.ElemSegment

	NumImportedFuncs    int
	NumExternalFuncrefs int
	ImportBindings      []module.ImportBinding
	ExternalFuncrefs    []module.ExternalFuncRef

	// Handlers becomes the instance's host handler table as given; neither
	// NewContext nor a Registry installs any handlers of its own. Combine
	// spectest and WASI tables with MergeHandlers.
	Handlers map[int]module.HostFunc
}

// NewContext builds a standalone module.Context with its own Heap rooted
// on its own globals — the right choice for a single, unlinked instance
// (e.g. a spectest module). Instances that will be cross-linked should
// instead go through Registry.Instantiate, which shares one Heap across
// the whole link group; see Registry's doc comment for why that matters.
func NewContext(name string, cfg InstanceConfig) *module.Context {
	ctx := &module.Context{
		Name:                name,
		Image:               cfg.Image,
		Memory:              cfg.Memory,
		Tables:              cfg.Tables,
		Globals:             cfg.Globals,
		DataSegments:        cfg.DataSegments,
		ElemSegments:        cfg.ElemSegments,
		NumImportedFuncs:    cfg.NumImportedFuncs,
		NumExternalFuncrefs: cfg.NumExternalFuncrefs,
		ImportBindings:      cfg.ImportBindings,
		ExternalFuncrefs:    cfg.ExternalFuncrefs,
		Handlers:            cfg.Handlers,
		Heap:                heap.New(),
	}
	ctx.Heap.SetGlobalsRoot(ctx.Globals)
	return ctx
}

// MergeHandlers unions several handler-id tables into one, for combining
// imports/spectest.Handlers() and a wasi_snapshot_preview1.State's
// Handlers() into one InstanceConfig.Handlers. Later tables win on
// conflicting ids, though the two host packages are disjoint by
// construction (spectest occupies ids 0-7, WASI ids 8 and up).
func MergeHandlers(tables ...map[int]module.HostFunc) map[int]module.HostFunc {
	out := map[int]module.HostFunc{}
	for _, t := range tables {
		for id, fn := range t {
			out[id] = fn
		}
	}
	return out
}
