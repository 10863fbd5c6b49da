package wasm5go

import (
	"fmt"
	"sync"

	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/module"
)

// Registry resolves cross-module imports by name, mirroring the
// teacher's engine-level name->code map guarded by a single mutex
// (tetratelabs-wazero's store keeps an analogous namespace of instances).
//
// All contexts registered through one Registry share a single Heap. A
// per-Context Heap (as NewContext builds for a standalone instance) only
// registers that context's own operand-stack ranges and globals as GC
// roots; when invokeImport/invokeExternal context-switches into a linked
// Context during a cross-module call, the calling context's still-live
// operand stack is not a root of the callee's Heap. Sharing one Heap
// across a link group closes that gap: every call-chain's stack range
// and every linked module's globals are roots of the same collector, so
// a collection triggered by an allocation anywhere in the group sees the
// whole reachable set. The cost is that all instances in a Registry are
// collected together; SPEC_FULL.md does not require per-instance GC
// isolation, so this is the simpler, correct choice over giving every
// instance its own heap and under-rooting it.
type Registry struct {
	mu   sync.RWMutex
	heap *heap.Heap
	ctxs map[string]*module.Context
}

// NewRegistry constructs an empty Registry with its own shared Heap.
func NewRegistry() *Registry {
	return &Registry{heap: heap.New(), ctxs: map[string]*module.Context{}}
}

// Instantiate builds a module.Context wired to this Registry's shared
// Heap and registers it under name for later linking/lookup.
func (r *Registry) Instantiate(name string, cfg InstanceConfig) (*module.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctxs[name]; exists {
		return nil, fmt.Errorf("wasm5go: instance %q already registered", name)
	}
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
		Heap:                r.heap,
	}
	r.heap.AddGlobalsRoot(ctx.Globals)
	r.ctxs[name] = ctx
	return ctx, nil
}

// Lookup returns the named instance, if registered.
func (r *Registry) Lookup(name string) (*module.Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.ctxs[name]
	return c, ok
}

// Link resolves one import slot of fromCtx to a defined function in the
// named target instance, setting up an ImportLinked binding.
func (r *Registry) Link(fromCtx *module.Context, importIdx int, targetName string, targetFuncIdx int) error {
	target, ok := r.Lookup(targetName)
	if !ok {
		return fmt.Errorf("wasm5go: link target %q not registered", targetName)
	}
	if importIdx < 0 || importIdx >= len(fromCtx.ImportBindings) {
		return fmt.Errorf("wasm5go: import index %d out of range", importIdx)
	}
	fromCtx.ImportBindings[importIdx] = module.ImportBinding{
		Kind:          module.ImportLinked,
		TargetContext: target,
		TargetFuncIdx: targetFuncIdx,
	}
	return nil
}
