package interpreter

import (
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// callTarget classifies a combined func index (the address space table
// entries, ref.func immediates, and call_ref operands share) per
// SPEC_FULL.md §3/§4.D: imported range, then locally defined range, then
// an appended external-funcref range introduced by cross-module linking.
type callTargetKind int

const (
	targetImport callTargetKind = iota
	targetLocal
	targetExternal
)

func classify(ctx *module.Context, combined int64) (kind callTargetKind, idx int, ok bool) {
	if combined < 0 {
		return 0, 0, false
	}
	numImported := ctx.NumImportedFuncs
	numDefined := len(ctx.Image.Funcs)
	switch {
	case int(combined) < numImported:
		return targetImport, int(combined), true
	case int(combined) < numImported+numDefined:
		return targetLocal, int(combined) - numImported, true
	default:
		extIdx := int(combined) - numImported - numDefined
		if extIdx < 0 || extIdx >= len(ctx.ExternalFuncrefs) {
			return 0, 0, false
		}
		return targetExternal, extIdx, true
	}
}

// typeOf returns the FuncType a combined index's callee exposes, used for
// call_indirect/call_ref's signature check (SPEC_FULL.md §8 property 9).
func typeOf(ctx *module.Context, kind callTargetKind, idx int) *module.FuncType {
	switch kind {
	case targetImport:
		return &ctx.Image.Types[ctx.Image.Imports[idx].TypeIdx]
	case targetLocal:
		return &ctx.Image.Types[ctx.Image.Funcs[idx].TypeIdx]
	default:
		ext := ctx.ExternalFuncrefs[idx]
		return &ext.TargetContext.Image.Types[ext.TypeIdx]
	}
}

// dispatchIndirect resolves and invokes combined, having already checked
// its signature against expectedType, returning the new sp (results now
// sit at argsBase..argsBase+numResults). Used by call_indirect and
// call_ref; tail variants reuse the same dispatch and then copy results
// down into the caller's own frame before returning (discarding the
// caller's remaining code, per SPEC_FULL.md §4.G).
func (ce *callEngine) dispatchIndirect(ctx *module.Context, kind callTargetKind, idx, argsBase int) int {
	switch kind {
	case targetImport:
		return ce.invokeImport(ctx, idx, argsBase)
	case targetLocal:
		fm := ctx.Image.Funcs[idx]
		return ce.invokeLocal(ctx, fm, argsBase)
	default:
		return ce.invokeExternal(ctx.ExternalFuncrefs[idx], argsBase)
	}
}

func (ce *callEngine) invokeLocal(ctx *module.Context, fm module.FuncMeta, argsBase int) int {
	ce.nativeDepth++
	if ce.nativeDepth > ce.cfg.MaxCallDepth {
		trap(module.TrapStackOverflow)
	}
	sp := ce.run(ctx, fm.CodeEntry, argsBase)
	ce.nativeDepth--
	return sp
}

// invokeImport dispatches one call_import, whichever of the three
// ImportKind bindings applies, per SPEC_FULL.md §4.G.
func (ce *callEngine) invokeImport(ctx *module.Context, importIdx int, argsBase int) int {
	imp := ctx.Image.Imports[importIdx]
	binding := ctx.ImportBindings[importIdx]
	switch binding.Kind {
	case module.ImportHost:
		h := ctx.Handlers[binding.HandlerID]
		args := append([]wasmval.Slot(nil), ce.stack[argsBase:argsBase+imp.NumParams]...)
		var results []wasmval.Slot
		if h != nil {
			results = h(ctx, args)
		}
		n := copy(ce.stack[argsBase:argsBase+imp.NumResults], results)
		for i := n; i < imp.NumResults; i++ {
			ce.stack[argsBase+i] = 0
		}
		return argsBase + imp.NumResults
	case module.ImportLinked:
		if !ce.depth.enter() {
			trap(module.TrapStackOverflow)
		}
		target := binding.TargetContext
		fm := target.Image.Funcs[binding.TargetFuncIdx]
		sp := ce.invokeLocal(target, fm, argsBase)
		ce.depth.exit()
		return sp
	default: // ImportUnresolved: consume args, zero-fill results, no-op.
		for i := 0; i < imp.NumResults; i++ {
			ce.stack[argsBase+i] = 0
		}
		return argsBase + imp.NumResults
	}
}

// invokeExternal dispatches a call through an already-resolved
// cross-module funcref table/call_ref entry.
func (ce *callEngine) invokeExternal(ext module.ExternalFuncRef, argsBase int) int {
	if !ce.depth.enter() {
		trap(module.TrapStackOverflow)
	}
	fm := ext.TargetContext.Image.Funcs[ext.TargetFuncIdx]
	sp := ce.invokeLocal(ext.TargetContext, fm, argsBase)
	ce.depth.exit()
	return sp
}
