package wasi_snapshot_preview1

import (
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// environGet and environSizesGet mirror argsGet/argsSizesGet exactly,
// over KEY=VALUE strings instead of argv entries. This pair is not in
// spec.md's distilled surface but is a direct, low-risk supplement: the
// original WASI implementation this engine's host surface is modeled on
// always ships environ_get alongside args_get.

func (s *State) environGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	environ := uint64(wasmval.AsU32(args[0]))
	environBuf := uint64(wasmval.AsU32(args[1]))
	for _, e := range s.Env {
		if !writeU32(mem, environ, uint32(environBuf)) {
			return one(ErrnoFault)
		}
		b := append([]byte(e), 0)
		if !writeBytes(mem, environBuf, b) {
			return one(ErrnoFault)
		}
		environ += 4
		environBuf += uint64(len(b))
	}
	return one(ErrnoSuccess)
}

func (s *State) environSizesGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	countPtr := uint64(wasmval.AsU32(args[0]))
	bufSizePtr := uint64(wasmval.AsU32(args[1]))
	bufSize := 0
	for _, e := range s.Env {
		bufSize += len(e) + 1
	}
	if !writeU32(mem, countPtr, uint32(len(s.Env))) || !writeU32(mem, bufSizePtr, uint32(bufSize)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}
