package wasi_snapshot_preview1

import (
	"time"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// Clock ids, https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-clockid-enumu32
const (
	clockIDRealtime = iota
	clockIDMonotonic
)

// clockResGet(id, result_resolution: pointer) -> errno. This engine
// reports a fixed 1us resolution for both supported clocks.
func (s *State) clockResGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	id := wasmval.AsU32(args[0])
	ptr := uint64(wasmval.AsU32(args[1]))
	switch id {
	case clockIDRealtime, clockIDMonotonic:
	default:
		return one(ErrnoInval)
	}
	if !writeU64(memOf(ctx), ptr, uint64(time.Microsecond.Nanoseconds())) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}

// clockTimeGet(id, precision, result_timestamp: pointer) -> errno. The
// precision parameter is accepted but not used to adjust granularity,
// matching the teacher's own TODO on this call.
func (s *State) clockTimeGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	id := wasmval.AsU32(args[0])
	ptr := uint64(wasmval.AsU32(args[2]))
	var ns int64
	switch id {
	case clockIDRealtime:
		ns = time.Now().UnixNano()
	case clockIDMonotonic:
		ns = int64(time.Since(s.start))
	default:
		return one(ErrnoInval)
	}
	if !writeU64(memOf(ctx), ptr, uint64(ns)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}
