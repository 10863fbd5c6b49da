package wasi_snapshot_preview1

import (
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// procExit(rval: i32) has no result: guest code following a call to it is
// typically unreachable. This engine does not unwind the Go call stack
// for it (that would require every call site on the path back to the
// entrypoint to special-case a sentinel panic); instead it records a
// sticky exit flag/code on State and returns normally with zero results.
// A driver loop invoking successive top-level exports is expected to
// check State.Exited between calls and stop dispatching once set.
func (s *State) procExit(_ *module.Context, args []wasmval.Slot) []wasmval.Slot {
	s.Exited = true
	s.ExitCode = wasmval.AsU32(args[0])
	return nil
}

// procRaise is permanently unsupported, matching the upstream WASI
// removal of signal delivery (https://github.com/WebAssembly/WASI/pull/136).
func (s *State) procRaise(_ *module.Context, _ []wasmval.Slot) []wasmval.Slot {
	return one(ErrnoNosys)
}
