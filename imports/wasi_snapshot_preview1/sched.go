package wasi_snapshot_preview1

import (
	"runtime"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// schedYield() -> errno. This engine runs guest code on an ordinary Go
// goroutine, so yielding maps directly onto runtime.Gosched.
func (s *State) schedYield(_ *module.Context, _ []wasmval.Slot) []wasmval.Slot {
	runtime.Gosched()
	return one(ErrnoSuccess)
}
