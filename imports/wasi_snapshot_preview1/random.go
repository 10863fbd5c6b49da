package wasi_snapshot_preview1

import (
	"crypto/rand"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// randomGet(buf: pointer, buf_len: u32) -> errno. Fills buf_len bytes at
// buf with cryptographically random data.
func (s *State) randomGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	buf := uint64(wasmval.AsU32(args[0]))
	bufLen := wasmval.AsU32(args[1])
	b := make([]byte, bufLen)
	if _, err := rand.Read(b); err != nil {
		return one(ErrnoIo)
	}
	if !writeBytes(memOf(ctx), buf, b) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}
