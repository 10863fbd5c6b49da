package wasi_snapshot_preview1

import (
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// argsGet(argv, argv_buf: pointer) -> errno. Writes NUL-terminated strings
// into argv_buf and the pointer to each into argv, in declaration order.
func (s *State) argsGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	argv := uint64(wasmval.AsU32(args[0]))
	argvBuf := uint64(wasmval.AsU32(args[1]))
	for _, a := range s.Args {
		if !writeU32(mem, argv, uint32(argvBuf)) {
			return one(ErrnoFault)
		}
		b := append([]byte(a), 0)
		if !writeBytes(mem, argvBuf, b) {
			return one(ErrnoFault)
		}
		argv += 4
		argvBuf += uint64(len(b))
	}
	return one(ErrnoSuccess)
}

// argsSizesGet() -> (errno, argc: u32, argv_buf_size: u32).
func (s *State) argsSizesGet(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	mem := memOf(ctx)
	argcPtr := uint64(wasmval.AsU32(args[0]))
	bufSizePtr := uint64(wasmval.AsU32(args[1]))
	bufSize := 0
	for _, a := range s.Args {
		bufSize += len(a) + 1
	}
	if !writeU32(mem, argcPtr, uint32(len(s.Args))) || !writeU32(mem, bufSizePtr, uint32(bufSize)) {
		return one(ErrnoFault)
	}
	return one(ErrnoSuccess)
}
