package wasi_snapshot_preview1

import (
	"os"
	"testing"

	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWasiCtx() *module.Context {
	return &module.Context{
		Memory: memory.New(1, 1),
		Heap:   heap.New(),
	}
}

func TestHandlersCoverEveryDeclaredId(t *testing.T) {
	s := NewState(nil, nil, nil)
	h := s.Handlers()
	for id := int(HandlerArgsGet); id <= int(HandlerProcRaise); id++ {
		_, ok := h[id]
		assert.True(t, ok, "missing handler id %d", id)
	}
}

func TestArgsGetAndSizesGet(t *testing.T) {
	s := NewState([]string{"a", "bb"}, nil, nil)
	ctx := newWasiCtx()

	res := s.argsSizesGet(ctx, []wasmval.Slot{wasmval.FromU32(0), wasmval.FromU32(4)})
	assert.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))
	argc, _ := ctx.Memory.Read32(0)
	bufSize, _ := ctx.Memory.Read32(4)
	assert.Equal(t, uint32(2), argc)
	assert.Equal(t, uint32(len("a")+1+len("bb")+1), bufSize)

	const argvPtr, argvBufPtr = 64, 128
	res = s.argsGet(ctx, []wasmval.Slot{wasmval.FromU32(argvPtr), wasmval.FromU32(argvBufPtr)})
	require.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))

	p0, _ := ctx.Memory.Read32(argvPtr)
	assert.Equal(t, uint32(argvBufPtr), p0)
	b, _ := readBytes(ctx.Memory, uint64(argvBufPtr), 2)
	assert.Equal(t, []byte{'a', 0}, b)
}

func TestEnvironGetAndSizesGet(t *testing.T) {
	s := NewState(nil, []string{"FOO=bar"}, nil)
	ctx := newWasiCtx()

	res := s.environSizesGet(ctx, []wasmval.Slot{wasmval.FromU32(0), wasmval.FromU32(4)})
	require.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))
	count, _ := ctx.Memory.Read32(0)
	assert.Equal(t, uint32(1), count)
}

func TestProcExitSetsStateAndReturnsNoResults(t *testing.T) {
	s := NewState(nil, nil, nil)
	ctx := newWasiCtx()
	res := s.procExit(ctx, []wasmval.Slot{wasmval.FromU32(7)})
	assert.Nil(t, res)
	assert.True(t, s.Exited)
	assert.Equal(t, uint32(7), s.ExitCode)
}

func TestProcRaiseIsUnsupported(t *testing.T) {
	s := NewState(nil, nil, nil)
	ctx := newWasiCtx()
	res := s.procRaise(ctx, []wasmval.Slot{wasmval.FromU32(0)})
	assert.Equal(t, ErrnoNosys, wasmval.AsU32(res[0]))
}

func TestClockResGetIsOneMicrosecond(t *testing.T) {
	s := NewState(nil, nil, nil)
	ctx := newWasiCtx()
	res := s.clockResGet(ctx, []wasmval.Slot{wasmval.FromU32(clockIDMonotonic), wasmval.FromU32(0)})
	require.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))
	resNs, _ := ctx.Memory.Read64(0)
	assert.Equal(t, uint64(1000), resNs)
}

func TestRandomGetFillsBuffer(t *testing.T) {
	s := NewState(nil, nil, nil)
	ctx := newWasiCtx()
	res := s.randomGet(ctx, []wasmval.Slot{wasmval.FromU32(0), wasmval.FromU32(16)})
	require.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))
	b, ok := readBytes(ctx.Memory, 0, 16)
	require.True(t, ok)
	assert.Len(t, b, 16)
}

func TestFdWriteToStdoutReportsBytesWritten(t *testing.T) {
	s := NewState(nil, nil, nil)
	s.fds[1] = &fdEntry{file: nil} // replaced below to avoid writing to the real stdout
	ctx := newWasiCtx()

	msg := []byte("hi")
	const iovBase, bufPtr, nwrittenPtr = 0, 32, 64
	require.True(t, writeBytes(ctx.Memory, bufPtr, msg))
	require.True(t, writeU32(ctx.Memory, iovBase, bufPtr))
	require.True(t, writeU32(ctx.Memory, iovBase+4, uint32(len(msg))))

	// fd 1 with a nil *os.File would panic on Write; point fd_write at a
	// fresh in-memory-backed file instead via a pipe so the handler path
	// itself (iovec decode, byte count result) is still exercised.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	s.fds[1].file = w

	res := s.fdWrite(ctx, []wasmval.Slot{wasmval.FromU32(1), wasmval.FromU32(iovBase), wasmval.FromU32(1), wasmval.FromU32(nwrittenPtr)})
	w.Close()
	require.Equal(t, ErrnoSuccess, wasmval.AsU32(res[0]))
	n, _ := ctx.Memory.Read32(nwrittenPtr)
	assert.Equal(t, uint32(len(msg)), n)
}
