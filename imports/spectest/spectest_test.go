package spectest

import (
	"testing"

	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx() *module.Context {
	return &module.Context{Heap: heap.New()}
}

func TestPrintI32ThenPrintF64MatchesWorkedExample(t *testing.T) {
	ctx := newCtx()
	h := Handlers()
	h[HandlerPrintI32](ctx, []wasmval.Slot{wasmval.FromI32(42)})
	h[HandlerPrintF64](ctx, []wasmval.Slot{wasmval.FromF64(1.0)})
	assert.Equal(t, "42 : i32\n1 : f64\n", ctx.Output.String())
}

func TestPrintNothingEmitsBareNewline(t *testing.T) {
	ctx := newCtx()
	Handlers()[HandlerPrint](ctx, nil)
	assert.Equal(t, "\n", ctx.Output.String())
}

func TestPrintI32F32Pair(t *testing.T) {
	ctx := newCtx()
	Handlers()[HandlerPrintI32F32](ctx, []wasmval.Slot{wasmval.FromI32(7), wasmval.FromF32(2.5)})
	assert.Equal(t, "7 : i32, 2.5 : f32\n", ctx.Output.String())
}

func TestPrintChar(t *testing.T) {
	ctx := newCtx()
	Handlers()[HandlerPrintChar](ctx, []wasmval.Slot{wasmval.FromU32('x')})
	assert.Equal(t, "x\n", ctx.Output.String())
}

func TestHandlersCoverIdsZeroThroughSeven(t *testing.T) {
	h := Handlers()
	require.Len(t, h, 8)
	for id := 0; id <= 7; id++ {
		_, ok := h[id]
		assert.True(t, ok, "missing handler id %d", id)
	}
}
