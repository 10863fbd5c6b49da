package wasm5go

import (
	"testing"

	"github.com/moonbitlang/wasm5go/api"
	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOneImage() *module.Image {
	ft := module.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	ft.ComputeSignatureHash()
	return &module.Image{
		Types: []module.FuncType{ft},
		Funcs: []module.FuncMeta{{CodeEntry: 0, NumLocals: 1, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 1},
			{Op: module.OpLocalGet, A: 0},
			{Op: module.OpI32Const, A: 1},
			{Op: module.OpI32Add},
			{Op: module.OpEnd, A: 1},
		},
	}
}

func TestNewContextExecutesStandaloneInstance(t *testing.T) {
	ctx := NewContext("m", InstanceConfig{
		Image:  addOneImage(),
		Memory: memory.New(1, 1),
	})
	results, trap := Execute(ctx, 0, []wasmval.Slot{wasmval.FromI32(41)})
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(42), wasmval.AsI32(results[0]))
}

func TestCallExternalFFIInvokesAnotherInstanceDirectly(t *testing.T) {
	ctx := NewContext("m", InstanceConfig{
		Image:  addOneImage(),
		Memory: memory.New(1, 1),
	})
	results, trap := CallExternalFFI(ctx, 0, []wasmval.Slot{wasmval.FromI32(9)})
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(10), wasmval.AsI32(results[0]))
}

func TestMergeHandlersLaterTableWins(t *testing.T) {
	a := map[int]module.HostFunc{0: func(*module.Context, []wasmval.Slot) []wasmval.Slot { return []wasmval.Slot{1} }}
	b := map[int]module.HostFunc{0: func(*module.Context, []wasmval.Slot) []wasmval.Slot { return []wasmval.Slot{2} }}
	merged := MergeHandlers(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, []wasmval.Slot{2}, merged[0](nil, nil))
}
