package interpreter

import (
	"testing"

	"github.com/moonbitlang/wasm5go/api"
	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/table"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(img *module.Image) *module.Context {
	return &module.Context{
		Image: img,
		Heap:  heap.New(),
	}
}

func i32Type(numParams, numResults int) module.FuncType {
	ft := module.FuncType{
		Params:  make([]api.ValueType, numParams),
		Results: make([]api.ValueType, numResults),
	}
	for i := range ft.Params {
		ft.Params[i] = api.ValueTypeI32
	}
	for i := range ft.Results {
		ft.Results[i] = api.ValueTypeI32
	}
	ft.ComputeSignatureHash()
	return ft
}

func TestExecuteAddsTwoI32Locals(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(2, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, NumLocals: 2, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 2},
			{Op: module.OpLocalGet, A: 0},
			{Op: module.OpLocalGet, A: 1},
			{Op: module.OpI32Add},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, []wasmval.Slot{wasmval.FromI32(1), wasmval.FromI32(2)})
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(3), wasmval.AsI32(results[0]))
}

func TestDivSIntMinByMinusOneTrapsIntegerOverflow(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: int64(int32(-2147483648))},
			{Op: module.OpI32Const, A: -1},
			{Op: module.OpI32DivS},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	_, trap := Execute(ctx, 0, nil)
	assert.Equal(t, module.TrapIntegerOverflow, trap)
}

func TestDivUByZeroTrapsDivisionByZero(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 1},
			{Op: module.OpI32Const, A: 0},
			{Op: module.OpI32DivU},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	_, trap := Execute(ctx, 0, nil)
	assert.Equal(t, module.TrapDivisionByZero, trap)
}

// buildCallIndirectImage builds a two-function module: func 0 is the
// identity function (i32)->i32, func 1 reads an elem index local, loads
// an argument, and performs call_indirect against expectedTypeIdx.
func buildCallIndirectImage(expectedTypeIdx int64) (*module.Context, []*table.Table) {
	identityType := i32Type(1, 1)
	mismatchType := i32Type(0, 1)

	img := &module.Image{
		Types: []module.FuncType{identityType, mismatchType},
		Funcs: []module.FuncMeta{
			{CodeEntry: 0, NumLocals: 1, TypeIdx: 0}, // func 0: identity
			{CodeEntry: 3, NumLocals: 1, TypeIdx: 0}, // func 1: main
		},
		Code: []module.Instr{
			// func 0: identity(x) = x
			{Op: module.OpEntry, A: 1},
			{Op: module.OpLocalGet, A: 0},
			{Op: module.OpEnd, A: 1},
			// func 1: main(elemIdx)
			{Op: module.OpEntry, A: 1},
			{Op: module.OpI32Const, A: 5},   // arg for the indirect call
			{Op: module.OpLocalGet, A: 0},   // elem index on top
			{Op: module.OpCallIndirect, A: expectedTypeIdx, B: 0, C: 1},
			{Op: module.OpEnd, A: 1},
		},
	}
	tbl := table.New(2, 2, true)
	tbl.Set(0, 0) // combined func index 0 == func 0 (no imports)
	ctx := newCtx(img)
	ctx.Tables = []*table.Table{tbl}
	return ctx, ctx.Tables
}

func TestCallIndirectSucceedsOnMatchingSignature(t *testing.T) {
	ctx, _ := buildCallIndirectImage(0)
	results, trap := Execute(ctx, 1, []wasmval.Slot{wasmval.FromI32(0)})
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(5), wasmval.AsI32(results[0]))
}

func TestCallIndirectMismatchedSignatureTraps(t *testing.T) {
	ctx, _ := buildCallIndirectImage(1)
	_, trap := Execute(ctx, 1, []wasmval.Slot{wasmval.FromI32(0)})
	assert.Equal(t, module.TrapIndirectCallTypeMismatch, trap)
}

func TestCallIndirectUninitializedElementTraps(t *testing.T) {
	ctx, _ := buildCallIndirectImage(0)
	_, trap := Execute(ctx, 1, []wasmval.Slot{wasmval.FromI32(1)})
	assert.Equal(t, module.TrapUninitializedElement, trap)
}

func TestArrayNewAndGetRoundTrip(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 42}, // fill value
			{Op: module.OpI32Const, A: 5},  // length
			{Op: module.OpArrayNew, A: 0},
			{Op: module.OpI32Const, A: 3}, // index
			{Op: module.OpArrayGet},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(42), wasmval.AsI32(results[0]))
}

func TestArrayGetOutOfBoundsTraps(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 0},
			{Op: module.OpI32Const, A: 2},
			{Op: module.OpArrayNew, A: 0},
			{Op: module.OpI32Const, A: 99},
			{Op: module.OpArrayGet},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	_, trap := Execute(ctx, 0, nil)
	assert.Equal(t, module.TrapOutOfBoundsArray, trap)
}

func TestArraySetThenLen(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 1}, // 1 local slot to hold the handle
			{Op: module.OpI32Const, A: 4}, // length
			{Op: module.OpArrayNewDefault, A: 0},
			{Op: module.OpLocalSet, A: 0}, // stash handle
			{Op: module.OpLocalGet, A: 0},
			{Op: module.OpI32Const, A: 1}, // index
			{Op: module.OpI32Const, A: 9}, // value
			{Op: module.OpArraySet},
			{Op: module.OpLocalGet, A: 0},
			{Op: module.OpArrayLen},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(4), wasmval.AsI32(results[0]))
}

func TestStructNewThenGet(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 1},
			{Op: module.OpI32Const, A: 2},
			{Op: module.OpStructNew, A: 0, B: 2}, // fields: [1, 2]
			{Op: module.OpStructGet, B: 1},       // field 1 == 2
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(2), wasmval.AsI32(results[0]))
}

func TestShiftCountIsMaskedTo32Bits(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 1},
			{Op: module.OpI32Const, A: 32 + 3}, // masked to 3, same as shl by 3
			{Op: module.OpI32Shl},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(8), wasmval.AsI32(results[0]))
}

func TestRemSIntMinByMinusOneYieldsZeroWithoutTrap(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: int64(int32(-2147483648))},
			{Op: module.OpI32Const, A: -1},
			{Op: module.OpI32RemS},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(0), wasmval.AsI32(results[0]))
}

func TestReinterpretI32F32RoundTrip(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: 0xDEADBEEF},
			{Op: module.OpF32ReinterpretI32},
			{Op: module.OpI32ReinterpretF32},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	results, trap := Execute(ctx, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, uint32(0xDEADBEEF), wasmval.AsU32(results[0]))
}

func TestArrayGetOnNullReferenceTraps(t *testing.T) {
	img := &module.Image{
		Types: []module.FuncType{i32Type(0, 1)},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpRefNull},
			{Op: module.OpI32Const, A: 0},
			{Op: module.OpArrayGet},
			{Op: module.OpEnd, A: 1},
		},
	}
	ctx := newCtx(img)
	_, trap := Execute(ctx, 0, nil)
	assert.Equal(t, module.TrapNullReference, trap)
}
