package wasm5go

import (
	"testing"

	"github.com/moonbitlang/wasm5go/api"
	"github.com/moonbitlang/wasm5go/internal/memory"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/table"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calleeImage exports a single function returning a constant.
func calleeImage(v int32) *module.Image {
	ft := module.FuncType{Results: []api.ValueType{api.ValueTypeI32}}
	ft.ComputeSignatureHash()
	return &module.Image{
		Types: []module.FuncType{ft},
		Funcs: []module.FuncMeta{{CodeEntry: 0, TypeIdx: 0}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpI32Const, A: int64(v)},
			{Op: module.OpEnd, A: 1},
		},
	}
}

// callerImage imports one function of the callee's type and returns its
// result plus one.
func callerImage() *module.Image {
	importType := module.FuncType{Results: []api.ValueType{api.ValueTypeI32}}
	importType.ComputeSignatureHash()
	mainType := module.FuncType{Results: []api.ValueType{api.ValueTypeI32}}
	mainType.ComputeSignatureHash()
	return &module.Image{
		Types:   []module.FuncType{importType, mainType},
		Imports: []module.ImportMeta{{NumResults: 1, TypeIdx: 0}},
		Funcs:   []module.FuncMeta{{CodeEntry: 0, TypeIdx: 1}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 0},
			{Op: module.OpCallImport, A: 0, B: 0},
			{Op: module.OpI32Const, A: 1},
			{Op: module.OpI32Add},
			{Op: module.OpEnd, A: 1},
		},
	}
}

func TestRegistryLinkAcrossInstances(t *testing.T) {
	r := NewRegistry()

	callee, err := r.Instantiate("callee", InstanceConfig{
		Image:  calleeImage(41),
		Memory: memory.New(1, 1),
	})
	require.NoError(t, err)
	_ = callee

	caller, err := r.Instantiate("caller", InstanceConfig{
		Image:          callerImage(),
		Memory:         memory.New(1, 1),
		ImportBindings: []module.ImportBinding{{}},
	})
	require.NoError(t, err)

	require.NoError(t, r.Link(caller, 0, "callee", 0))

	results, trap := Execute(caller, 0, nil)
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(42), wasmval.AsI32(results[0]))
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	_, err := r.Instantiate("m", InstanceConfig{Image: calleeImage(1), Memory: memory.New(1, 1)})
	require.NoError(t, err)
	_, err = r.Instantiate("m", InstanceConfig{Image: calleeImage(2), Memory: memory.New(1, 1)})
	assert.Error(t, err)
}

func TestRegistryLinkUnknownTargetFails(t *testing.T) {
	r := NewRegistry()
	caller, err := r.Instantiate("caller", InstanceConfig{
		Image:          callerImage(),
		Memory:         memory.New(1, 1),
		ImportBindings: []module.ImportBinding{{}},
	})
	require.NoError(t, err)
	assert.Error(t, r.Link(caller, 0, "missing", 0))
}

// incImage exports a single (i32)->i32 function computing x+1.
func incImage() *module.Image {
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

// callIncImage imports a single (i32)->i32 function and a local
// call_inc(x) that forwards x to it and returns the result unchanged.
func callIncImage() *module.Image {
	importType := module.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	importType.ComputeSignatureHash()
	mainType := module.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	mainType.ComputeSignatureHash()
	return &module.Image{
		Types:   []module.FuncType{importType, mainType},
		Imports: []module.ImportMeta{{NumParams: 1, NumResults: 1, TypeIdx: 0}},
		Funcs:   []module.FuncMeta{{CodeEntry: 0, NumLocals: 1, TypeIdx: 1}},
		Code: []module.Instr{
			{Op: module.OpEntry, A: 1},
			{Op: module.OpCallImport, A: 0, B: 0},
			{Op: module.OpEnd, A: 1},
		},
	}
}

// TestCrossModuleCallPreservesCallersMemoryAndTables is the spec's
// scenario 6 and invariant 11: B imports A's inc, invokes call_inc(5),
// and B's own memory/tables must read back byte-for-byte identical to
// their pre-call state once the cross-module call returns (the context
// switch in invokeImport's ImportLinked branch must restore B's frame
// without leaking any mutation from A's side of the call).
func TestCrossModuleCallPreservesCallersMemoryAndTables(t *testing.T) {
	r := NewRegistry()

	_, err := r.Instantiate("a", InstanceConfig{Image: incImage(), Memory: memory.New(1, 1)})
	require.NoError(t, err)

	bMem := memory.New(1, 1)
	require.True(t, bMem.Write32(0, 0xCAFEBABE))
	bTbl := table.New(1, 1, true)
	require.True(t, bTbl.Set(0, 7))

	b, err := r.Instantiate("b", InstanceConfig{
		Image:          callIncImage(),
		Memory:         bMem,
		Tables:         []*table.Table{bTbl},
		ImportBindings: []module.ImportBinding{{}},
	})
	require.NoError(t, err)
	require.NoError(t, r.Link(b, 0, "a", 0))

	preMem := append([]byte(nil), bMem.Bytes()...)
	preEntry, _ := bTbl.Get(0)

	results, trap := Execute(b, 0, []wasmval.Slot{wasmval.FromI32(5)})
	require.Equal(t, module.TrapNone, trap)
	assert.Equal(t, int32(6), wasmval.AsI32(results[0]))

	assert.Equal(t, preMem, bMem.Bytes())
	postEntry, _ := bTbl.Get(0)
	assert.Equal(t, preEntry, postEntry)
}

func TestRegistrySharesOneHeapAcrossInstances(t *testing.T) {
	r := NewRegistry()
	a, err := r.Instantiate("a", InstanceConfig{Image: calleeImage(1), Memory: memory.New(1, 1)})
	require.NoError(t, err)
	b, err := r.Instantiate("b", InstanceConfig{Image: calleeImage(2), Memory: memory.New(1, 1)})
	require.NoError(t, err)
	assert.Same(t, a.Heap, b.Heap)
}
