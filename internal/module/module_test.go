package module

import (
	"testing"

	"github.com/moonbitlang/wasm5go/api"
	"github.com/stretchr/testify/assert"
)

func TestSameSignatureAgreesOnIdenticalShapes(t *testing.T) {
	a := FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	b := FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	a.ComputeSignatureHash()
	b.ComputeSignatureHash()
	assert.True(t, SameSignature(&a, &b))
}

func TestSameSignatureDisagreesOnDifferentParamTypes(t *testing.T) {
	a := FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	b := FuncType{Params: []api.ValueType{api.ValueTypeF64}, Results: []api.ValueType{api.ValueTypeI32}}
	a.ComputeSignatureHash()
	b.ComputeSignatureHash()
	assert.False(t, SameSignature(&a, &b))
}

func TestSameSignatureDisagreesOnArity(t *testing.T) {
	a := FuncType{Params: nil, Results: []api.ValueType{api.ValueTypeI32}}
	b := FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	a.ComputeSignatureHash()
	b.ComputeSignatureHash()
	assert.False(t, SameSignature(&a, &b))
}

func TestDataSegmentDropZeroesSize(t *testing.T) {
	d := DataSegment{Bytes: []byte{1, 2, 3}}
	assert.Equal(t, 3, d.Size())
	assert.Equal(t, []byte{1, 2, 3}, d.ActiveBytes())
	d.Drop()
	assert.Equal(t, 0, d.Size())
	assert.Nil(t, d.ActiveBytes())
}

func TestAppendOutputAppendsBelowCap(t *testing.T) {
	c := &Context{}
	c.AppendOutput("hello")
	assert.Equal(t, "hello", c.Output.String())
}

func TestIsPlausibleOpCode(t *testing.T) {
	assert.True(t, IsPlausibleOpCode(OpNop))
	assert.True(t, IsPlausibleOpCode(OpStructSet))
	assert.False(t, IsPlausibleOpCode(OpCode(60000)))
}
