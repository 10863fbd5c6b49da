// Package api includes constants shared between the engine and its host
// import surfaces (spectest, WASI).
package api

import "fmt"

// ValueType describes the type of a value slot as seen at a function
// boundary (parameters, results, globals). The interpreter itself treats
// every slot as an untagged 64-bit word; ValueType only matters where a
// host function or the module image needs to know how to interpret or
// format one.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit floating point number.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit floating point number.
	ValueTypeF64 ValueType = 0x7c
	// ValueTypeFuncref is a tagged function reference. See wasmval.FromFuncref.
	ValueTypeFuncref ValueType = 0x70
	// ValueTypeExternref is an opaque host reference, carried the same way
	// as a funcref but never dereferenced by the engine itself.
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the WebAssembly text format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return fmt.Sprintf("unknown(%#x)", t)
}
