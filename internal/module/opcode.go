package module

// OpCode constants for every handler the interpreter dispatches on.
// Grouped per SPEC_FULL.md §4.F/§4.G; within a group, immediate usage
// follows the contract documented on the corresponding interpreter case.
const (
	OpNop OpCode = iota
	OpUnreachable

	// entry(num_locals, first_local, num_zero) / end(num_results) /
	// return(num_results) / func_exit — call machinery, SPEC_FULL.md §4.G.
	OpEntry
	OpEnd
	OpReturn
	OpFuncExit

	// constants: A holds the immediate (bit-reinterpreted for f32/f64).
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// locals/globals: A is the frame-relative local slot (fp+A) / global index.
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// i32 arithmetic / compare / unary
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	// i64 arithmetic / compare / unary
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	// f32 arithmetic / compare / unary
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge

	// f64 arithmetic / compare / unary
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	// conversions
	OpI32WrapI64
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	// sign extension
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S

	// memory loads/stores: A is the static offset.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32

	// bulk memory: A is data_idx where applicable.
	OpMemorySize
	OpMemoryGrow
	OpMemoryCopy
	OpMemoryFill
	OpMemoryInit
	OpDataDrop

	// tables: A is table_idx (elem_idx for elem.drop); B is the elem_idx for
	// table.init and the source table_idx for table.copy.
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop

	// references
	OpRefNull
	OpRefFunc
	OpRefIsNull
	OpRefEq
	OpRefAsNonNull
	OpBrOnNull
	OpBrOnNonNull

	// branches: A is the (primary) absolute target word index.
	OpBr
	OpBrIf
	OpIf // pops condition; A = else_target taken when false
	OpBrTable

	// stack shuffling
	OpCopySlot
	OpSetSP
	OpDrop
	OpSelect

	// calls — SPEC_FULL.md §4.G. call/call_import (and their return_call
	// forms): A = callee index, B = frame_offset. call_indirect: A =
	// type_idx, B = table_idx, C = frame_offset. call_ref: A = type_idx,
	// B = frame_offset.
	OpCall
	OpCallImport
	OpCallIndirect
	OpCallRef
	OpReturnCall
	OpReturnCallImport
	OpReturnCallIndirect
	OpReturnCallRef

	// managed heap (GC) — SPEC_FULL.md §4.B. array.* ops carry the element
	// type index in A; struct.* ops carry the struct type index in A and
	// field/index immediates in B where the field is statically known.
	// A managed reference is a heap.Object handle stored verbatim in a
	// Slot via wasmval.FromU64; array.new/struct.new trap
	// ALLOCATION_FAILURE when the heap returns nil rather than silently
	// pushing a null reference, since neither type has a null variant of
	// its own in this engine (only funcref/externref do). Popped operands
	// are listed bottom to top.
	OpArrayNew        // pops initial value, length; pushes handle
	OpArrayNewDefault // pops length; pushes handle (zero-filled)
	OpArrayGet        // pops handle, index; pushes element
	OpArraySet        // pops handle, index, value
	OpArrayLen        // pops handle; pushes length
	OpStructNew       // B = field_count; pops B field values; pushes handle
	OpStructNewDefault // B = field_count; pushes handle (zero-filled)
	OpStructGet       // B = field index; pops handle; pushes field
	OpStructSet       // B = field index; pops handle, value

	opCodeCount
)

// IsPlausibleOpCode reports whether op falls within the engine's known
// opcode range. Backs the WASM5_VALIDATE_CODE diagnostic (SPEC_FULL.md
// §6): the source checks a handler address against a small constant
// (≥4096) since its dispatch threads through real function pointers; this
// engine threads through a plain switch, so the equivalent sanity check is
// simply bounding the tag against the opcode table instead.
func IsPlausibleOpCode(op OpCode) bool {
	return op >= 0 && op < opCodeCount
}
