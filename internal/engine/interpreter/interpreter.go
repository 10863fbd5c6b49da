// Package interpreter implements the threaded dispatch loop of
// SPEC_FULL.md §4.F/§4.G: a switch over module.OpCode standing in for the
// source's handler-pointer threading (not available to a managed
// language, per its own design notes §9), operating on a flat operand
// stack shared by locals and operands exactly as SPEC_FULL.md §3
// describes.
package interpreter

import (
	"log"

	"github.com/moonbitlang/wasm5go/internal/heap"
	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/table"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

// callEngine is the engine-owned mutable state for one top-level
// Execute: the operand stack, the cross-module LIFO depth counter, and
// the native (Go) call-recursion depth counter. It is not reused across
// Execute calls.
type callEngine struct {
	cfg         Config
	stack       []wasmval.Slot
	depth       crossModuleDepth
	nativeDepth int
}

// Execute runs entryFuncIdx in ctx with the default Config, per
// SPEC_FULL.md §6's executor entry. args are copied into the callee's
// parameter slots; on a non-trap return, results holds exactly the
// callee's declared result count.
func Execute(ctx *module.Context, entryFuncIdx int, args []wasmval.Slot) (results []wasmval.Slot, trapCode module.TrapCode) {
	return ExecuteWithConfig(ctx, entryFuncIdx, args, DefaultConfig())
}

// ExecuteWithConfig is Execute with an explicit Config, used by callers
// that need a non-default stack capacity or call-depth cap.
func ExecuteWithConfig(ctx *module.Context, entryFuncIdx int, args []wasmval.Slot, cfg Config) (results []wasmval.Slot, trapCode module.TrapCode) {
	ce := &callEngine{
		cfg:   cfg,
		stack: make([]wasmval.Slot, cfg.InitialStackCapacity),
		depth: crossModuleDepth{max: cfg.MaxSavedContexts},
	}

	ctx.Heap.PushStack(ce.stack)
	defer ctx.Heap.PopStack()

	defer func() {
		if r := recover(); r != nil {
			trapCode = recoverTrap(r)
			results = nil
		}
	}()

	fm := ctx.Image.Funcs[entryFuncIdx]
	ft := ctx.Image.Types[fm.TypeIdx]
	if len(args) > len(ce.stack) {
		trap(module.TrapStackOverflow)
	}
	copy(ce.stack, args)

	sp := ce.run(ctx, fm.CodeEntry, 0)
	numResults := len(ft.Results)
	out := make([]wasmval.Slot, numResults)
	copy(out, ce.stack[:sp])
	return out, module.TrapNone
}

// CallExternalFFI invokes funcIdx in target from outside the engine (a
// foreign host, or the driver), reusing the same dispatch machinery as an
// ordinary local call (SPEC_FULL.md §6 "Cross-module FFI").
func CallExternalFFI(target *module.Context, funcIdx int, args []wasmval.Slot) ([]wasmval.Slot, module.TrapCode) {
	return Execute(target, funcIdx, args)
}

// run executes starting at pc with frame pointer fp until this frame's
// own end/return/func_exit, returning the new stack-top (fp+numResults).
// Calls to other functions recurse into run again on the native Go call
// stack — deliberately, per the source's own design note (§9): passing
// ctx explicitly through recursion means LIFO cross-module save/restore
// falls out automatically, with no ambient "active module" bank to swap.
func (ce *callEngine) run(ctx *module.Context, pc, fp int) int {
	code := ctx.Image.Code
	stack := ce.stack
	sp := fp

	for {
		instr := code[pc]
		pc++

		if ce.cfg.ValidateCode && !module.IsPlausibleOpCode(instr.Op) {
			log.Printf("wasm5go: WASM5_VALIDATE_CODE: implausible opcode %d at pc=%d", instr.Op, pc-1)
			trap(module.TrapUnreachable)
		}

		switch instr.Op {
		case module.OpNop:

		case module.OpUnreachable:
			trap(module.TrapUnreachable)

		case module.OpEntry:
			numLocals := int(instr.A)
			firstLocal := int(instr.B)
			numZero := int(instr.C)
			for i := firstLocal; i < firstLocal+numZero; i++ {
				stack[fp+i] = 0
			}
			sp = fp + numLocals

		case module.OpEnd, module.OpReturn:
			numResults := int(instr.A)
			src := sp - numResults
			copy(stack[fp:fp+numResults], stack[src:sp])
			return fp + numResults

		case module.OpFuncExit:
			return sp

		// constants
		case module.OpI32Const:
			stack[sp] = wasmval.FromI32(int32(instr.A))
			sp++
		case module.OpI64Const:
			stack[sp] = wasmval.FromI64(instr.A)
			sp++
		case module.OpF32Const:
			stack[sp] = wasmval.Slot(uint32(instr.A))
			sp++
		case module.OpF64Const:
			stack[sp] = wasmval.Slot(uint64(instr.A))
			sp++

		// locals/globals
		case module.OpLocalGet:
			stack[sp] = stack[fp+int(instr.A)]
			sp++
		case module.OpLocalSet:
			sp--
			stack[fp+int(instr.A)] = stack[sp]
		case module.OpLocalTee:
			stack[fp+int(instr.A)] = stack[sp-1]
		case module.OpGlobalGet:
			stack[sp] = ctx.Globals[instr.A]
			sp++
		case module.OpGlobalSet:
			sp--
			ctx.Globals[instr.A] = stack[sp]

		// i32 arithmetic
		case module.OpI32Add:
			sp = binI32(stack, sp, func(a, b int32) int32 { return a + b })
		case module.OpI32Sub:
			sp = binI32(stack, sp, func(a, b int32) int32 { return a - b })
		case module.OpI32Mul:
			sp = binI32(stack, sp, func(a, b int32) int32 { return a * b })
		case module.OpI32DivS:
			sp = binI32(stack, sp, func(a, b int32) int32 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				if a == -2147483648 && b == -1 {
					trap(module.TrapIntegerOverflow)
				}
				return a / b
			})
		case module.OpI32DivU:
			sp = binU32(stack, sp, func(a, b uint32) uint32 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				return a / b
			})
		case module.OpI32RemS:
			sp = binI32(stack, sp, func(a, b int32) int32 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				if a == -2147483648 && b == -1 {
					return 0
				}
				return a % b
			})
		case module.OpI32RemU:
			sp = binU32(stack, sp, func(a, b uint32) uint32 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				return a % b
			})
		case module.OpI32And:
			sp = binU32(stack, sp, func(a, b uint32) uint32 { return a & b })
		case module.OpI32Or:
			sp = binU32(stack, sp, func(a, b uint32) uint32 { return a | b })
		case module.OpI32Xor:
			sp = binU32(stack, sp, func(a, b uint32) uint32 { return a ^ b })
		case module.OpI32Shl:
			sp = binU32(stack, sp, func(a, b uint32) uint32 { return a << (b & 31) })
		case module.OpI32ShrS:
			sp = binI32(stack, sp, func(a, b int32) int32 { return a >> (uint32(b) & 31) })
		case module.OpI32ShrU:
			sp = binU32(stack, sp, func(a, b uint32) uint32 { return a >> (b & 31) })
		case module.OpI32Rotl:
			sp = binU32(stack, sp, rotl32)
		case module.OpI32Rotr:
			sp = binU32(stack, sp, rotr32)
		case module.OpI32Clz:
			sp = unaryU32(stack, sp, clz32)
		case module.OpI32Ctz:
			sp = unaryU32(stack, sp, ctz32)
		case module.OpI32Popcnt:
			sp = unaryU32(stack, sp, popcnt32)
		case module.OpI32Eqz:
			stack[sp-1] = boolSlot(wasmval.AsI32(stack[sp-1]) == 0)
		case module.OpI32Eq:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a == b })
		case module.OpI32Ne:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a != b })
		case module.OpI32LtS:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a < b })
		case module.OpI32LtU:
			sp = cmpU32(stack, sp, func(a, b uint32) bool { return a < b })
		case module.OpI32GtS:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a > b })
		case module.OpI32GtU:
			sp = cmpU32(stack, sp, func(a, b uint32) bool { return a > b })
		case module.OpI32LeS:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a <= b })
		case module.OpI32LeU:
			sp = cmpU32(stack, sp, func(a, b uint32) bool { return a <= b })
		case module.OpI32GeS:
			sp = cmpI32(stack, sp, func(a, b int32) bool { return a >= b })
		case module.OpI32GeU:
			sp = cmpU32(stack, sp, func(a, b uint32) bool { return a >= b })

		// i64 arithmetic
		case module.OpI64Add:
			sp = binI64(stack, sp, func(a, b int64) int64 { return a + b })
		case module.OpI64Sub:
			sp = binI64(stack, sp, func(a, b int64) int64 { return a - b })
		case module.OpI64Mul:
			sp = binI64(stack, sp, func(a, b int64) int64 { return a * b })
		case module.OpI64DivS:
			sp = binI64(stack, sp, func(a, b int64) int64 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				if a == -9223372036854775808 && b == -1 {
					trap(module.TrapIntegerOverflow)
				}
				return a / b
			})
		case module.OpI64DivU:
			sp = binU64(stack, sp, func(a, b uint64) uint64 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				return a / b
			})
		case module.OpI64RemS:
			sp = binI64(stack, sp, func(a, b int64) int64 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				if a == -9223372036854775808 && b == -1 {
					return 0
				}
				return a % b
			})
		case module.OpI64RemU:
			sp = binU64(stack, sp, func(a, b uint64) uint64 {
				if b == 0 {
					trap(module.TrapDivisionByZero)
				}
				return a % b
			})
		case module.OpI64And:
			sp = binU64(stack, sp, func(a, b uint64) uint64 { return a & b })
		case module.OpI64Or:
			sp = binU64(stack, sp, func(a, b uint64) uint64 { return a | b })
		case module.OpI64Xor:
			sp = binU64(stack, sp, func(a, b uint64) uint64 { return a ^ b })
		case module.OpI64Shl:
			sp = binU64(stack, sp, func(a, b uint64) uint64 { return a << (b & 63) })
		case module.OpI64ShrS:
			sp = binI64(stack, sp, func(a, b int64) int64 { return a >> (uint64(b) & 63) })
		case module.OpI64ShrU:
			sp = binU64(stack, sp, func(a, b uint64) uint64 { return a >> (b & 63) })
		case module.OpI64Rotl:
			sp = binU64(stack, sp, rotl64)
		case module.OpI64Rotr:
			sp = binU64(stack, sp, rotr64)
		case module.OpI64Clz:
			sp = unaryU64(stack, sp, clz64)
		case module.OpI64Ctz:
			sp = unaryU64(stack, sp, ctz64)
		case module.OpI64Popcnt:
			sp = unaryU64(stack, sp, popcnt64)
		case module.OpI64Eqz:
			stack[sp-1] = boolSlot(wasmval.AsI64(stack[sp-1]) == 0)
		case module.OpI64Eq:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a == b })
		case module.OpI64Ne:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a != b })
		case module.OpI64LtS:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a < b })
		case module.OpI64LtU:
			sp = cmpU64(stack, sp, func(a, b uint64) bool { return a < b })
		case module.OpI64GtS:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a > b })
		case module.OpI64GtU:
			sp = cmpU64(stack, sp, func(a, b uint64) bool { return a > b })
		case module.OpI64LeS:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a <= b })
		case module.OpI64LeU:
			sp = cmpU64(stack, sp, func(a, b uint64) bool { return a <= b })
		case module.OpI64GeS:
			sp = cmpI64(stack, sp, func(a, b int64) bool { return a >= b })
		case module.OpI64GeU:
			sp = cmpU64(stack, sp, func(a, b uint64) bool { return a >= b })

		// f32 arithmetic/compare/unary
		case module.OpF32Add:
			sp = binF32(stack, sp, func(a, b float32) float32 { return a + b })
		case module.OpF32Sub:
			sp = binF32(stack, sp, func(a, b float32) float32 { return a - b })
		case module.OpF32Mul:
			sp = binF32(stack, sp, func(a, b float32) float32 { return a * b })
		case module.OpF32Div:
			sp = binF32(stack, sp, func(a, b float32) float32 { return a / b })
		case module.OpF32Min:
			sp = binF32(stack, sp, wasmval.Min32)
		case module.OpF32Max:
			sp = binF32(stack, sp, wasmval.Max32)
		case module.OpF32Copysign:
			sp = binF32(stack, sp, f32Copysign)
		case module.OpF32Abs:
			sp = unaryF32(stack, sp, f32Abs)
		case module.OpF32Neg:
			sp = unaryF32(stack, sp, func(a float32) float32 { return -a })
		case module.OpF32Ceil:
			sp = unaryF32(stack, sp, f32Ceil)
		case module.OpF32Floor:
			sp = unaryF32(stack, sp, f32Floor)
		case module.OpF32Trunc:
			sp = unaryF32(stack, sp, f32Trunc)
		case module.OpF32Nearest:
			sp = unaryF32(stack, sp, f32Nearest)
		case module.OpF32Sqrt:
			sp = unaryF32(stack, sp, f32Sqrt)
		case module.OpF32Eq:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a == b })
		case module.OpF32Ne:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a != b })
		case module.OpF32Lt:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a < b })
		case module.OpF32Gt:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a > b })
		case module.OpF32Le:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a <= b })
		case module.OpF32Ge:
			sp = cmpF32(stack, sp, func(a, b float32) bool { return a >= b })

		// f64 arithmetic/compare/unary
		case module.OpF64Add:
			sp = binF64(stack, sp, func(a, b float64) float64 { return a + b })
		case module.OpF64Sub:
			sp = binF64(stack, sp, func(a, b float64) float64 { return a - b })
		case module.OpF64Mul:
			sp = binF64(stack, sp, func(a, b float64) float64 { return a * b })
		case module.OpF64Div:
			sp = binF64(stack, sp, func(a, b float64) float64 { return a / b })
		case module.OpF64Min:
			sp = binF64(stack, sp, wasmval.Min64)
		case module.OpF64Max:
			sp = binF64(stack, sp, wasmval.Max64)
		case module.OpF64Copysign:
			sp = binF64(stack, sp, f64Copysign)
		case module.OpF64Abs:
			sp = unaryF64(stack, sp, f64Abs)
		case module.OpF64Neg:
			sp = unaryF64(stack, sp, func(a float64) float64 { return -a })
		case module.OpF64Ceil:
			sp = unaryF64(stack, sp, f64Ceil)
		case module.OpF64Floor:
			sp = unaryF64(stack, sp, f64Floor)
		case module.OpF64Trunc:
			sp = unaryF64(stack, sp, f64Trunc)
		case module.OpF64Nearest:
			sp = unaryF64(stack, sp, f64Nearest)
		case module.OpF64Sqrt:
			sp = unaryF64(stack, sp, f64Sqrt)
		case module.OpF64Eq:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a == b })
		case module.OpF64Ne:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a != b })
		case module.OpF64Lt:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a < b })
		case module.OpF64Gt:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a > b })
		case module.OpF64Le:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a <= b })
		case module.OpF64Ge:
			sp = cmpF64(stack, sp, func(a, b float64) bool { return a >= b })

		// conversions
		case module.OpI32WrapI64:
			stack[sp-1] = wasmval.FromI32(int32(wasmval.AsI64(stack[sp-1])))
		case module.OpI64ExtendI32S:
			stack[sp-1] = wasmval.FromI64(int64(wasmval.AsI32(stack[sp-1])))
		case module.OpI64ExtendI32U:
			stack[sp-1] = wasmval.FromI64(int64(wasmval.AsU32(stack[sp-1])))
		case module.OpI32TruncF32S:
			stack[sp-1] = wasmval.FromI32(trapI32FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI32TruncF32U:
			stack[sp-1] = wasmval.FromU32(trapU32FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI32TruncF64S:
			stack[sp-1] = wasmval.FromI32(trapI32FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI32TruncF64U:
			stack[sp-1] = wasmval.FromU32(trapU32FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI64TruncF32S:
			stack[sp-1] = wasmval.FromI64(trapI64FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI64TruncF32U:
			stack[sp-1] = wasmval.FromU64(trapU64FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI64TruncF64S:
			stack[sp-1] = wasmval.FromI64(trapI64FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI64TruncF64U:
			stack[sp-1] = wasmval.FromU64(trapU64FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpF32ConvertI32S:
			stack[sp-1] = wasmval.FromF32(float32(wasmval.AsI32(stack[sp-1])))
		case module.OpF32ConvertI32U:
			stack[sp-1] = wasmval.FromF32(float32(wasmval.AsU32(stack[sp-1])))
		case module.OpF32ConvertI64S:
			stack[sp-1] = wasmval.FromF32(float32(wasmval.AsI64(stack[sp-1])))
		case module.OpF32ConvertI64U:
			stack[sp-1] = wasmval.FromF32(float32(wasmval.AsU64(stack[sp-1])))
		case module.OpF32DemoteF64:
			stack[sp-1] = wasmval.FromF32(float32(wasmval.AsF64(stack[sp-1])))
		case module.OpF64ConvertI32S:
			stack[sp-1] = wasmval.FromF64(float64(wasmval.AsI32(stack[sp-1])))
		case module.OpF64ConvertI32U:
			stack[sp-1] = wasmval.FromF64(float64(wasmval.AsU32(stack[sp-1])))
		case module.OpF64ConvertI64S:
			stack[sp-1] = wasmval.FromF64(float64(wasmval.AsI64(stack[sp-1])))
		case module.OpF64ConvertI64U:
			stack[sp-1] = wasmval.FromF64(float64(wasmval.AsU64(stack[sp-1])))
		case module.OpF64PromoteF32:
			stack[sp-1] = wasmval.FromF64(float64(wasmval.AsF32(stack[sp-1])))
		case module.OpI32ReinterpretF32:
			stack[sp-1] = wasmval.FromU32(wasmval.AsU32(stack[sp-1]))
		case module.OpI64ReinterpretF64:
			// bit pattern is already the Slot's representation; no-op.
		case module.OpF32ReinterpretI32:
			// likewise: the slot already carries the raw bits.
		case module.OpF64ReinterpretI64:
			// likewise.
		case module.OpI32TruncSatF32S:
			stack[sp-1] = wasmval.FromI32(satI32FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI32TruncSatF32U:
			stack[sp-1] = wasmval.FromU32(satU32FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI32TruncSatF64S:
			stack[sp-1] = wasmval.FromI32(satI32FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI32TruncSatF64U:
			stack[sp-1] = wasmval.FromU32(satU32FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI64TruncSatF32S:
			stack[sp-1] = wasmval.FromI64(satI64FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI64TruncSatF32U:
			stack[sp-1] = wasmval.FromU64(satU64FromF64(float64(wasmval.AsF32(stack[sp-1]))))
		case module.OpI64TruncSatF64S:
			stack[sp-1] = wasmval.FromI64(satI64FromF64(wasmval.AsF64(stack[sp-1])))
		case module.OpI64TruncSatF64U:
			stack[sp-1] = wasmval.FromU64(satU64FromF64(wasmval.AsF64(stack[sp-1])))

		// sign extension
		case module.OpI32Extend8S:
			stack[sp-1] = wasmval.FromI32(int32(int8(wasmval.AsI32(stack[sp-1]))))
		case module.OpI32Extend16S:
			stack[sp-1] = wasmval.FromI32(int32(int16(wasmval.AsI32(stack[sp-1]))))
		case module.OpI64Extend8S:
			stack[sp-1] = wasmval.FromI64(int64(int8(wasmval.AsI64(stack[sp-1]))))
		case module.OpI64Extend16S:
			stack[sp-1] = wasmval.FromI64(int64(int16(wasmval.AsI64(stack[sp-1]))))
		case module.OpI64Extend32S:
			stack[sp-1] = wasmval.FromI64(int64(int32(wasmval.AsI64(stack[sp-1]))))

		// memory loads
		case module.OpI32Load:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read32(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU32(v)
		case module.OpI64Load:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read64(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU64(v)
		case module.OpF32Load:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadF32(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromF32(v)
		case module.OpF64Load:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadF64(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromF64(v)
		case module.OpI32Load8S:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadByte(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromI32(int32(int8(v)))
		case module.OpI32Load8U:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadByte(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU32(uint32(v))
		case module.OpI32Load16S:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read16(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromI32(int32(int16(v)))
		case module.OpI32Load16U:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read16(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU32(uint32(v))
		case module.OpI64Load8S:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadByte(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromI64(int64(int8(v)))
		case module.OpI64Load8U:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.ReadByte(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU64(uint64(v))
		case module.OpI64Load16S:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read16(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromI64(int64(int16(v)))
		case module.OpI64Load16U:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read16(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU64(uint64(v))
		case module.OpI64Load32S:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read32(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromI64(int64(int32(v)))
		case module.OpI64Load32U:
			addr := uint64(wasmval.AsU32(stack[sp-1])) + uint64(instr.A)
			v, ok := ctx.Memory.Read32(addr)
			if !ok {
				trap(module.TrapOutOfBoundsMemory)
			}
			stack[sp-1] = wasmval.FromU64(uint64(v))

		// memory stores
		case module.OpI32Store:
			v := wasmval.AsU32(stack[sp-1])
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.Write32(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI64Store:
			v := wasmval.AsU64(stack[sp-1])
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.Write64(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpF32Store:
			v := wasmval.AsF32(stack[sp-1])
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.WriteF32(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpF64Store:
			v := wasmval.AsF64(stack[sp-1])
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.WriteF64(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI32Store8:
			v := byte(wasmval.AsU32(stack[sp-1]))
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.WriteByte(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI32Store16:
			v := uint16(wasmval.AsU32(stack[sp-1]))
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.Write16(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI64Store8:
			v := byte(wasmval.AsU64(stack[sp-1]))
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.WriteByte(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI64Store16:
			v := uint16(wasmval.AsU64(stack[sp-1]))
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.Write16(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpI64Store32:
			v := uint32(wasmval.AsU64(stack[sp-1]))
			addr := uint64(wasmval.AsU32(stack[sp-2])) + uint64(instr.A)
			sp -= 2
			if !ctx.Memory.Write32(addr, v) {
				trap(module.TrapOutOfBoundsMemory)
			}

		// bulk memory
		case module.OpMemorySize:
			stack[sp] = wasmval.FromU32(ctx.Memory.Size())
			sp++
		case module.OpMemoryGrow:
			delta := wasmval.AsU32(stack[sp-1])
			stack[sp-1] = wasmval.FromI32(int32(ctx.Memory.Grow(delta)))
		case module.OpMemoryCopy:
			n := wasmval.AsU64(stack[sp-1])
			src := wasmval.AsU64(stack[sp-2])
			dest := wasmval.AsU64(stack[sp-3])
			sp -= 3
			if !ctx.Memory.Copy(dest, src, n) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpMemoryFill:
			n := wasmval.AsU64(stack[sp-1])
			val := byte(wasmval.AsU32(stack[sp-2]))
			dest := wasmval.AsU64(stack[sp-3])
			sp -= 3
			if !ctx.Memory.Fill(dest, val, n) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpMemoryInit:
			n := wasmval.AsU64(stack[sp-1])
			src := wasmval.AsU64(stack[sp-2])
			dest := wasmval.AsU64(stack[sp-3])
			sp -= 3
			seg := &ctx.DataSegments[instr.A]
			if !ctx.Memory.Init(seg.ActiveBytes(), dest, src, n) {
				trap(module.TrapOutOfBoundsMemory)
			}
		case module.OpDataDrop:
			ctx.DataSegments[instr.A].Drop()

		// tables
		case module.OpTableGet:
			idx := wasmval.AsU32(stack[sp-1])
			v, ok := ctx.Tables[instr.A].Get(idx)
			if !ok {
				trap(module.TrapTableBoundsAccess)
			}
			stack[sp-1] = encodeRef(v)
		case module.OpTableSet:
			v := decodeRef(stack[sp-1])
			idx := wasmval.AsU32(stack[sp-2])
			sp -= 2
			if !ctx.Tables[instr.A].Set(idx, v) {
				trap(module.TrapTableBoundsAccess)
			}
		case module.OpTableSize:
			stack[sp] = wasmval.FromU32(ctx.Tables[instr.A].Size())
			sp++
		case module.OpTableGrow:
			delta := wasmval.AsU32(stack[sp-1])
			init := decodeRef(stack[sp-2])
			res := ctx.Tables[instr.A].Grow(delta, init)
			stack[sp-2] = wasmval.FromI32(int32(res))
			sp--
		case module.OpTableFill:
			n := wasmval.AsU32(stack[sp-1])
			val := decodeRef(stack[sp-2])
			dest := wasmval.AsU32(stack[sp-3])
			sp -= 3
			if !ctx.Tables[instr.A].Fill(dest, val, n) {
				trap(module.TrapTableBoundsAccess)
			}
		case module.OpTableCopy:
			n := wasmval.AsU32(stack[sp-1])
			src := wasmval.AsU32(stack[sp-2])
			dest := wasmval.AsU32(stack[sp-3])
			sp -= 3
			if !table.Copy(ctx.Tables[instr.A], dest, ctx.Tables[instr.B], src, n) {
				trap(module.TrapTableBoundsAccess)
			}
		case module.OpTableInit:
			n := wasmval.AsU32(stack[sp-1])
			src := wasmval.AsU32(stack[sp-2])
			dest := wasmval.AsU32(stack[sp-3])
			sp -= 3
			seg := &ctx.ElemSegments[instr.B]
			if !ctx.Tables[instr.A].Init(seg, dest, src, n) {
				trap(module.TrapTableBoundsAccess)
			}
		case module.OpElemDrop:
			ctx.ElemSegments[instr.A].Drop()

		// references
		case module.OpRefNull:
			stack[sp] = wasmval.RefNull
			sp++
		case module.OpRefFunc:
			stack[sp] = wasmval.FromFuncref(uint32(instr.A))
			sp++
		case module.OpRefIsNull:
			stack[sp-1] = boolSlot(wasmval.IsNullRef(stack[sp-1]))
		case module.OpRefEq:
			b := stack[sp-1]
			a := stack[sp-2]
			sp--
			stack[sp-1] = boolSlot(a == b)
		case module.OpRefAsNonNull:
			if wasmval.IsNullRef(stack[sp-1]) {
				trap(module.TrapNullReference)
			}
		case module.OpBrOnNull:
			if wasmval.IsNullRef(stack[sp-1]) {
				sp--
				pc = int(instr.A)
			}
		case module.OpBrOnNonNull:
			if !wasmval.IsNullRef(stack[sp-1]) {
				pc = int(instr.A)
			} else {
				sp--
			}

		// managed heap (GC)
		case module.OpArrayNew:
			length := int(wasmval.AsU32(stack[sp-1]))
			val := stack[sp-2]
			sp -= 2
			obj := ctx.Heap.AllocArray(uint32(instr.A), length)
			if obj == nil {
				trap(module.TrapAllocationFailure)
			}
			for i := range obj.Slots {
				obj.Slots[i] = val
			}
			stack[sp] = wasmval.FromU64(obj.Handle())
			sp++
		case module.OpArrayNewDefault:
			length := int(wasmval.AsU32(stack[sp-1]))
			obj := ctx.Heap.AllocArray(uint32(instr.A), length)
			if obj == nil {
				trap(module.TrapAllocationFailure)
			}
			stack[sp-1] = wasmval.FromU64(obj.Handle())
		case module.OpArrayGet:
			idx := int(wasmval.AsU32(stack[sp-1]))
			obj := heapObject(ctx, stack[sp-2])
			if idx < 0 || idx >= len(obj.Slots) {
				trap(module.TrapOutOfBoundsArray)
			}
			sp--
			stack[sp-1] = obj.Slots[idx]
		case module.OpArraySet:
			val := stack[sp-1]
			idx := int(wasmval.AsU32(stack[sp-2]))
			obj := heapObject(ctx, stack[sp-3])
			sp -= 3
			if idx < 0 || idx >= len(obj.Slots) {
				trap(module.TrapOutOfBoundsArray)
			}
			obj.Slots[idx] = val
		case module.OpArrayLen:
			obj := heapObject(ctx, stack[sp-1])
			stack[sp-1] = wasmval.FromU32(uint32(obj.Length))
		case module.OpStructNew:
			fieldCount := int(instr.B)
			obj := ctx.Heap.AllocStruct(uint32(instr.A), fieldCount)
			if obj == nil {
				trap(module.TrapAllocationFailure)
			}
			copy(obj.Slots, stack[sp-fieldCount:sp])
			sp -= fieldCount
			stack[sp] = wasmval.FromU64(obj.Handle())
			sp++
		case module.OpStructNewDefault:
			obj := ctx.Heap.AllocStruct(uint32(instr.A), int(instr.B))
			if obj == nil {
				trap(module.TrapAllocationFailure)
			}
			stack[sp] = wasmval.FromU64(obj.Handle())
			sp++
		case module.OpStructGet:
			obj := heapObject(ctx, stack[sp-1])
			field := int(instr.B)
			if field < 0 || field >= len(obj.Slots) {
				trap(module.TrapOutOfBoundsArray)
			}
			stack[sp-1] = obj.Slots[field]
		case module.OpStructSet:
			val := stack[sp-1]
			field := int(instr.B)
			obj := heapObject(ctx, stack[sp-2])
			sp -= 2
			if field < 0 || field >= len(obj.Slots) {
				trap(module.TrapOutOfBoundsArray)
			}
			obj.Slots[field] = val

		// branches
		case module.OpBr:
			pc = int(instr.A)
		case module.OpBrIf:
			sp--
			if wasmval.AsI32(stack[sp]) != 0 {
				pc = int(instr.A)
			} else {
				pc = int(instr.B)
			}
		case module.OpIf:
			sp--
			if wasmval.AsI32(stack[sp]) == 0 {
				pc = int(instr.A)
			}
		case module.OpBrTable:
			sp--
			idx := wasmval.AsU32(stack[sp])
			targets := ctx.Image.BrTables[instr.A]
			def := targets[len(targets)-1]
			if int(idx) < len(targets)-1 {
				pc = int(targets[idx])
			} else {
				pc = int(def)
			}

		// stack shuffling
		case module.OpCopySlot:
			stack[fp+int(instr.B)] = stack[fp+int(instr.A)]
		case module.OpSetSP:
			sp = fp + int(instr.A)
		case module.OpDrop:
			sp -= int(instr.A)
		case module.OpSelect:
			cond := stack[sp-1]
			b := stack[sp-2]
			a := stack[sp-3]
			sp -= 2
			if wasmval.AsI32(cond) != 0 {
				stack[sp-1] = a
			} else {
				stack[sp-1] = b
			}

		// calls
		case module.OpCall:
			fm := ctx.Image.Funcs[instr.A]
			sp = ce.invokeLocal(ctx, fm, fp+int(instr.B))
		case module.OpCallImport:
			sp = ce.invokeImport(ctx, int(instr.A), fp+int(instr.B))
		case module.OpCallIndirect:
			sp--
			idx := wasmval.AsU32(stack[sp])
			tbl := ctx.Tables[instr.B]
			entry, ok := tbl.Get(idx)
			if !ok {
				trap(module.TrapOutOfBoundsTable)
			}
			if entry == table.Null {
				trap(module.TrapUninitializedElement)
			}
			kind, cidx, ok := classify(ctx, entry)
			if !ok {
				trap(module.TrapOutOfBoundsTable)
			}
			if !module.SameSignature(typeOf(ctx, kind, cidx), &ctx.Image.Types[instr.A]) {
				trap(module.TrapIndirectCallTypeMismatch)
			}
			sp = ce.dispatchIndirect(ctx, kind, cidx, fp+int(instr.C))
		case module.OpCallRef:
			sp--
			ref := stack[sp]
			if wasmval.IsNullRef(ref) {
				trap(module.TrapNullFunctionReference)
			}
			kind, cidx, ok := classify(ctx, int64(wasmval.AsFuncref(ref)))
			if !ok {
				trap(module.TrapNullFunctionReference)
			}
			if !module.SameSignature(typeOf(ctx, kind, cidx), &ctx.Image.Types[instr.A]) {
				trap(module.TrapIndirectCallTypeMismatch)
			}
			sp = ce.dispatchIndirect(ctx, kind, cidx, fp+int(instr.B))

		// tail calls
		case module.OpReturnCall:
			fm := ctx.Image.Funcs[instr.A]
			numParams := len(ctx.Image.Types[fm.TypeIdx].Params)
			src := fp + int(instr.B)
			copy(stack[fp:fp+numParams], stack[src:src+numParams])
			sp = fp + numParams
			pc = fm.CodeEntry
		case module.OpReturnCallImport:
			argsBase := fp + int(instr.B)
			newSP := ce.invokeImport(ctx, int(instr.A), argsBase)
			numResults := newSP - argsBase
			copy(stack[fp:fp+numResults], stack[argsBase:newSP])
			return fp + numResults
		case module.OpReturnCallIndirect:
			sp--
			idx := wasmval.AsU32(stack[sp])
			tbl := ctx.Tables[instr.B]
			entry, ok := tbl.Get(idx)
			if !ok {
				trap(module.TrapOutOfBoundsTable)
			}
			if entry == table.Null {
				trap(module.TrapUninitializedElement)
			}
			kind, cidx, ok := classify(ctx, entry)
			if !ok {
				trap(module.TrapOutOfBoundsTable)
			}
			if !module.SameSignature(typeOf(ctx, kind, cidx), &ctx.Image.Types[instr.A]) {
				trap(module.TrapIndirectCallTypeMismatch)
			}
			argsBase := fp + int(instr.C)
			newSP := ce.dispatchIndirect(ctx, kind, cidx, argsBase)
			numResults := newSP - argsBase
			copy(stack[fp:fp+numResults], stack[argsBase:newSP])
			return fp + numResults
		case module.OpReturnCallRef:
			sp--
			ref := stack[sp]
			if wasmval.IsNullRef(ref) {
				trap(module.TrapNullFunctionReference)
			}
			kind, cidx, ok := classify(ctx, int64(wasmval.AsFuncref(ref)))
			if !ok {
				trap(module.TrapNullFunctionReference)
			}
			if !module.SameSignature(typeOf(ctx, kind, cidx), &ctx.Image.Types[instr.A]) {
				trap(module.TrapIndirectCallTypeMismatch)
			}
			argsBase := fp + int(instr.B)
			newSP := ce.dispatchIndirect(ctx, kind, cidx, argsBase)
			numResults := newSP - argsBase
			copy(stack[fp:fp+numResults], stack[argsBase:newSP])
			return fp + numResults
		}
	}
}

func encodeRef(v int64) wasmval.Slot {
	if v == table.Null {
		return wasmval.RefNull
	}
	return wasmval.FromFuncref(uint32(v))
}

func decodeRef(s wasmval.Slot) int64 {
	if wasmval.IsNullRef(s) {
		return table.Null
	}
	return int64(wasmval.AsFuncref(s))
}

// heapObject resolves a managed reference off the operand stack, trapping
// NULL_REFERENCE if it doesn't name a live object in ctx.Heap (including
// the null-reference encoding itself, since arrays/structs have no null
// of their own separate from IsManaged's definition).
func heapObject(ctx *module.Context, handle wasmval.Slot) *heap.Object {
	if !ctx.Heap.IsManaged(handle) {
		trap(module.TrapNullReference)
	}
	return ctx.Heap.Lookup(wasmval.AsU64(handle))
}
