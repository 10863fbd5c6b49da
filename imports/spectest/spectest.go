// Package spectest implements the spectest host-import module: a small
// fixed set of print_* formatters used by conformance-style test modules
// to record observable output into a module.Context's output buffer
// (SPEC_FULL.md §4.I / spec.md §6). Handler ids 0-7 are reserved for this
// module, as distinct from wasi_snapshot_preview1's ids 8 and up.
package spectest

import (
	"fmt"
	"strings"

	"github.com/moonbitlang/wasm5go/internal/module"
	"github.com/moonbitlang/wasm5go/internal/wasmval"
)

const (
	HandlerPrint = iota
	HandlerPrintI32
	HandlerPrintI64
	HandlerPrintF32
	HandlerPrintF64
	HandlerPrintI32F32
	HandlerPrintF64F64
	HandlerPrintChar
)

// Handlers returns the fixed id -> module.HostFunc table for the spectest
// module. There is no per-instance state, unlike wasi_snapshot_preview1's
// State, so this is a free function rather than a method.
func Handlers() map[int]module.HostFunc {
	return map[int]module.HostFunc{
		HandlerPrint:       printNothing,
		HandlerPrintI32:    printI32,
		HandlerPrintI64:    printI64,
		HandlerPrintF32:    printF32,
		HandlerPrintF64:    printF64,
		HandlerPrintI32F32: printI32F32,
		HandlerPrintF64F64: printF64F64,
		HandlerPrintChar:   printChar,
	}
}

func printNothing(ctx *module.Context, _ []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput("\n")
	return nil
}

func printI32(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput(fmt.Sprintf("%d : i32\n", wasmval.AsI32(args[0])))
	return nil
}

func printI64(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput(fmt.Sprintf("%d : i64\n", wasmval.AsI64(args[0])))
	return nil
}

func printF32(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput(fmt.Sprintf("%.9g : f32\n", wasmval.AsF32(args[0])))
	return nil
}

func printF64(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput(fmt.Sprintf("%.17g : f64\n", wasmval.AsF64(args[0])))
	return nil
}

func printI32F32(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	a := fmt.Sprintf("%d : i32", wasmval.AsI32(args[0]))
	b := fmt.Sprintf("%.9g : f32", wasmval.AsF32(args[1]))
	ctx.AppendOutput(strings.Join([]string{a, b}, ", ") + "\n")
	return nil
}

func printF64F64(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	a := fmt.Sprintf("%.17g : f64", wasmval.AsF64(args[0]))
	b := fmt.Sprintf("%.17g : f64", wasmval.AsF64(args[1]))
	ctx.AppendOutput(strings.Join([]string{a, b}, ", ") + "\n")
	return nil
}

func printChar(ctx *module.Context, args []wasmval.Slot) []wasmval.Slot {
	ctx.AppendOutput(string([]byte{byte(wasmval.AsU32(args[0]))}) + "\n")
	return nil
}
