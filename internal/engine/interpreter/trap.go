package interpreter

import "github.com/moonbitlang/wasm5go/internal/module"

// trapError is panicked by opcode handlers on a trapping condition and
// recovered at the top of a top-level Execute, exactly as the teacher's
// internal/engine/interpreter/interpreter.go propagates its
// wasmruntime.ErrRuntime* sentinels. Traps unwind the whole call, so a
// plain panic/recover (rather than threading an error return through
// every handler) matches both the source's control flow and the
// teacher's idiom.
type trapError struct {
	code module.TrapCode
}

func (e trapError) Error() string { return e.code.String() }

func trap(code module.TrapCode) {
	panic(trapError{code})
}

// recoverTrap turns a recovered panic into a TrapCode, re-panicking
// anything that isn't a trapError (a real bug, not a guest-triggerable
// condition) so it surfaces as a Go panic to the caller of Execute.
func recoverTrap(v interface{}) module.TrapCode {
	if te, ok := v.(trapError); ok {
		return te.code
	}
	panic(v)
}
