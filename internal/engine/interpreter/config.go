package interpreter

import "os"

// Config tunes the threaded interpreter. DefaultConfig fills in the
// teacher-grounded defaults (SPEC_FULL.md §3 "ambient Configuration"); a
// zero Config allocates no operand stack at all.
type Config struct {
	// InitialStackCapacity is the fixed size of the operand stack allocated
	// for one top-level Execute; the stack never grows. Arguments that do
	// not fit trap TrapStackOverflow; individual pushes are not
	// bounds-checked, so running past the end is a Go runtime panic rather
	// than a trap.
	InitialStackCapacity int

	// MaxCallDepth bounds local/indirect/ref call recursion (Go call
	// stack depth), adapted from the teacher's callStackCeiling.
	MaxCallDepth int

	// MaxSavedContexts bounds the cross-module context-switch stack
	// (SPEC_FULL.md §4.G: capped at 16 saved contexts).
	MaxSavedContexts int

	// ValidateCode enables the WASM5_VALIDATE_CODE diagnostic: a sanity
	// check, before each dispatch, that the next opcode looks plausible.
	// SPEC_FULL.md §6.
	ValidateCode bool
}

// DefaultConfig mirrors the teacher's build-time defaults
// (internal/buildoptions.CallStackCeiling) adapted to this engine's scale.
func DefaultConfig() Config {
	_, validate := os.LookupEnv("WASM5_VALIDATE_CODE")
	return Config{
		InitialStackCapacity: 1 << 16,
		MaxCallDepth:         2000,
		MaxSavedContexts:     16,
		ValidateCode:         validate,
	}
}
