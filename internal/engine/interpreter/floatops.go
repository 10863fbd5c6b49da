package interpreter

import "math"

// f32* wrappers round-trip through float64 math.* since the standard
// library has no float32 transcendental functions; WebAssembly's f32 ops
// are defined bitwise-precisely but the reference interpreters this
// engine is checked against (and the teacher's own moremath package) use
// the same float64-roundtrip approach for non-arithmetic unary ops.

func f32Abs(a float32) float32      { return float32(math.Abs(float64(a))) }
func f32Ceil(a float32) float32     { return float32(math.Ceil(float64(a))) }
func f32Floor(a float32) float32    { return float32(math.Floor(float64(a))) }
func f32Trunc(a float32) float32    { return float32(math.Trunc(float64(a))) }
func f32Nearest(a float32) float32  { return float32(math.RoundToEven(float64(a))) }
func f32Sqrt(a float32) float32     { return float32(math.Sqrt(float64(a))) }
func f32Copysign(a, b float32) float32 {
	return float32(math.Copysign(float64(a), float64(b)))
}

func f64Abs(a float64) float64      { return math.Abs(a) }
func f64Ceil(a float64) float64     { return math.Ceil(a) }
func f64Floor(a float64) float64    { return math.Floor(a) }
func f64Trunc(a float64) float64    { return math.Trunc(a) }
func f64Nearest(a float64) float64  { return math.RoundToEven(a) }
func f64Sqrt(a float64) float64     { return math.Sqrt(a) }
func f64Copysign(a, b float64) float64 {
	return math.Copysign(a, b)
}
