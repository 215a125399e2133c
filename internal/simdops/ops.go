// Package simdops provides generic SIMD operations for float32 and float64 types.
// The mixer works in float64 while the transfer queue and device path may run
// in float32, so both precisions share one set of call sites.
package simdops

import (
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops provides SIMD-accelerated operations for type F.
type Ops[F Float] struct {
	// Scale multiplies each element by scalar s: dst[i] = a[i] * s.
	// dst and a may be the same slice.
	Scale func(dst, a []F, s F)

	// Interleave2 interleaves two slices: dst[0]=a[0], dst[1]=b[0], dst[2]=a[1], ...
	Interleave2 func(dst, a, b []F)
}

var (
	ops32 = Ops[float32]{
		Scale:       f32.Scale,
		Interleave2: f32.Interleave2,
	}
	ops64 = Ops[float64]{
		Scale:       f64.Scale,
		Interleave2: f64.Interleave2,
	}
)

// For returns the Ops instance for type F.
// The type switch happens at construction time, not in hot paths.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		ops, ok := any(&ops32).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float32")
		}
		return ops
	case float64:
		ops, ok := any(&ops64).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float64")
		}
		return ops
	default:
		panic("simdops: unsupported float type")
	}
}

// Float32Ops returns the float32 SIMD operations.
func Float32Ops() *Ops[float32] {
	return &ops32
}

// Float64Ops returns the float64 SIMD operations.
func Float64Ops() *Ops[float64] {
	return &ops64
}
