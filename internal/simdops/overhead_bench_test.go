package simdops

import (
	"testing"

	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// blockFrames matches one 20ms tick at 48kHz.
const blockFrames = 960

// BenchmarkDirectF64Scale measures direct SIMD call overhead.
func BenchmarkDirectF64Scale(b *testing.B) {
	a := make([]float64, blockFrames)
	for i := range a {
		a[i] = float64(i) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		f64.Scale(a, a, 0.999)
	}
}

// BenchmarkIndirectF64Scale measures indirect call through Ops struct.
func BenchmarkIndirectF64Scale(b *testing.B) {
	ops := For[float64]()
	a := make([]float64, blockFrames)
	for i := range a {
		a[i] = float64(i) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		ops.Scale(a, a, 0.999)
	}
}

// BenchmarkDirectF32Scale measures direct SIMD call overhead.
func BenchmarkDirectF32Scale(b *testing.B) {
	a := make([]float32, 2*blockFrames)
	for i := range a {
		a[i] = float32(i) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		f32.Scale(a, a, 0.999)
	}
}

// BenchmarkIndirectF32Scale measures indirect call through Ops struct.
func BenchmarkIndirectF32Scale(b *testing.B) {
	ops := For[float32]()
	a := make([]float32, 2*blockFrames)
	for i := range a {
		a[i] = float32(i) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		ops.Scale(a, a, 0.999)
	}
}

// BenchmarkIndirectF64Interleave2 measures the stereo interleave used per source per tick.
func BenchmarkIndirectF64Interleave2(b *testing.B) {
	ops := Float64Ops()
	left := make([]float64, blockFrames)
	right := make([]float64, blockFrames)
	dst := make([]float64, 2*blockFrames)

	b.ReportAllocs()
	for b.Loop() {
		ops.Interleave2(dst, left, right)
	}
}
