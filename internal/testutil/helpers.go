// Package testutil provides reusable test helper functions for Doppler engine tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	Float32Tolerance = 1e-6
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// Ramp returns n samples rising linearly from 0 by step.
// Distinct, ordered values make index errors visible in assertions.
func Ramp(n int, step float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i) * step
	}
	return s
}

// Reversed returns a reversed copy of s.
func Reversed(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// AssertConstant verifies that every element equals want.
func AssertConstant[F float32 | float64](t *testing.T, s []F, want F, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if !assert.InDelta(t, float64(want), float64(v), tolerance,
			"s[%d]=%f, want constant %f", i, v, want) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf[F float32 | float64](t *testing.T, s []F, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(float64(v)) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(float64(v), 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertNonIncreasing verifies that a slice never increases.
func AssertNonIncreasing(t *testing.T, s []int, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] > s[i-1] {
			return assert.Fail(t, "not non-increasing",
				"s[%d]=%d > s[%d]=%d", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// Channel extracts one channel from interleaved stereo data.
func Channel[F float32 | float64](interleaved []F, ch int) []F {
	out := make([]F, len(interleaved)/2)
	for i := range out {
		out[i] = interleaved[2*i+ch]
	}
	return out
}

// WriteWAV writes integer PCM samples to a WAV file in a temp directory and
// returns its path.
func WriteWAV(t *testing.T, data []int, sampleRate, bitDepth, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}
