// Package engine implements the per-source Doppler signal path: mapping
// listener distance to a position in a source clip and resampling the clip
// fragment swept during one tick to reproduce the pitch shift of motion.
package engine

import (
	"math"
	"time"
)

// MapDistanceToSample returns the clip index heard at the given distance.
//
// Sound that reaches a listener at distance d left the source d/soundSpeed
// seconds ago, so the heard index counts back from clipLength by that delay
// expressed in samples:
//
//	index = clipLength - round(distance / soundSpeed * sampleRate)
//
// The result is non-increasing in distance and may be negative when the
// listener is farther away than the clip can express; see Reachable.
func MapDistanceToSample(distance float64, clipLength int, soundSpeed float64, sampleRate int) int {
	delay := math.Round(distance / soundSpeed * float64(sampleRate))
	return clipLength - int(delay)
}

// Reachable reports whether a mapped index lies inside the clip. Unreachable
// sources are muted for the tick rather than treated as failures.
func Reachable(index, clipLength int) bool {
	return index >= 0 && index <= clipLength
}

// RelativeVelocity returns the unitless ratio of recession speed to
// propagation speed over one tick. Positive values mean the source moved away.
func RelativeVelocity(current, previous, tickSeconds, soundSpeed float64) float64 {
	return (current - previous) / (tickSeconds * soundSpeed)
}

// Resample fills dst with the fragment swept since the previous tick, read at
// the rate given by relativeVelocity.
//
// Output sample n reads fragment position r = |n * relativeVelocity|, linearly
// interpolated. Positions past the second-to-last sample hold the final sample,
// so fast motion that consumes the fragment early clamps rather than overruns.
// An empty fragment means no net motion on the sample grid; dst is then filled
// with hold, the sample at the current mapped index.
func Resample(dst, fragment []float64, relativeVelocity, hold float64) {
	f := len(fragment)
	if f == 0 {
		for i := range dst {
			dst[i] = hold
		}
		return
	}

	last := fragment[f-1]
	for n := range dst {
		r := math.Abs(float64(n) * relativeVelocity)
		if r > float64(f-1) {
			dst[n] = last
			continue
		}

		idx := int(r)
		if idx > f-2 {
			dst[n] = last
			continue
		}

		frac := r - float64(idx)
		dst[n] = fragment[idx]*(1-frac) + fragment[idx+1]*frac
	}
}

// SnapVelocity treats relative velocities smaller than epsilon as no motion.
func SnapVelocity(relativeVelocity, epsilon float64) float64 {
	if math.Abs(relativeVelocity) < epsilon {
		return 0
	}
	return relativeVelocity
}

// SamplesPerTick returns the number of output frames one tick produces.
// Integer arithmetic keeps 20ms at 48kHz at exactly 960 frames.
func SamplesPerTick(tick time.Duration, sampleRate int) int {
	return int(int64(tick) * int64(sampleRate) / int64(time.Second))
}
