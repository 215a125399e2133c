// Package directivity implements the per-ear gain model used to give each
// source a horizontal direction.
//
// Gains come from a measured polar pattern of a behind-the-ear hearing aid
// (Canadian Audiologist, "Measuring directionality of modern hearing aids"),
// originally sampled every 22.5 degrees and approximated here every 10 degrees.
// The right ear uses the left-ear pattern mirrored about the forward axis.
package directivity

import "math"

// Ear selects an output channel.
type Ear int

const (
	// Left is the left ear (first interleaved channel).
	Left Ear = iota

	// Right is the right ear (second interleaved channel).
	Right
)

// String returns the ear name.
func (e Ear) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Bucket layout
const (
	// Buckets is the number of bearing buckets in the table.
	Buckets = 36

	// BucketWidth is the width of one bucket in degrees.
	BucketWidth = 10.0
)

// Table is a left-ear gain per 10 degree bearing bucket, starting straight ahead
// and turning towards the right.
type Table [Buckets]float64

// LeftEarPolarPattern is the measured left-ear pattern. The values are
// empirical and must not be re-derived.
var LeftEarPolarPattern = Table{
	0.56, 0.50, 0.45, 0.40, 0.40, 0.45, 0.45, 0.50, 0.56,
	0.56, 0.56, 0.50, 0.45, 0.45, 0.40, 0.40, 0.45, 0.50,
	0.56, 0.63, 0.71, 0.79, 0.89, 1.00, 1.00, 1.00, 1.00,
	1.00, 1.00, 1.00, 1.00, 1.00, 0.89, 0.79, 0.71, 0.63,
}

// BucketIndex maps a bearing in degrees to its table bucket.
// Bearings outside [0, 360) wrap around.
func BucketIndex(bearing float64) int {
	idx := int(math.Floor(bearing/BucketWidth)) % Buckets
	if idx < 0 {
		idx += Buckets
	}
	return idx
}

// Gain returns the gain for one ear at the given bearing.
func (t *Table) Gain(ear Ear, bearing float64) float64 {
	idx := BucketIndex(bearing)
	if ear == Right {
		idx = mirror(idx)
	}
	return t[idx]
}

// Gains returns the left and right gains at the given bearing.
func (t *Table) Gains(bearing float64) (left, right float64) {
	idx := BucketIndex(bearing)
	return t[idx], t[mirror(idx)]
}

// Gain returns the gain for one ear using the measured pattern.
func Gain(ear Ear, bearing float64) float64 {
	return LeftEarPolarPattern.Gain(ear, bearing)
}

// mirror reflects a bucket about the forward axis.
func mirror(idx int) int {
	return (Buckets - idx) % Buckets
}
