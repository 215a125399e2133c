// Package spatial projects world-space listener and source positions onto the
// horizontal plane and derives the distance and bearing the engine works with.
//
// World coordinates are Y-up: the horizontal plane is (X, Z), with X to the
// right and Z forward when looking down the default forward axis.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	fullCircle   = 360.0
	radToDegrees = 180.0 / math.Pi
)

// Horizontal projects v onto the horizontal (X, Z) plane.
func Horizontal(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Z}
}

// Distance returns the horizontal distance between listener and source.
// Height differences are ignored.
func Distance(listener, source r3.Vec) float64 {
	return r2.Norm(Horizontal(r3.Sub(source, listener)))
}

// Bearing returns the signed angle, in degrees, from the listener-to-source
// direction to the listener's forward direction, normalized to [0, 360).
//
// Angles grow counter-clockwise in the (X, Z) plane, so with forward along +Z
// a source on the listener's right (+X) has bearing 90 and a source on the
// left has bearing 270. A source directly on the listener, or a zero forward
// vector, yields 0.
func Bearing(listener, forward, source r3.Vec) float64 {
	dir := Horizontal(r3.Sub(source, listener))
	fwd := Horizontal(forward)

	angle := math.Atan2(r2.Cross(dir, fwd), r2.Dot(dir, fwd)) * radToDegrees
	return Normalize(angle)
}

// Normalize wraps an angle in degrees into [0, 360).
func Normalize(degrees float64) float64 {
	a := math.Mod(degrees, fullCircle)
	if a < 0 {
		a += fullCircle
	}
	if a >= fullCircle {
		a = 0
	}
	return a
}
