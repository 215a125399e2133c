package engine

// Falloff defaults, taken from the room the clips were tuned in.
const (
	DefaultFalloffReference  = 10.0
	DefaultFalloffBounceLoss = 0.2
	DefaultMinAudible        = 0.05
)

// Falloff is an optional pipeline stage that attenuates a source by distance.
// Implementations must be safe to call from the tick goroutine without locking.
type Falloff interface {
	// Attenuation returns a gain in [0, 1] for a source at distance.
	Attenuation(distance float64) float64
}

// InverseDistance attenuates sound pressure as Reference/distance, minus a
// fixed loss per wall reflection, clamped to [0, 1].
type InverseDistance struct {
	// Reference is the distance at which the gain reaches 1.
	Reference float64

	// BounceLoss is subtracted once per wall bounce.
	BounceLoss float64

	// Bounces is the number of reflections on the path.
	Bounces int
}

// NewInverseDistance returns the falloff used by the demo scenes.
func NewInverseDistance() InverseDistance {
	return InverseDistance{
		Reference:  DefaultFalloffReference,
		BounceLoss: DefaultFalloffBounceLoss,
	}
}

// Attenuation implements Falloff.
func (f InverseDistance) Attenuation(distance float64) float64 {
	if distance <= 0 {
		return 1
	}
	return clamp01(f.Reference/distance - f.BounceLoss*float64(f.Bounces))
}

// Audible reports whether a falloff gain clears the audibility threshold.
func Audible(gain, minAudible float64) bool {
	return gain >= minAudible
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
