package clip

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Peak returns the largest absolute sample value.
func (c *Clip) Peak() float64 {
	return math.Max(math.Abs(floats.Max(c.samples)), math.Abs(floats.Min(c.samples)))
}

// Normalize returns a copy of the clip scaled so that its peak equals target.
// A silent clip is returned unchanged.
func (c *Clip) Normalize(target float64) (*Clip, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, fmt.Errorf("invalid normalization target: %v", target)
	}

	out := c.Samples()
	if peak := c.Peak(); peak > 0 {
		floats.Scale(target/peak, out)
	}
	return &Clip{samples: out, rate: c.rate}, nil
}
