// Package clip holds the immutable mono sample buffers that sound sources play from.
//
// A clip is read as a countdown of propagation delay: index Len() corresponds to
// a source at zero distance and lower indices to sound emitted further in the past.
// Indices passed to Sample and Fragment are boundaries on the sample grid, valid
// in the closed range [0, Len()].
package clip

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange indicates a sample index outside [0, Len()].
	// A negative index means the listener is farther away than the clip can express.
	ErrOutOfRange = errors.New("clip index out of range")

	// ErrEmptyClip indicates a clip with no samples.
	ErrEmptyClip = errors.New("clip has no samples")
)

// Clip is an immutable mono PCM buffer.
// It is safe for concurrent readers.
type Clip struct {
	samples []float64
	rate    int
}

// New creates a clip from mono samples recorded at sampleRate.
// The samples are copied; later changes to the input slice do not affect the clip.
func New(samples []float64, sampleRate int) (*Clip, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyClip
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid clip sample rate: %d", sampleRate)
	}

	data := make([]float64, len(samples))
	copy(data, samples)

	return &Clip{samples: data, rate: sampleRate}, nil
}

// Len returns the clip length in samples.
func (c *Clip) Len() int {
	return len(c.samples)
}

// SampleRate returns the rate the clip is stored at.
func (c *Clip) SampleRate() int {
	return c.rate
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	return float64(len(c.samples)) / float64(c.rate)
}

// Sample returns the sample at index. Index Len() is valid and reads the
// final sample.
func (c *Clip) Sample(index int) (float64, error) {
	if err := c.check(index); err != nil {
		return 0, err
	}
	return c.samples[c.clamp(index)], nil
}

// Fragment returns the |end-start| samples swept when moving from start to end.
// A forward sweep (end > start) reads samples [start, end) in order; a backward
// sweep reads the same span in reverse, so Fragment(b, a) is Fragment(a, b)
// reversed.
func (c *Clip) Fragment(start, end int) ([]float64, error) {
	if err := c.checkPair(start, end); err != nil {
		return nil, err
	}
	dst := make([]float64, absInt(end-start))
	c.fill(dst, start, end)
	return dst, nil
}

// FragmentInto is like Fragment but writes into dst, growing it only when its
// capacity is too small. The returned slice has length |end-start|.
func (c *Clip) FragmentInto(dst []float64, start, end int) ([]float64, error) {
	if err := c.checkPair(start, end); err != nil {
		return dst[:0], err
	}

	n := absInt(end - start)
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	c.fill(dst, start, end)
	return dst, nil
}

// Samples returns a copy of the clip data.
func (c *Clip) Samples() []float64 {
	out := make([]float64, len(c.samples))
	copy(out, c.samples)
	return out
}

func (c *Clip) fill(dst []float64, start, end int) {
	if end >= start {
		for i := range dst {
			dst[i] = c.samples[c.clamp(start+i)]
		}
		return
	}
	for i := range dst {
		dst[i] = c.samples[c.clamp(start-1-i)]
	}
}

func (c *Clip) check(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: index %d is negative, source is beyond the clip's reach", ErrOutOfRange, index)
	}
	if index > len(c.samples) {
		return fmt.Errorf("%w: index %d exceeds clip length %d", ErrOutOfRange, index, len(c.samples))
	}
	return nil
}

func (c *Clip) checkPair(start, end int) error {
	if err := c.check(start); err != nil {
		return err
	}
	return c.check(end)
}

// clamp keeps reads inside [0, Len()).
func (c *Clip) clamp(index int) int {
	if index >= len(c.samples) {
		return len(c.samples) - 1
	}
	if index < 0 {
		return 0
	}
	return index
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
