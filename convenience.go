package doppler

import (
	"io"

	"github.com/tphakala/go-audio-doppler/internal/clip"
)

// Clip is an immutable mono recording a source plays from.
type Clip = clip.Clip

// Clip errors.
var (
	// ErrOutOfRange indicates a clip index outside [0, Len()].
	ErrOutOfRange = clip.ErrOutOfRange

	// ErrEmptyClip indicates a clip with no samples.
	ErrEmptyClip = clip.ErrEmptyClip
)

// Tone defaults for SineClip.
const (
	// DefaultToneFrequency is concert A.
	DefaultToneFrequency = clip.DefaultToneFrequency

	// DefaultToneAmplitude leaves headroom for several sources.
	DefaultToneAmplitude = clip.DefaultToneAmplitude
)

// NewClip creates a clip from mono samples. The samples are copied.
func NewClip(samples []float64, sampleRate int) (*Clip, error) {
	return clip.New(samples, sampleRate)
}

// LoadClip reads an integer PCM WAV file, downmixes it to mono and converts
// it to sampleRate. Pass sampleRate <= 0 to keep the file's rate.
func LoadClip(path string, sampleRate int) (*Clip, error) {
	return clip.LoadWAV(path, sampleRate)
}

// DecodeClip decodes integer PCM WAV data into a mono clip at its own rate.
func DecodeClip(r io.ReadSeeker) (*Clip, error) {
	return clip.DecodeWAV(r)
}

// SineClip generates a test tone at DefaultToneAmplitude. A clip of s seconds
// lets a source be heard up to s * SoundSpeed away.
func SineClip(frequency, seconds float64, sampleRate int) (*Clip, error) {
	return clip.Sine(frequency, DefaultToneAmplitude, seconds, sampleRate)
}

// NewDefault creates an engine with DefaultConfig.
func NewDefault() (*Engine, error) {
	return New(DefaultConfig())
}

// NewWithFalloff creates an engine with DefaultConfig and the default
// distance falloff over the given number of wall bounces.
func NewWithFalloff(bounces int) (*Engine, error) {
	cfg := DefaultConfig()
	cfg.Falloff = DefaultFalloff()
	cfg.Falloff.Bounces = bounces
	return New(cfg)
}
