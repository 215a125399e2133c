package doppler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tphakala/go-audio-doppler/internal/engine"
	"github.com/tphakala/go-audio-doppler/internal/mix"
)

// SourceID identifies a sound source across ticks.
type SourceID = mix.SourceID

// Listener is the receiving end: a world position and a forward direction.
// Only the horizontal (X, Z) components are used.
type Listener = mix.Listener

// Emitter is the per-tick state of a registered source.
type Emitter = mix.Emitter

// Config holds engine configuration. It is copied by New and cannot change
// afterwards.
type Config struct {
	// SampleRate is the output device rate in Hz. Clips are converted to it
	// when registered.
	SampleRate int

	// Channels is the output channel count. Only stereo is supported.
	Channels int

	// TickDuration is the simulation step. Each tick renders
	// TickDuration * SampleRate frames.
	TickDuration time.Duration

	// SoundSpeed is the propagation speed in distance units per second.
	SoundSpeed float64

	// Gain is the master gain applied on the output side. Output is not
	// clipped.
	Gain float64

	// HighWatermark is the queue occupancy, in frames, above which playback
	// starts. Playback stops again below HighWatermark/2.
	HighWatermark int

	// Epsilon is the relative velocity below which a source is treated as
	// standing still.
	Epsilon float64

	// Falloff enables distance attenuation. Nil disables it.
	Falloff *FalloffSpec
}

// FalloffSpec configures distance attenuation:
//
//	gain = clamp(Reference/distance - BounceLoss*Bounces, 0, 1)
//
// Sources whose gain drops below MinAudible are skipped for the tick.
type FalloffSpec struct {
	Reference  float64
	BounceLoss float64
	Bounces    int
	MinAudible float64
}

// DefaultFalloff returns the inverse-distance falloff with no wall bounces.
func DefaultFalloff() *FalloffSpec {
	return &FalloffSpec{
		Reference:  engine.DefaultFalloffReference,
		BounceLoss: engine.DefaultFalloffBounceLoss,
		MinAudible: engine.DefaultMinAudible,
	}
}

// DefaultConfig returns the stock configuration without falloff.
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		Channels:      stereoChannels,
		TickDuration:  DefaultTickDuration,
		SoundSpeed:    DefaultSoundSpeed,
		Gain:          DefaultGain,
		HighWatermark: DefaultHighWatermark,
		Epsilon:       DefaultEpsilon,
	}
}

// Common errors returned by the engine.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid doppler configuration")

	// ErrUnsupportedLayout indicates an output channel layout other than stereo.
	ErrUnsupportedLayout = errors.New("unsupported channel layout")

	// ErrUnknownSource indicates an emitter that was never registered.
	ErrUnknownSource = mix.ErrUnknownSource

	// ErrDuplicateSource indicates a second registration under the same ID.
	ErrDuplicateSource = mix.ErrDuplicateSource
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Channels != stereoChannels {
		return fmt.Errorf("%w: %d channels, only stereo is supported", ErrUnsupportedLayout, c.Channels)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}

	if c.TickDuration <= 0 {
		return fmt.Errorf("%w: tick duration must be positive", ErrInvalidConfig)
	}

	if engine.SamplesPerTick(c.TickDuration, c.SampleRate) < 1 {
		return fmt.Errorf("%w: tick of %v is shorter than one frame at %d Hz", ErrInvalidConfig, c.TickDuration, c.SampleRate)
	}

	if !(c.SoundSpeed >= minSoundSpeed) || math.IsInf(c.SoundSpeed, 0) {
		return fmt.Errorf("%w: sound speed must be at least %v", ErrInvalidConfig, minSoundSpeed)
	}

	if !(c.Gain >= 0) || math.IsInf(c.Gain, 0) {
		return fmt.Errorf("%w: gain must be finite and non-negative", ErrInvalidConfig)
	}

	if c.HighWatermark < 1 {
		return fmt.Errorf("%w: high watermark must be at least one frame", ErrInvalidConfig)
	}

	if !(c.Epsilon >= 0) {
		return fmt.Errorf("%w: epsilon must not be negative", ErrInvalidConfig)
	}

	if c.Falloff != nil {
		if err := c.Falloff.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks if the falloff specification is valid.
func (f *FalloffSpec) Validate() error {
	if !(f.Reference > 0) || math.IsInf(f.Reference, 0) {
		return fmt.Errorf("%w: falloff reference distance must be positive", ErrInvalidConfig)
	}

	if !(f.BounceLoss >= 0) {
		return fmt.Errorf("%w: bounce loss must not be negative", ErrInvalidConfig)
	}

	if f.Bounces < 0 {
		return fmt.Errorf("%w: bounce count must not be negative", ErrInvalidConfig)
	}

	if !(f.MinAudible >= 0 && f.MinAudible <= 1) {
		return fmt.Errorf("%w: minimum audible gain must be in [0, 1]", ErrInvalidConfig)
	}

	return nil
}

// FramesPerTick returns the number of frames one tick renders.
func (c *Config) FramesPerTick() int {
	return engine.SamplesPerTick(c.TickDuration, c.SampleRate)
}

func (c *Config) mixerConfig() mix.Config {
	mc := mix.Config{
		SampleRate:    c.SampleRate,
		FramesPerTick: c.FramesPerTick(),
		TickSeconds:   c.TickDuration.Seconds(),
		SoundSpeed:    c.SoundSpeed,
		Epsilon:       c.Epsilon,
	}
	if c.Falloff != nil {
		mc.Falloff = engine.InverseDistance{
			Reference:  c.Falloff.Reference,
			BounceLoss: c.Falloff.BounceLoss,
			Bounces:    c.Falloff.Bounces,
		}
		mc.MinAudible = c.Falloff.MinAudible
	}
	return mc
}
