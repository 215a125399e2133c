// Package mix renders one tick of interleaved stereo audio from every active
// source.
//
// Each source keeps a RuntimeState: the clip index and distance it was last
// heard at. A tick maps the current distance to a clip index, takes the
// fragment swept since the last tick, resamples it to the tick length at the
// relative velocity, applies the per-ear directivity gains and adds the result
// into the block. State only advances for sources that were actually rendered,
// so a source that was inactive, inaudible or out of reach resumes from where
// it was last heard.
package mix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tphakala/go-audio-doppler/internal/clip"
	"github.com/tphakala/go-audio-doppler/internal/directivity"
	"github.com/tphakala/go-audio-doppler/internal/engine"
	"github.com/tphakala/go-audio-doppler/internal/simdops"
	"github.com/tphakala/go-audio-doppler/internal/spatial"
)

// Channels is the number of interleaved output channels.
const Channels = 2

var (
	// ErrUnknownSource indicates an emitter whose ID was never registered.
	ErrUnknownSource = errors.New("unknown source")

	// ErrDuplicateSource indicates a second registration under the same ID.
	ErrDuplicateSource = errors.New("source already registered")
)

// SourceID identifies a sound source across ticks.
type SourceID string

// Listener is the receiving end, supplied each tick.
type Listener struct {
	Position r3.Vec
	Forward  r3.Vec
}

// Emitter is a source's per-tick input.
type Emitter struct {
	ID       SourceID
	Position r3.Vec
	Active   bool
}

// RuntimeState tracks where a source was last heard.
type RuntimeState struct {
	LastMappedSample int
	LastDistance     float64

	initialized bool
}

// Initialized reports whether the source has been rendered at least once.
func (s RuntimeState) Initialized() bool {
	return s.initialized
}

// Config holds the mixer parameters. All fields are required except Falloff
// and Directivity.
type Config struct {
	SampleRate    int
	FramesPerTick int
	TickSeconds   float64
	SoundSpeed    float64
	Epsilon       float64

	// Falloff attenuates by distance. Nil disables the stage.
	Falloff engine.Falloff

	// MinAudible is the falloff gain below which a source is skipped.
	MinAudible float64

	// Directivity defaults to the measured left-ear pattern.
	Directivity *directivity.Table
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	case c.FramesPerTick <= 0:
		return fmt.Errorf("frames per tick must be positive, got %d", c.FramesPerTick)
	case !(c.TickSeconds > 0):
		return fmt.Errorf("tick duration must be positive, got %v", c.TickSeconds)
	case !(c.SoundSpeed > 0) || math.IsInf(c.SoundSpeed, 0):
		return fmt.Errorf("sound speed must be positive and finite, got %v", c.SoundSpeed)
	case c.Epsilon < 0:
		return fmt.Errorf("epsilon must not be negative, got %v", c.Epsilon)
	}
	return nil
}

// Report counts what happened to each emitter during one Render.
type Report struct {
	Rendered    int
	Inactive    int
	Inaudible   int
	Unreachable int
}

// Skipped returns the number of active sources that produced no sound.
func (r Report) Skipped() int {
	return r.Inaudible + r.Unreachable
}

type voice struct {
	clip  *clip.Clip
	state RuntimeState
}

// Mixer renders ticks. It is not safe for concurrent use; one producer
// goroutine owns it.
type Mixer struct {
	cfg    Config
	table  *directivity.Table
	ops    *simdops.Ops[float64]
	voices map[SourceID]*voice

	block    []float64 // Channels * FramesPerTick
	stereo   []float64 // Channels * FramesPerTick
	mono     []float64 // FramesPerTick
	left     []float64
	right    []float64
	fragment []float64
}

// New creates a mixer with preallocated tick buffers.
func New(cfg Config) (*Mixer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table := cfg.Directivity
	if table == nil {
		table = &directivity.LeftEarPolarPattern
	}

	n := cfg.FramesPerTick
	return &Mixer{
		cfg:    cfg,
		table:  table,
		ops:    simdops.Float64Ops(),
		voices: make(map[SourceID]*voice),
		block:  make([]float64, Channels*n),
		stereo: make([]float64, Channels*n),
		mono:   make([]float64, n),
		left:   make([]float64, n),
		right:  make([]float64, n),
	}, nil
}

// Add registers a source and the clip it plays.
func (m *Mixer) Add(id SourceID, c *clip.Clip) error {
	if c == nil {
		return fmt.Errorf("source %q: %w", id, clip.ErrEmptyClip)
	}
	if _, ok := m.voices[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, id)
	}
	m.voices[id] = &voice{clip: c}
	return nil
}

// Remove unregisters a source. It reports whether the source existed.
func (m *Mixer) Remove(id SourceID) bool {
	if _, ok := m.voices[id]; !ok {
		return false
	}
	delete(m.voices, id)
	return true
}

// Sources returns the number of registered sources.
func (m *Mixer) Sources() int {
	return len(m.voices)
}

// State returns the runtime state of a source.
func (m *Mixer) State(id SourceID) (RuntimeState, bool) {
	v, ok := m.voices[id]
	if !ok {
		return RuntimeState{}, false
	}
	return v.state, true
}

// FramesPerTick returns the number of frames in each rendered block.
func (m *Mixer) FramesPerTick() int {
	return m.cfg.FramesPerTick
}

// Render mixes one tick. The returned block holds FramesPerTick interleaved
// stereo frames and is reused by the next call.
//
// Every emitter must be registered; otherwise Render fails with
// ErrUnknownSource before touching any state.
func (m *Mixer) Render(listener Listener, emitters []Emitter) ([]float64, Report, error) {
	var report Report

	for i := range emitters {
		if _, ok := m.voices[emitters[i].ID]; !ok {
			return nil, report, fmt.Errorf("%w: %q", ErrUnknownSource, emitters[i].ID)
		}
	}

	clear(m.block)

	for i := range emitters {
		e := &emitters[i]
		if !e.Active {
			report.Inactive++
			continue
		}

		switch m.renderVoice(m.voices[e.ID], listener, e) {
		case outcomeRendered:
			report.Rendered++
		case outcomeInaudible:
			report.Inaudible++
		case outcomeUnreachable:
			report.Unreachable++
		}
	}

	return m.block, report, nil
}

type outcome int

const (
	outcomeRendered outcome = iota
	outcomeInaudible
	outcomeUnreachable
)

func (m *Mixer) renderVoice(v *voice, listener Listener, e *Emitter) outcome {
	distance := spatial.Distance(listener.Position, e.Position)

	attenuation := 1.0
	if m.cfg.Falloff != nil {
		attenuation = m.cfg.Falloff.Attenuation(distance)
		if !engine.Audible(attenuation, m.cfg.MinAudible) {
			return outcomeInaudible
		}
	}

	length := v.clip.Len()
	current := engine.MapDistanceToSample(distance, length, m.cfg.SoundSpeed, m.cfg.SampleRate)
	if !engine.Reachable(current, length) {
		return outcomeUnreachable
	}

	// The first rendered tick starts from the current geometry.
	if !v.state.initialized {
		v.state = RuntimeState{LastMappedSample: current, LastDistance: distance, initialized: true}
	}

	fragment, err := v.clip.FragmentInto(m.fragment, v.state.LastMappedSample, current)
	if err != nil {
		return outcomeUnreachable
	}
	m.fragment = fragment

	hold, err := v.clip.Sample(current)
	if err != nil {
		return outcomeUnreachable
	}

	rv := engine.RelativeVelocity(distance, v.state.LastDistance, m.cfg.TickSeconds, m.cfg.SoundSpeed)
	engine.Resample(m.mono, fragment, engine.SnapVelocity(rv, m.cfg.Epsilon), hold)

	left, right := m.table.Gains(spatial.Bearing(listener.Position, listener.Forward, e.Position))
	m.ops.Scale(m.left, m.mono, left*attenuation)
	m.ops.Scale(m.right, m.mono, right*attenuation)
	m.ops.Interleave2(m.stereo, m.left, m.right)
	floats.Add(m.block, m.stereo)

	v.state.LastMappedSample = current
	v.state.LastDistance = distance
	return outcomeRendered
}
