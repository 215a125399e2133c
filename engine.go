package doppler

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/tphakala/go-audio-doppler/internal/clip"
	"github.com/tphakala/go-audio-doppler/internal/mix"
	"github.com/tphakala/go-audio-doppler/internal/queue"
	"github.com/tphakala/go-audio-doppler/internal/simdops"
)

// Engine connects the simulation tick to the audio callback.
//
// Tick, Run and AddSource belong to one producer goroutine. Fill and Read
// belong to one consumer goroutine, typically the audio device. The two sides
// may run concurrently and only share the transfer queue.
type Engine struct {
	cfg   Config
	mixer *mix.Mixer
	queue *queue.Queue[float32]
	ops   *simdops.Ops[float32]
	gain  float32

	block   []float32 // producer side, one tick
	scratch []float32 // consumer side, used by Read

	paused atomic.Bool
	stats  counters
}

type counters struct {
	ticks        atomic.Uint64
	framesQueued atomic.Uint64
	framesPlayed atomic.Uint64
	silentFrames atomic.Uint64
	underruns    atomic.Uint64
	unreachable  atomic.Uint64
	inaudible    atomic.Uint64
}

// Stats is a snapshot of engine counters.
type Stats struct {
	// Ticks is the number of ticks rendered. Paused ticks are not counted.
	Ticks uint64

	// FramesQueued is the number of frames handed to the transfer queue.
	FramesQueued uint64

	// FramesPlayed is the number of frames delivered from the queue.
	FramesPlayed uint64

	// SilentFrames is the number of frames zero-filled on the output side,
	// while paused, buffering or starved.
	SilentFrames uint64

	// Underruns counts output requests that were not filled entirely from the
	// queue.
	Underruns uint64

	// Unreachable counts source-ticks muted because the source was farther
	// away than its clip can express.
	Unreachable uint64

	// Inaudible counts source-ticks skipped by the falloff threshold.
	Inaudible uint64

	// Buffered is the current queue occupancy in frames.
	Buffered int
}

// New creates an engine. Configuration errors, including an unsupported
// channel layout, are reported here before any tick runs.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Falloff != nil {
		falloff := *cfg.Falloff
		cfg.Falloff = &falloff
	}

	mixer, err := mix.New(cfg.mixerConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	q, err := queue.New[float32](cfg.HighWatermark)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Engine{
		cfg:     cfg,
		mixer:   mixer,
		queue:   q,
		ops:     simdops.Float32Ops(),
		gain:    float32(cfg.Gain),
		block:   make([]float32, stereoChannels*cfg.FramesPerTick()),
		scratch: make([]float32, stereoChannels*readChunkFrames),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// AddSource registers a source and the clip it plays. Clips recorded at a
// different rate are converted to the output rate first.
func (e *Engine) AddSource(id SourceID, c *Clip) error {
	if c == nil {
		return fmt.Errorf("source %q: %w", id, clip.ErrEmptyClip)
	}

	if c.SampleRate() != e.cfg.SampleRate {
		converted, err := c.Resample(e.cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("source %q: %w", id, err)
		}
		c = converted
	}

	return e.mixer.Add(id, c)
}

// RemoveSource unregisters a source. It reports whether the source existed.
func (e *Engine) RemoveSource(id SourceID) bool {
	return e.mixer.Remove(id)
}

// SourceState returns where a source was last heard: its clip index and
// distance. ok is false for unknown sources and for sources not yet rendered.
func (e *Engine) SourceState(id SourceID) (mappedSample int, distance float64, ok bool) {
	s, found := e.mixer.State(id)
	if !found || !s.Initialized() {
		return 0, 0, false
	}
	return s.LastMappedSample, s.LastDistance, true
}

// Tick renders one simulation step and queues it for playback. While paused
// it does nothing and source state stays frozen.
//
// Sources out of reach or below the falloff threshold are muted for the tick;
// only unregistered emitters are an error.
func (e *Engine) Tick(listener Listener, emitters []Emitter) error {
	if e.paused.Load() {
		return nil
	}

	mixed, report, err := e.mixer.Render(listener, emitters)
	if err != nil {
		return err
	}

	for i, v := range mixed {
		e.block[i] = float32(v)
	}
	if err := e.queue.Enqueue(e.block); err != nil {
		return err
	}

	e.stats.ticks.Add(1)
	e.stats.framesQueued.Add(uint64(len(e.block) / stereoChannels))
	e.stats.unreachable.Add(uint64(report.Unreachable))
	e.stats.inaudible.Add(uint64(report.Inaudible))
	return nil
}

// World supplies listener and emitter state for the tick starting at
// simulation time t.
type World func(t time.Duration) (Listener, []Emitter)

// Run ticks the engine at the configured rate until ctx is cancelled. World is
// not consulted while the engine is paused, and paused ticks do not advance
// simulation time. Run returns nil on cancellation and the first Tick error
// otherwise.
func (e *Engine) Run(ctx context.Context, world World) error {
	ticker := time.NewTicker(e.cfg.TickDuration)
	defer ticker.Stop()

	var simTime time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if e.paused.Load() {
				continue
			}
			listener, emitters := world(simTime)
			if err := e.Tick(listener, emitters); err != nil {
				return err
			}
			simTime += e.cfg.TickDuration
		}
	}
}

// Fill writes interleaved stereo output into dst and returns the number of
// frames taken from the queue. Everything else in dst is silence: all of it
// while paused or buffering, the tail when the queue runs short.
//
// Fill does not allocate.
func (e *Engine) Fill(dst []float32) int {
	requested := len(dst) / stereoChannels

	if e.paused.Load() {
		clear(dst)
		e.stats.silentFrames.Add(uint64(requested))
		return 0
	}

	frames := e.queue.Dequeue(dst)
	if frames > 0 {
		played := dst[:frames*stereoChannels]
		e.ops.Scale(played, played, e.gain)
		e.stats.framesPlayed.Add(uint64(frames))
	}

	if frames < requested {
		e.stats.silentFrames.Add(uint64(requested - frames))
		e.stats.underruns.Add(1)
	}
	return frames
}

// Read implements io.Reader for audio devices that pull little-endian float32
// stereo. It always fills whole frames and never blocks; silence stands in for
// audio that is not ready yet.
func (e *Engine) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.ErrShortBuffer
	}

	out := p
	for remaining := frames; remaining > 0; {
		chunk := min(remaining, readChunkFrames)
		samples := e.scratch[:chunk*stereoChannels]
		e.Fill(samples)

		for i, v := range samples {
			binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(v))
		}
		out = out[len(samples)*bytesPerSample:]
		remaining -= chunk
	}

	return frames * bytesPerFrame, nil
}

// Pause stops both sides: ticks render nothing and output is silent.
func (e *Engine) Pause() {
	e.paused.Store(true)
}

// Resume undoes Pause. Sources continue from where they were last heard.
func (e *Engine) Resume() {
	e.paused.Store(false)
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// Buffered returns the number of frames waiting in the transfer queue.
func (e *Engine) Buffered() int {
	return e.queue.Frames()
}

// Playing reports whether the transfer queue currently releases audio.
func (e *Engine) Playing() bool {
	return e.queue.CanRead()
}

// Latency returns the playback delay of the audio currently queued.
func (e *Engine) Latency() time.Duration {
	return time.Duration(e.queue.Frames()) * time.Second / time.Duration(e.cfg.SampleRate)
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:        e.stats.ticks.Load(),
		FramesQueued: e.stats.framesQueued.Load(),
		FramesPlayed: e.stats.framesPlayed.Load(),
		SilentFrames: e.stats.silentFrames.Load(),
		Underruns:    e.stats.underruns.Load(),
		Unreachable:  e.stats.unreachable.Load(),
		Inaudible:    e.stats.inaudible.Load(),
		Buffered:     e.queue.Frames(),
	}
}
