package doppler

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tphakala/go-audio-doppler/internal/directivity"
	"github.com/tphakala/go-audio-doppler/internal/testutil"
)

const testFrames = 960 // 20 ms at 48 kHz

// testEngine returns an engine that starts playing after two ticks.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HighWatermark = testFrames
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func rampClip(t *testing.T, n int, step float64) *Clip {
	t.Helper()
	c, err := NewClip(testutil.Ramp(n, step), DefaultSampleRate)
	require.NoError(t, err)
	return c
}

var ahead = Listener{Forward: r3.Vec{Z: 1}}

func TestNew_UnsupportedLayout(t *testing.T) {
	for _, channels := range []int{0, 1, 6} {
		cfg := DefaultConfig()
		cfg.Channels = channels
		_, err := New(cfg)
		require.ErrorIs(t, err, ErrUnsupportedLayout, "channels=%d", channels)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero tick", func(c *Config) { c.TickDuration = 0 }},
		{"tick shorter than a frame", func(c *Config) { c.TickDuration = time.Microsecond }},
		{"zero sound speed", func(c *Config) { c.SoundSpeed = 0 }},
		{"near-zero sound speed", func(c *Config) { c.SoundSpeed = 1e-9 }},
		{"NaN sound speed", func(c *Config) { c.SoundSpeed = math.NaN() }},
		{"negative gain", func(c *Config) { c.Gain = -1 }},
		{"NaN gain", func(c *Config) { c.Gain = math.NaN() }},
		{"zero watermark", func(c *Config) { c.HighWatermark = 0 }},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1e-3 }},
		{"zero falloff reference", func(c *Config) { c.Falloff = &FalloffSpec{MinAudible: 0.05} }},
		{"negative bounces", func(c *Config) {
			c.Falloff = DefaultFalloff()
			c.Falloff.Bounces = -1
		}},
		{"min audible above one", func(c *Config) {
			c.Falloff = DefaultFalloff()
			c.Falloff.MinAudible = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			_, err := New(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, testFrames, cfg.FramesPerTick())

	cfg.Falloff = DefaultFalloff()
	require.NoError(t, cfg.Validate())
}

func TestEngine_StationarySourceEndToEnd(t *testing.T) {
	const (
		length   = 48000
		distance = 10.0
	)
	e := testEngine(t)
	c := rampClip(t, length, 1e-5)
	require.NoError(t, e.AddSource("horn", c))

	emitters := []Emitter{{ID: "horn", Position: r3.Vec{X: distance}, Active: true}}
	require.NoError(t, e.Tick(ahead, emitters))
	require.NoError(t, e.Tick(ahead, emitters))
	require.True(t, e.Playing())

	index := length - int(math.Round(distance/DefaultSoundSpeed*DefaultSampleRate))
	sample, err := c.Sample(index)
	require.NoError(t, err)
	left, right := directivity.LeftEarPolarPattern.Gains(90)

	out := make([]float32, 2*testFrames)
	assert.Equal(t, testFrames, e.Fill(out))
	testutil.AssertConstant(t, testutil.Channel(out, 0), float32(DefaultGain*left*sample), testutil.Float32Tolerance)
	testutil.AssertConstant(t, testutil.Channel(out, 1), float32(DefaultGain*right*sample), testutil.Float32Tolerance)

	mapped, d, ok := e.SourceState("horn")
	require.True(t, ok)
	assert.Equal(t, index, mapped)
	assert.InDelta(t, distance, d, 1e-12)
}

func TestEngine_SilentUntilWatermark(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))
	emitters := []Emitter{{ID: "a", Position: r3.Vec{Z: 5}, Active: true}}

	require.NoError(t, e.Tick(ahead, emitters))
	assert.False(t, e.Playing(), "occupancy equal to the watermark does not start playback")

	out := make([]float32, 2*testFrames)
	for i := range out {
		out[i] = 1
	}
	assert.Equal(t, 0, e.Fill(out))
	testutil.AssertConstant(t, out, 0, 0)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Ticks)
	assert.Equal(t, uint64(testFrames), stats.FramesQueued)
	assert.Equal(t, uint64(testFrames), stats.SilentFrames)
	assert.Equal(t, uint64(1), stats.Underruns)
	assert.Equal(t, testFrames, stats.Buffered)
	assert.Equal(t, 20*time.Millisecond, e.Latency())
}

func TestEngine_PartialUnderrun(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))
	emitters := []Emitter{{ID: "a", Position: r3.Vec{Z: 5}, Active: true}}
	require.NoError(t, e.Tick(ahead, emitters))
	require.NoError(t, e.Tick(ahead, emitters))

	out := make([]float32, 2*3*testFrames)
	assert.Equal(t, 2*testFrames, e.Fill(out))
	testutil.AssertConstant(t, out[2*2*testFrames:], 0, 0)
	assert.NotZero(t, out[0])

	stats := e.Stats()
	assert.Equal(t, uint64(2*testFrames), stats.FramesPlayed)
	assert.Equal(t, uint64(testFrames), stats.SilentFrames)
	assert.Equal(t, uint64(1), stats.Underruns)
}

func TestEngine_PauseFreezesBothSides(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))

	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 20}, Active: true}}))
	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 19}, Active: true}}))
	mapped, distance, ok := e.SourceState("a")
	require.True(t, ok)

	e.Pause()
	assert.True(t, e.Paused())

	// Motion while paused is ignored.
	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 2}, Active: true}}))
	assert.Equal(t, uint64(2), e.Stats().Ticks)
	assert.Equal(t, 2*testFrames, e.Buffered())

	out := make([]float32, 2*testFrames)
	assert.Equal(t, 0, e.Fill(out))
	testutil.AssertConstant(t, out, 0, 0)
	assert.Equal(t, 2*testFrames, e.Buffered(), "paused output must not drain the queue")

	m2, d2, _ := e.SourceState("a")
	assert.Equal(t, mapped, m2)
	assert.InDelta(t, distance, d2, 0)

	e.Resume()
	assert.False(t, e.Paused())
	assert.Equal(t, testFrames, e.Fill(out))
}

func TestEngine_UnknownSource(t *testing.T) {
	e := testEngine(t)
	err := e.Tick(ahead, []Emitter{{ID: "ghost", Active: true}})
	require.ErrorIs(t, err, ErrUnknownSource)
	assert.Zero(t, e.Stats().Ticks)

	require.NoError(t, e.AddSource("a", rampClip(t, 100, 1)))
	require.ErrorIs(t, e.AddSource("a", rampClip(t, 100, 1)), ErrDuplicateSource)
	require.ErrorIs(t, e.AddSource("b", nil), ErrEmptyClip)

	assert.True(t, e.RemoveSource("a"))
	_, _, ok := e.SourceState("a")
	assert.False(t, ok)
}

func TestEngine_UnreachableSourceIsCounted(t *testing.T) {
	e := testEngine(t)
	// 100 ms of clip reaches 34.3 m.
	require.NoError(t, e.AddSource("a", rampClip(t, 4800, 1e-5)))

	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 100}, Active: true}}))
	assert.Equal(t, uint64(1), e.Stats().Unreachable)
	_, _, ok := e.SourceState("a")
	assert.False(t, ok)
}

func TestEngine_FalloffSkipsInaudibleSources(t *testing.T) {
	e, err := NewWithFalloff(0)
	require.NoError(t, err)
	require.NoError(t, e.AddSource("a", rampClip(t, 96000, 1e-5)))

	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 250}, Active: true}}))
	assert.Equal(t, uint64(1), e.Stats().Inaudible)
}

func TestEngine_AddSourceConvertsRate(t *testing.T) {
	e := testEngine(t)
	tone, err := SineClip(DefaultToneFrequency, 1, 24000)
	require.NoError(t, err)
	require.NoError(t, e.AddSource("tone", tone))

	require.NoError(t, e.Tick(ahead, []Emitter{{ID: "tone", Position: r3.Vec{Z: 3}, Active: true}}))
	mapped, _, ok := e.SourceState("tone")
	require.True(t, ok)
	// One second at the output rate, less the 3 m delay.
	assert.InDelta(t, 48000-420, mapped, 48000*0.1)
}

func TestEngine_ReadEncodesFloat32LE(t *testing.T) {
	a := testEngine(t)
	b := testEngine(t)
	for _, e := range []*Engine{a, b} {
		require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))
		for z := 30.0; z > 25; z-- {
			require.NoError(t, e.Tick(ahead, []Emitter{{ID: "a", Position: r3.Vec{X: 2, Z: z}, Active: true}}))
		}
	}

	// Larger than one internal chunk to cover the chunked conversion.
	const frames = 3000
	want := make([]float32, 2*frames)
	a.Fill(want)

	p := make([]byte, frames*bytesPerFrame)
	n, err := b.Read(p)
	require.NoError(t, err)
	require.Equal(t, len(p), n)

	for i := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
		require.InDelta(t, want[i], got, 0, "sample %d", i)
	}
}

func TestEngine_ReadWholeFramesOnly(t *testing.T) {
	e := testEngine(t)

	n, err := e.Read(make([]byte, bytesPerFrame+3))
	require.NoError(t, err)
	assert.Equal(t, bytesPerFrame, n)

	n, err = e.Read(make([]byte, 3))
	require.ErrorIs(t, err, io.ErrShortBuffer)
	assert.Zero(t, n)

	n, err = e.Read(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_Run(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickDuration = time.Millisecond
	e, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))

	var last time.Duration
	world := func(simTime time.Duration) (Listener, []Emitter) {
		last = simTime
		return ahead, []Emitter{{ID: "a", Position: r3.Vec{Z: 10}, Active: true}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx, world))

	ticks := e.Stats().Ticks
	require.Positive(t, ticks)
	assert.Equal(t, time.Duration(ticks-1)*time.Millisecond, last)
}

func TestEngine_RunStopsOnTickError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickDuration = time.Millisecond
	e, err := New(cfg)
	require.NoError(t, err)

	world := func(time.Duration) (Listener, []Emitter) {
		return ahead, []Emitter{{ID: "missing", Active: true}}
	}
	err = e.Run(context.Background(), world)
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestEngine_FillDoesNotAllocate(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.AddSource("a", rampClip(t, 48000, 1e-5)))
	emitters := []Emitter{{ID: "a", Position: r3.Vec{Z: 5}, Active: true}}
	for range 4 {
		require.NoError(t, e.Tick(ahead, emitters))
	}

	out := make([]float32, 256)
	p := make([]byte, 1024)
	allocs := testing.AllocsPerRun(20, func() {
		e.Fill(out)
		_, _ = e.Read(p)
	})
	assert.Zero(t, allocs)
}
