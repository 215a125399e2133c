// Command doppler-render renders a scripted fly-by to a stereo WAV file.
//
// Usage:
//
//	doppler-render -o flyby.wav
//	doppler-render -sources 3 -speed 40 -duration 20s -o traffic.wav
//	doppler-render -clip engine.wav -falloff -bounces 1 -o engine_flyby.wav
//
// Without -clip every source plays a sine tone. The output is what a device
// would have played, including the initial buffering silence.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	doppler "github.com/tphakala/go-audio-doppler"
	"github.com/tphakala/go-audio-doppler/internal/scene"
)

const (
	stereoChannels = 2
	wavFormatPCM   = 1

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// Extra tone length beyond the farthest point of the scene
	clipMarginSeconds = 0.5

	// Peak level for -normalize
	normalizePeak = 0.9

	// Verbose progress cadence in simulation time
	progressInterval = 5 * time.Second
)

// CLI defaults
const (
	defaultDuration     = 10 * time.Second
	defaultSources      = 1
	defaultSpeed        = 30.0
	defaultPassDistance = 5.0
	defaultHalfLength   = 150.0
	defaultBitDepth     = 16
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outputPath := flag.String("o", "flyby.wav", "Output WAV file")
	duration := flag.Duration("duration", defaultDuration, "Length of the scene")
	sources := flag.Int("sources", defaultSources, "Number of sources, on alternating sides")
	speed := flag.Float64("speed", defaultSpeed, "Source speed in m/s")
	pass := flag.Float64("pass", defaultPassDistance, "Closest pass distance in m")
	halfLength := flag.Float64("length", defaultHalfLength, "Distance each source travels either side of the listener, in m")
	turn := flag.Float64("turn", 0, "Listener turn rate in degrees per second")
	clipPath := flag.String("clip", "", "Mono or stereo PCM WAV file the sources play (default: sine tone)")
	frequency := flag.Float64("freq", doppler.DefaultToneFrequency, "Tone frequency in Hz when no clip is given")
	normalize := flag.Bool("normalize", false, "Normalize the clip peak")
	rate := flag.Int("rate", doppler.DefaultSampleRate, "Output sample rate in Hz")
	bits := flag.Int("bits", defaultBitDepth, "Output bit depth: 16, 24 or 32")
	gain := flag.Float64("gain", doppler.DefaultGain, "Master gain")
	soundSpeed := flag.Float64("sound-speed", doppler.DefaultSoundSpeed, "Speed of sound in m/s")
	falloff := flag.Bool("falloff", false, "Attenuate sources by distance")
	bounces := flag.Int("bounces", 0, "Wall bounces for the distance falloff")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("unexpected arguments: %v", flag.Args())
	}

	sc, err := scene.FlyBy(*sources, *speed, *pass, *halfLength)
	if err != nil {
		return err
	}
	sc.SetTurnRate(*turn)

	cfg := doppler.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.Gain = *gain
	cfg.SoundSpeed = *soundSpeed
	if *falloff {
		cfg.Falloff = doppler.DefaultFalloff()
		cfg.Falloff.Bounces = *bounces
	}

	e, err := doppler.New(cfg)
	if err != nil {
		return err
	}

	reach := sc.MaxDistance() / cfg.SoundSpeed
	c, err := loadClip(*clipPath, *frequency, reach, cfg.SampleRate, cfg.SoundSpeed, *normalize)
	if err != nil {
		return err
	}
	for _, lane := range sc.Lanes() {
		if err := e.AddSource(lane.ID, c); err != nil {
			return err
		}
	}

	if *verbose {
		log.Printf("Output: %s (%d Hz, %d-bit stereo)", *outputPath, cfg.SampleRate, *bits)
		log.Printf("Scene: %d source(s) at %.1f m/s, passing at %.1f m", sc.Len(), *speed, *pass)
		log.Printf("Clip: %.2fs, reaches %.0f m", c.Duration(), c.Duration()*cfg.SoundSpeed)
		log.Printf("Tick: %v (%d frames)", cfg.TickDuration, cfg.FramesPerTick())
	}

	out, err := createWAVOutput(*outputPath, cfg.SampleRate, *bits)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := render(e, sc.World(), *duration, out, *verbose); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	stats := e.Stats()
	fmt.Printf("Rendered %s\n", filepath.Base(*outputPath))
	fmt.Printf("  %d ticks, %d frames (%.2fs)\n", stats.Ticks, out.frames, float64(out.frames)/float64(cfg.SampleRate))
	fmt.Printf("  %d silent frames, %d muted source-ticks\n", stats.SilentFrames, stats.Unreachable+stats.Inaudible)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n", elapsed.Seconds(), duration.Seconds()/elapsed.Seconds())

	return nil
}
