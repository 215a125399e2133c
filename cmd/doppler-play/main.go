// Command doppler-play plays a live fly-by scene through the default audio
// device.
//
// Usage:
//
//	doppler-play
//	doppler-play -sources 3 -speed 40 -turn 10
//	doppler-play -clip engine.wav -falloff -v
//
// Keys (when stdin is a terminal):
//
//	1-9      toggle a source
//	p, space pause or resume
//	q, Esc   quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	doppler "github.com/tphakala/go-audio-doppler"
	"github.com/tphakala/go-audio-doppler/internal/output"
	"github.com/tphakala/go-audio-doppler/internal/scene"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	duration := flag.Duration("duration", 0, "Stop after this long (0 plays until quit)")
	sources := flag.Int("sources", defaultSources, "Number of sources, on alternating sides")
	speed := flag.Float64("speed", defaultSpeed, "Source speed in m/s")
	pass := flag.Float64("pass", defaultPassDistance, "Closest pass distance in m")
	halfLength := flag.Float64("length", defaultHalfLength, "Distance each source travels either side of the listener, in m")
	turn := flag.Float64("turn", 0, "Listener turn rate in degrees per second")
	clipPath := flag.String("clip", "", "Mono or stereo PCM WAV file the sources play (default: sine tone)")
	frequency := flag.Float64("freq", doppler.DefaultToneFrequency, "Tone frequency in Hz when no clip is given")
	normalize := flag.Bool("normalize", false, "Normalize the clip peak")
	rate := flag.Int("rate", doppler.DefaultSampleRate, "Device sample rate in Hz")
	tick := flag.Duration("tick", doppler.DefaultTickDuration, "Simulation tick")
	buffer := flag.Duration("buffer", output.DefaultBufferSize, "Device buffer size")
	gain := flag.Float64("gain", doppler.DefaultGain, "Master gain")
	soundSpeed := flag.Float64("sound-speed", doppler.DefaultSoundSpeed, "Speed of sound in m/s")
	falloff := flag.Bool("falloff", false, "Attenuate sources by distance")
	bounces := flag.Int("bounces", 0, "Wall bounces for the distance falloff")
	verbose := flag.Bool("v", false, "Log engine statistics every second")
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
	cfg.TickDuration = *tick
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

	c, err := sourceClip(*clipPath, *frequency, sc.MaxDistance()/cfg.SoundSpeed, cfg.SampleRate, *normalize)
	if err != nil {
		return err
	}
	for _, lane := range sc.Lanes() {
		if err := e.AddSource(lane.ID, c); err != nil {
			return err
		}
	}

	device, err := output.Open(output.Options{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		BufferSize: *buffer,
	}, e)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var keys <-chan byte
	if kb, err := openKeyboard(); err == nil {
		defer kb.Restore()
		log.SetOutput(crlfWriter{w: os.Stderr})
		defer log.SetOutput(os.Stderr)
		keys = kb.Keys()
		log.Printf("Keys: 1-%d toggle sources, p pauses, q quits", min(sc.Len(), 9))
	} else if *verbose {
		log.Printf("Keyboard disabled: %v", err)
	}

	startup := time.Duration(cfg.HighWatermark) * time.Second / time.Duration(cfg.SampleRate)
	log.Printf("Playing %d source(s) at %d Hz, %v buffering before first sound", sc.Len(), cfg.SampleRate, startup+*buffer)

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run(ctx, sc.World()) }()
	device.Start()

	var report <-chan time.Time
	if *verbose {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		report = ticker.C
	}

	for {
		select {
		case err := <-runErr:
			device.Stop()
			return err
		case <-report:
			logStats(e.Stats())
			if err := device.Err(); err != nil {
				stop()
				return fmt.Errorf("audio device: %w", err)
			}
		case b, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			msg, quit := applyKey(b, sc, e)
			if msg != "" {
				log.Print(msg)
			}
			if quit {
				stop()
				if err := <-runErr; err != nil {
					return err
				}
				device.Stop()
				return nil
			}
		}
	}
}

// sourceClip reads the source clip, or generates a tone covering the
// farthest point of the scene when path is empty.
func sourceClip(path string, frequency, minSeconds float64, sampleRate int, normalize bool) (*doppler.Clip, error) {
	var (
		c   *doppler.Clip
		err error
	)
	if path == "" {
		c, err = doppler.SineClip(frequency, minSeconds+clipMarginSeconds, sampleRate)
	} else {
		c, err = doppler.LoadClip(path, sampleRate)
	}
	if err != nil {
		return nil, err
	}
	if normalize {
		return c.Normalize(normalizePeak)
	}
	return c, nil
}

func logStats(s doppler.Stats) {
	log.Printf("ticks=%d buffered=%d played=%d silent=%d underruns=%d muted=%d",
		s.Ticks, s.Buffered, s.FramesPlayed, s.SilentFrames, s.Underruns, s.Unreachable+s.Inaudible)
}
