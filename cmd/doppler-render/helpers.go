package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	doppler "github.com/tphakala/go-audio-doppler"
)

// wavOutput writes interleaved stereo float frames as integer PCM.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	maxVal  float64
	frames  int64
}

// createWAVOutput creates the output file and encoder.
func createWAVOutput(path string, sampleRate, bitDepth int) (*wavOutput, error) {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d: use 16, 24 or 32", bitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, bitDepth, stereoChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: stereoChannels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		maxVal: float64(audio.IntMaxSignedValue(bitDepth)),
	}, nil
}

// WriteFrames encodes interleaved stereo samples.
func (w *wavOutput) WriteFrames(samples []float32) error {
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	floatToPCM(w.buf.Data, samples, w.maxVal)

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	w.frames += int64(len(samples) / stereoChannels)
	return nil
}

// Close finalises the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalise WAV file: %w", err)
	}
	return w.file.Close()
}

// floatToPCM converts float samples to integers, clamping to [-1, 1].
func floatToPCM(dst []int, src []float32, maxVal float64) {
	for i, v := range src {
		sample := float64(v)
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		dst[i] = int(sample * maxVal)
	}
}

// frameWriter receives rendered output.
type frameWriter interface {
	WriteFrames(samples []float32) error
}

// render plays world through e for duration as a device would: one tick in,
// one tick of output pulled. The backlog left in the transfer queue is drained
// at the end so the tail of the scene is not lost.
func render(e *doppler.Engine, world doppler.World, duration time.Duration, out frameWriter, verbose bool) error {
	cfg := e.Config()
	block := make([]float32, stereoChannels*cfg.FramesPerTick())

	nextReport := progressInterval
	for simTime := time.Duration(0); simTime < duration; simTime += cfg.TickDuration {
		listener, emitters := world(simTime)
		if err := e.Tick(listener, emitters); err != nil {
			return fmt.Errorf("tick at %v: %w", simTime, err)
		}

		e.Fill(block)
		if err := out.WriteFrames(block); err != nil {
			return err
		}

		if verbose && simTime >= nextReport {
			log.Printf("Rendered %v of %v, %d frames buffered", simTime, duration, e.Buffered())
			nextReport += progressInterval
		}
	}

	for e.Playing() {
		e.Fill(block)
		if err := out.WriteFrames(block); err != nil {
			return err
		}
	}

	return nil
}

// loadClip reads the source clip, or generates a tone long enough for the
// farthest point of the scene when path is empty.
func loadClip(path string, frequency, minSeconds float64, sampleRate int, soundSpeed float64, normalize bool) (*doppler.Clip, error) {
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

	if c.Duration() < minSeconds {
		log.Printf("Warning: clip is %.2fs, sources beyond %.0f m will be muted", c.Duration(), c.Duration()*soundSpeed)
	}

	if normalize {
		return c.Normalize(normalizePeak)
	}
	return c, nil
}
