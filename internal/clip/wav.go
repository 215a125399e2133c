package clip

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampler"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// LoadWAV reads a WAV file, downmixes it to mono and converts it to sampleRate.
// Pass sampleRate <= 0 to keep the file's own rate.
func LoadWAV(path string, sampleRate int) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip file: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if sampleRate <= 0 || sampleRate == c.rate {
		return c, nil
	}
	return c.Resample(sampleRate)
}

// DecodeWAV decodes integer PCM WAV data into a mono clip at the file's rate.
// Multi-channel data is averaged down to one channel.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		if err := decoder.Err(); err != nil {
			return nil, fmt.Errorf("invalid WAV data: %w", err)
		}
		return nil, errors.New("invalid WAV data")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV format tag %d: only integer PCM is supported", decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	channels := buf.Format.NumChannels
	if channels < monoChannels {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	mono, err := downmix(buf, bitDepth)
	if err != nil {
		return nil, err
	}
	return New(mono, buf.Format.SampleRate)
}

// Resample returns a copy of the clip converted to sampleRate.
func (c *Clip) Resample(sampleRate int) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate: %d", sampleRate)
	}
	if sampleRate == c.rate {
		return New(c.samples, c.rate)
	}

	out, err := resampling.ResampleMono(c.samples, float64(c.rate), float64(sampleRate), resampling.QualityHigh)
	if err != nil {
		return nil, fmt.Errorf("failed to resample clip %d Hz -> %d Hz: %w", c.rate, sampleRate, err)
	}
	return New(out, sampleRate)
}

// downmix converts interleaved integer PCM to mono float samples in [-1, 1).
func downmix(buf *audio.IntBuffer, bitDepth int) ([]float64, error) {
	maxVal := audio.IntMaxSignedValue(bitDepth)
	if maxVal == 0 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	fullScale := float64(maxVal + 1)

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, ErrEmptyClip
	}

	offset := 0
	if bitDepth == bitsPerSample8 {
		offset = unsigned8BitOffset
	}

	inv := 1.0 / (fullScale * float64(channels))
	mono := make([]float64, frames)
	for i := range frames {
		var sum int
		for ch := range channels {
			sum += buf.Data[i*channels+ch] - offset
		}
		mono[i] = float64(sum) * inv
	}
	return mono, nil
}

// Sine generates a mono sine tone. It is the default clip when no recording
// is supplied.
func Sine(frequency, amplitude, seconds float64, sampleRate int) (*Clip, error) {
	if frequency <= 0 || seconds <= 0 {
		return nil, fmt.Errorf("invalid tone: frequency %v Hz, duration %v s", frequency, seconds)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid clip sample rate: %d", sampleRate)
	}

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	increment := twoPi * frequency / float64(sampleRate)
	for i := range samples {
		samples[i] = amplitude * math.Sin(increment*float64(i))
	}
	return New(samples, sampleRate)
}
