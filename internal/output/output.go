// Package output plays an engine's stream on the system audio device.
//
// The device pulls little-endian float32 stereo from an io.Reader on its own
// goroutine. Builds tagged headless replace the device with a pacer that
// drains the reader in real time without touching audio hardware.
package output

import (
	"errors"
	"fmt"
	"time"
)

// Channels is the only supported channel count.
const Channels = 2

// DefaultBufferSize is the device buffer duration. Smaller values lower
// latency and raise the risk of audible dropouts.
const DefaultBufferSize = 40 * time.Millisecond

const bytesPerFrame = Channels * 4

// ErrUnsupportedLayout indicates a channel count other than stereo.
var ErrUnsupportedLayout = errors.New("output device must be stereo")

// Options configures a Device.
type Options struct {
	SampleRate int
	Channels   int

	// BufferSize is the device buffer duration. Zero selects
	// DefaultBufferSize.
	BufferSize time.Duration
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Channels != Channels {
		return fmt.Errorf("%w: got %d channels", ErrUnsupportedLayout, o.Channels)
	}
	if o.SampleRate <= 0 {
		return fmt.Errorf("invalid output sample rate: %d", o.SampleRate)
	}
	if o.BufferSize < 0 {
		return fmt.Errorf("invalid output buffer size: %v", o.BufferSize)
	}
	return nil
}

func (o *Options) bufferSize() time.Duration {
	if o.BufferSize == 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

// bufferBytes returns the byte size of one device buffer, in whole frames.
func (o *Options) bufferBytes() int {
	frames := int(o.bufferSize() * time.Duration(o.SampleRate) / time.Second)
	return max(frames, 1) * bytesPerFrame
}
