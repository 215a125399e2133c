//go:build !headless

package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Device is a stereo float32 output on the system audio device.
//
// oto allows a single context per process, so a program opens at most one
// Device.
type Device struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

// Open initialises the audio device and attaches src as the stream. Playback
// starts with Start.
func Open(opts Options, src io.Reader) (*Device, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.bufferSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.SetBufferSize(opts.bufferBytes())

	return &Device{ctx: ctx, player: player}, nil
}

// Start begins pulling from the stream.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started && d.player != nil {
		d.player.Play()
		d.started = true
	}
}

// Stop pauses pulling. Start resumes.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started && d.player != nil {
		d.player.Pause()
		d.started = false
	}
}

// IsStarted reports whether the device is pulling.
func (d *Device) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Err returns an asynchronous device error, if any.
func (d *Device) Err() error {
	return d.ctx.Err()
}

// Close releases the player.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	d.started = false
	if err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}
