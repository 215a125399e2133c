//go:build headless

package output

import (
	"io"
	"sync"
	"time"
)

// Device drains the stream at the real-time rate without audio hardware.
type Device struct {
	src    io.Reader
	period time.Duration
	buf    []byte

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
	err     error
}

// Open validates opts and attaches src as the stream. Playback starts with
// Start.
func Open(opts Options, src io.Reader) (*Device, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Device{
		src:    src,
		period: opts.bufferSize(),
		buf:    make([]byte, opts.bufferBytes()),
	}, nil
}

// Start begins pulling one buffer per buffer period.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.pull(d.stop, d.done)
}

func (d *Device) pull(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := d.src.Read(d.buf); err != nil {
				d.mu.Lock()
				d.err = err
				d.mu.Unlock()
				return
			}
		}
	}
}

// Stop pauses pulling and waits for the pull goroutine to exit.
func (d *Device) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	stop, done := d.stop, d.done
	d.mu.Unlock()

	close(stop)
	<-done
}

// IsStarted reports whether the device is pulling.
func (d *Device) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Err returns the error that stopped pulling, if any.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close stops the device.
func (d *Device) Close() error {
	d.Stop()
	return nil
}
