package doppler

import "time"

// Default configuration values
const (
	// DefaultSampleRate is the output device rate in Hz.
	DefaultSampleRate = 48000

	// DefaultTickDuration matches a 50 Hz fixed simulation step.
	DefaultTickDuration = 20 * time.Millisecond

	// DefaultSoundSpeed is the speed of sound in air, in metres per second.
	DefaultSoundSpeed = 343.0

	// DefaultGain is the master output gain.
	DefaultGain = 0.5

	// DefaultHighWatermark is the queue occupancy, in frames, above which
	// playback starts.
	DefaultHighWatermark = 4100

	// DefaultEpsilon is the relative velocity treated as standing still.
	DefaultEpsilon = 1e-6
)

// Channel layout
const (
	stereoChannels = 2
	bytesPerSample = 4 // float32
	bytesPerFrame  = stereoChannels * bytesPerSample
)

// Validation limits
const (
	// minSoundSpeed rejects propagation speeds that would map any distance
	// to an unbounded delay.
	minSoundSpeed = 1e-3

	// readChunkFrames bounds the scratch space Read converts through.
	readChunkFrames = 1024
)
