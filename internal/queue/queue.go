// Package queue implements the transfer queue between the simulation tick and
// the audio callback.
//
// The queue holds interleaved stereo samples. The producer appends whole tick
// blocks and never blocks; storage grows when a backlog builds up, trading
// latency for glitch-free output. The consumer drains arbitrary lengths into
// caller buffers without allocating. A hysteresis gate decides whether the
// consumer may read at all: it opens once occupancy exceeds the high watermark
// and closes once occupancy drops below half of it. While closed, reads
// produce silence.
package queue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tphakala/go-audio-doppler/internal/simdops"
)

// Channels is the number of interleaved channels per frame.
const Channels = 2

const (
	// capacityHeadroom sizes the initial storage relative to the high
	// watermark so steady-state operation never grows the buffer.
	capacityHeadroom = 4

	growthFactor = 2
)

// ErrPartialFrame indicates a block that is not a whole number of frames.
var ErrPartialFrame = errors.New("block is not a whole number of stereo frames")

// Queue is a growable ring buffer of interleaved stereo samples with a
// hysteresis read gate. It is safe for one producer and one consumer running
// concurrently.
type Queue[F simdops.Float] struct {
	mu      sync.Mutex
	data    []F
	readPos int // in samples
	size    int // in samples
	high    int // in frames
	low     int // in frames
	canRead bool
}

// New creates a queue with the given high watermark in frames.
// The low watermark is half the high watermark.
func New[F simdops.Float](highWatermark int) (*Queue[F], error) {
	if highWatermark < 1 {
		return nil, fmt.Errorf("invalid high watermark: %d frames", highWatermark)
	}

	return &Queue[F]{
		data: make([]F, highWatermark*Channels*capacityHeadroom),
		high: highWatermark,
		low:  highWatermark / 2,
	}, nil
}

// Enqueue appends a block of interleaved samples.
func (q *Queue[F]) Enqueue(block []F) error {
	if len(block)%Channels != 0 {
		return fmt.Errorf("%w: %d samples", ErrPartialFrame, len(block))
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(block) == 0 {
		return nil
	}

	if q.size+len(block) > len(q.data) {
		q.grow(q.size + len(block))
	}

	writePos := (q.readPos + q.size) % len(q.data)
	n := copy(q.data[writePos:], block)
	copy(q.data, block[n:])
	q.size += len(block)

	q.updateGate()
	return nil
}

// Dequeue fills dst with queued samples and returns the number of frames taken
// from the queue. Whatever is not filled from the queue is zeroed: all of dst
// while the gate is closed, the tail of dst when the queue runs short. A
// trailing half frame in dst is always zeroed.
//
// Dequeue does not allocate.
func (q *Queue[F]) Dequeue(dst []F) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.canRead {
		clear(dst)
		return 0
	}

	frames := min(len(dst)/Channels, q.size/Channels)
	n := frames * Channels

	first := copy(dst[:n], q.data[q.readPos:])
	copy(dst[first:n], q.data)
	clear(dst[n:])

	q.readPos = (q.readPos + n) % len(q.data)
	q.size -= n

	q.updateGate()
	return frames
}

// Frames returns the number of queued frames.
func (q *Queue[F]) Frames() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size / Channels
}

// CanRead reports whether the read gate is open.
func (q *Queue[F]) CanRead() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canRead
}

// HighWatermark returns the occupancy, in frames, above which reads start.
func (q *Queue[F]) HighWatermark() int {
	return q.high
}

// LowWatermark returns the occupancy, in frames, below which reads stop.
func (q *Queue[F]) LowWatermark() int {
	return q.low
}

// Capacity returns the current storage size in frames.
func (q *Queue[F]) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data) / Channels
}

// Clear drops all queued samples and closes the gate.
func (q *Queue[F]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.readPos = 0
	q.size = 0
	q.canRead = false
}

func (q *Queue[F]) updateGate() {
	frames := q.size / Channels
	if frames > q.high {
		q.canRead = true
	} else if frames < q.low {
		q.canRead = false
	}
}

// grow increases capacity to at least minCapacity samples, keeping order.
func (q *Queue[F]) grow(minCapacity int) {
	newCapacity := len(q.data)
	for newCapacity < minCapacity {
		newCapacity *= growthFactor
	}

	newData := make([]F, newCapacity)
	n := copy(newData, q.data[q.readPos:min(q.readPos+q.size, len(q.data))])
	copy(newData[n:q.size], q.data)

	q.data = newData
	q.readPos = 0
}
