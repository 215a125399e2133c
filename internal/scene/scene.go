// Package scene scripts listener and source motion for the command-line
// players. Sources drive back and forth along straight lanes at constant
// speed while the listener stands still, optionally turning on the spot.
package scene

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	doppler "github.com/tphakala/go-audio-doppler"
)

// Lane is a straight segment a source travels back and forth along.
type Lane struct {
	ID    doppler.SourceID
	From  r3.Vec
	To    r3.Vec
	Speed float64 // distance units per second
}

// Position returns where a source on the lane is after t.
func (l *Lane) Position(t time.Duration) r3.Vec {
	span := r3.Sub(l.To, l.From)
	length := r3.Norm(span)
	if length == 0 || l.Speed == 0 {
		return l.From
	}

	phase := math.Mod(l.Speed*t.Seconds(), 2*length)
	if phase > length {
		phase = 2*length - phase
	}
	return r3.Add(l.From, r3.Scale(phase/length, span))
}

// Scene is a listener and a set of lanes. Sources can be toggled from any
// goroutine while the engine ticks.
type Scene struct {
	listener doppler.Listener
	turnRate float64 // radians per second

	lanes    []Lane
	active   []atomic.Bool
	emitters []doppler.Emitter
}

// New creates a scene with every lane active.
func New(listener doppler.Listener, lanes []Lane) *Scene {
	s := &Scene{
		listener: listener,
		lanes:    lanes,
		active:   make([]atomic.Bool, len(lanes)),
		emitters: make([]doppler.Emitter, len(lanes)),
	}
	for i := range s.active {
		s.active[i].Store(true)
	}
	return s
}

// FlyBy builds n parallel lanes along Z, alternating sides of a listener at
// the origin facing +Z. Lane i passes at (i/2+1)*passDistance and runs from
// -halfLength to +halfLength.
func FlyBy(n int, speed, passDistance, halfLength float64) (*Scene, error) {
	if n < 1 {
		return nil, fmt.Errorf("scene needs at least one source, got %d", n)
	}
	if speed < 0 || passDistance < 0 || halfLength <= 0 {
		return nil, fmt.Errorf("invalid fly-by: speed %v, pass distance %v, half length %v", speed, passDistance, halfLength)
	}

	lanes := make([]Lane, n)
	for i := range lanes {
		x := float64(i/2+1) * passDistance
		if i%2 == 1 {
			x = -x
		}
		lanes[i] = Lane{
			ID:    doppler.SourceID(fmt.Sprintf("source-%d", i+1)),
			From:  r3.Vec{X: x, Z: -halfLength},
			To:    r3.Vec{X: x, Z: halfLength},
			Speed: speed,
		}
	}

	return New(doppler.Listener{Forward: r3.Vec{Z: 1}}, lanes), nil
}

// SetTurnRate makes the listener rotate about the vertical axis.
func (s *Scene) SetTurnRate(degreesPerSecond float64) {
	s.turnRate = degreesPerSecond * math.Pi / 180
}

// Lanes returns the scene lanes.
func (s *Scene) Lanes() []Lane {
	return s.lanes
}

// MaxDistance returns the farthest any lane end lies from the listener, on the
// horizontal plane. A clip must hold MaxDistance/SoundSpeed seconds for every
// source to stay within reach.
func (s *Scene) MaxDistance() float64 {
	var farthest float64
	for i := range s.lanes {
		for _, p := range []r3.Vec{s.lanes[i].From, s.lanes[i].To} {
			d := r3.Sub(p, s.listener.Position)
			farthest = math.Max(farthest, math.Hypot(d.X, d.Z))
		}
	}
	return farthest
}

// Len returns the number of sources.
func (s *Scene) Len() int {
	return len(s.lanes)
}

// Toggle flips source i between active and inactive and returns the new state.
func (s *Scene) Toggle(i int) (bool, error) {
	if i < 0 || i >= len(s.active) {
		return false, fmt.Errorf("no source %d", i+1)
	}
	for {
		old := s.active[i].Load()
		if s.active[i].CompareAndSwap(old, !old) {
			return !old, nil
		}
	}
}

// SetActive sets the active flag of source i.
func (s *Scene) SetActive(i int, active bool) error {
	if i < 0 || i >= len(s.active) {
		return fmt.Errorf("no source %d", i+1)
	}
	s.active[i].Store(active)
	return nil
}

// Active reports whether source i is active.
func (s *Scene) Active(i int) bool {
	return i >= 0 && i < len(s.active) && s.active[i].Load()
}

// World returns the scene as an engine world. The returned emitters are
// reused between calls.
func (s *Scene) World() doppler.World {
	return s.At
}

// At returns the listener and emitters at simulation time t.
func (s *Scene) At(t time.Duration) (doppler.Listener, []doppler.Emitter) {
	listener := s.listener
	if s.turnRate != 0 {
		angle := math.Mod(s.turnRate*t.Seconds(), 2*math.Pi)
		listener.Forward = r3.Rotate(listener.Forward, angle, r3.Vec{Y: 1})
	}

	for i := range s.lanes {
		s.emitters[i] = doppler.Emitter{
			ID:       s.lanes[i].ID,
			Position: s.lanes[i].Position(t),
			Active:   s.active[i].Load(),
		}
	}
	return listener, s.emitters
}
