package scene

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLane_PositionPingPongs(t *testing.T) {
	lane := Lane{From: r3.Vec{Z: -10}, To: r3.Vec{Z: 10}, Speed: 10}

	tests := []struct {
		at   time.Duration
		want float64
	}{
		{0, -10},
		{time.Second, 0},
		{2 * time.Second, 10},
		{3 * time.Second, 0},
		{4 * time.Second, -10},
		{5 * time.Second, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, lane.Position(tt.at).Z, 1e-9, "t=%v", tt.at)
	}
}

func TestLane_DegenerateLaneStaysPut(t *testing.T) {
	lane := Lane{From: r3.Vec{X: 3}, To: r3.Vec{X: 3}, Speed: 10}
	assert.Equal(t, r3.Vec{X: 3}, lane.Position(time.Second))

	lane = Lane{From: r3.Vec{X: 3}, To: r3.Vec{X: 9}}
	assert.Equal(t, r3.Vec{X: 3}, lane.Position(time.Minute))
}

func TestFlyBy_Layout(t *testing.T) {
	s, err := FlyBy(3, 30, 5, 100)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	lanes := s.Lanes()
	assert.InDelta(t, 5, lanes[0].From.X, 0)
	assert.InDelta(t, -5, lanes[1].From.X, 0)
	assert.InDelta(t, 10, lanes[2].From.X, 0)
	assert.Equal(t, "source-1", string(lanes[0].ID))

	_, err = FlyBy(0, 30, 5, 100)
	require.Error(t, err)
	_, err = FlyBy(1, 30, 5, 0)
	require.Error(t, err)
}

func TestScene_MaxDistance(t *testing.T) {
	s, err := FlyBy(3, 30, 3, 4)
	require.NoError(t, err)
	// The outer lane sits at X=6, ending 4 ahead and behind.
	assert.InDelta(t, 7.211102550927978, s.MaxDistance(), 1e-12)
}

func TestScene_ToggleControlsEmitters(t *testing.T) {
	s, err := FlyBy(2, 30, 5, 100)
	require.NoError(t, err)

	_, emitters := s.At(0)
	require.Len(t, emitters, 2)
	assert.True(t, emitters[0].Active)
	assert.True(t, emitters[1].Active)

	on, err := s.Toggle(1)
	require.NoError(t, err)
	assert.False(t, on)
	_, emitters = s.At(0)
	assert.False(t, emitters[1].Active)
	assert.False(t, s.Active(1))

	require.NoError(t, s.SetActive(1, true))
	assert.True(t, s.Active(1))

	_, err = s.Toggle(5)
	require.Error(t, err)
	require.Error(t, s.SetActive(-1, true))
	assert.False(t, s.Active(7))
}

func TestScene_TurningListener(t *testing.T) {
	s, err := FlyBy(1, 0, 5, 100)
	require.NoError(t, err)
	s.SetTurnRate(90)

	l0, _ := s.At(0)
	assert.Equal(t, r3.Vec{Z: 1}, l0.Forward)

	l1, _ := s.At(time.Second)
	assert.InDelta(t, 1, r3.Norm(l1.Forward), 1e-9)
	assert.InDelta(t, 0, l1.Forward.Z, 1e-9, "a quarter turn leaves forward perpendicular to Z")
	assert.InDelta(t, 0, l1.Forward.Y, 1e-9)
}

func TestScene_ConcurrentToggle(t *testing.T) {
	s, err := FlyBy(3, 30, 5, 100)
	require.NoError(t, err)
	world := s.World()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			_, _ = s.Toggle(i % 3)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 1000 {
			world(time.Duration(i) * 20 * time.Millisecond)
		}
	}()
	wg.Wait()
}
