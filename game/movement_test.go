package game_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/voidrun/starfray-mp/game"
	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

func TestDisplacement_CardinalAndDiagonal(t *testing.T) {
	dx, dy := game.Displacement(messages.KeystrokeState{Right: true}, 1)
	assert.InDelta(t, netconfig.MoveSpeed, dx, 1e-9)
	assert.InDelta(t, 0.0, dy, 1e-9)

	dx, dy = game.Displacement(messages.KeystrokeState{Down: true, Right: true}, 1)
	want := netconfig.MoveSpeed / math.Sqrt2
	assert.InDelta(t, want, dx, 1e-9)
	assert.InDelta(t, want, dy, 1e-9)

	dx, dy = game.Displacement(messages.KeystrokeState{}, 1)
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	// Opposing keys cancel.
	dx, dy = game.Displacement(messages.KeystrokeState{Left: true, Right: true}, 1)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestDisplacement_SpeedIsDirectionIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := messages.KeystrokeState{
			Up:    rapid.Bool().Draw(t, "up"),
			Down:  rapid.Bool().Draw(t, "down"),
			Left:  rapid.Bool().Draw(t, "left"),
			Right: rapid.Bool().Draw(t, "right"),
		}
		delta := rapid.Float64Range(0.001, 0.1).Draw(t, "delta")

		dx, dy := game.Displacement(state, delta)
		speed := math.Sqrt(dx*dx+dy*dy) / delta
		if dx == 0 && dy == 0 {
			return
		}
		if math.Abs(speed-netconfig.MoveSpeed) > 1e-6 {
			t.Fatalf("speed %f, want %f", speed, netconfig.MoveSpeed)
		}
	})
}

func TestHeadingDegrees(t *testing.T) {
	angle, ok := game.HeadingDegrees(1, 0)
	assert.True(t, ok)
	assert.InDelta(t, 90.0, angle, 1e-9)

	angle, ok = game.HeadingDegrees(0, -1)
	assert.True(t, ok)
	assert.InDelta(t, 0.0, angle, 1e-9)

	angle, ok = game.HeadingDegrees(0, 1)
	assert.True(t, ok)
	assert.InDelta(t, 180.0, angle, 1e-9)

	_, ok = game.HeadingDegrees(0, 0)
	assert.False(t, ok)
}

func TestClampToWorld(t *testing.T) {
	x, y := game.ClampToWorld(-5, 10000)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, netconfig.WorldHeight, y)

	x, y = game.ClampToWorld(700, 450)
	assert.Equal(t, 700.0, x)
	assert.Equal(t, 450.0, y)
}
