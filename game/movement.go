package game

import (
	"math"

	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// Displacement converts held input flags into a movement delta for one
// tick of the given duration (seconds). Diagonal movement is normalized
// so speed is direction-independent.
func Displacement(state messages.KeystrokeState, delta float64) (dx, dy float64) {
	if state.Up {
		dy--
	}
	if state.Down {
		dy++
	}
	if state.Left {
		dx--
	}
	if state.Right {
		dx++
	}

	magnitude := math.Sqrt(dx*dx + dy*dy)
	if magnitude > 0 {
		dx /= magnitude
		dy /= magnitude
	}

	return dx * netconfig.MoveSpeed * delta, dy * netconfig.MoveSpeed * delta
}

// HeadingDegrees derives the facing angle from a movement delta, offset
// 90 degrees to match the ship sprite convention. Returns ok=false when
// there is no movement and the previous heading should be kept.
func HeadingDegrees(dx, dy float64) (float64, bool) {
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return math.Atan2(dy, dx)*180/math.Pi + 90, true
}

// ClampToWorld keeps a ship position inside the arena.
func ClampToWorld(x, y float64) (float64, float64) {
	return math.Max(0, math.Min(x, netconfig.WorldWidth)),
		math.Max(0, math.Min(y, netconfig.WorldHeight))
}
