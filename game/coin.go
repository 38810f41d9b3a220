package game

import (
	"math/rand"

	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// CoinTouched reports whether a ship centered at (x, y) overlaps the
// coin. Pickup uses the ship's bounding half-extent so the check matches
// what players see on screen.
func CoinTouched(x, y float64, coin messages.CoinState) bool {
	half := netconfig.ShipSize / 2
	return coin.X >= x-half && coin.X <= x+half &&
		coin.Y >= y-half && coin.Y <= y+half
}

// RandomCoin picks a fresh coin position away from the world edges. The
// picker announces it to the relay, which rebroadcasts it to the room.
func RandomCoin(rng *rand.Rand) messages.CoinState {
	return messages.CoinState{
		X: netconfig.CoinMargin + rng.Float64()*(netconfig.WorldWidth-2*netconfig.CoinMargin),
		Y: netconfig.CoinMargin + rng.Float64()*(netconfig.WorldHeight-2*netconfig.CoinMargin),
	}
}
