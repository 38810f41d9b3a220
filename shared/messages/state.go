package messages

// KeystrokeState is the fixed set of input flags a player can hold.
// Clients emit it edge-triggered: only when the set differs from the
// last emitted value.
type KeystrokeState struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
	Fire  bool
}

// Moving reports whether any directional flag is held.
func (k KeystrokeState) Moving() bool {
	return k.Up || k.Down || k.Left || k.Right
}

// BulletState describes one slot of a player's fixed bullet pool. Slot is
// stable per pool position for the player's lifetime in the room, not a
// monotonic counter.
type BulletState struct {
	X, Y    float64
	Angle   float64
	Active  bool
	Visible bool
	Slot    int
}

// CoinState is the single shared collectible position in a room. It is
// overwritten wholesale on pickup and never removed.
type CoinState struct {
	X, Y float64
}

// PlayerState is the full outward-facing state of one participant.
// Mutated only by updates from the owning connection; read by everyone
// else in the room. Bullets always carries the entire pool.
type PlayerState struct {
	X, Y    float64
	Angle   float64
	Name    string
	Score   int
	Bullets []BulletState
}
