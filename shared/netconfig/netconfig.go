// Package netconfig defines gameplay constants shared between client and
// server. It must have zero dependencies on any graphics library so the
// dedicated server binary stays headless.
package netconfig

// World bounds. The arena is a fixed logical rectangle; renderers scale it.
const (
	WorldWidth  = 1440.0
	WorldHeight = 900.0
)

// Movement and projectiles.
const (
	// MoveSpeed is ship movement speed in pixels per second.
	MoveSpeed = 800.0
	// BulletSpeed is projectile speed in pixels per second.
	BulletSpeed = 1500.0
	// BulletPoolSize is the fixed number of bullet slots per player.
	BulletPoolSize = 10
	// BulletMargin is how far outside the world a bullet may travel
	// before its slot is released.
	BulletMargin = 10.0
	// ShipSize is the square collision extent of a ship.
	ShipSize = 45.0
)

// Scoring.
const (
	// ScorePenalty is deducted from a player hit by a bullet.
	ScorePenalty = 2
	// CoinScore is awarded for picking up the coin.
	CoinScore = 5
	// PointsToWin ends the match and produces the final standings.
	PointsToWin = 100
)

// Spawn margins keep random placements away from the world edge.
const (
	SpawnMargin = 50.0
	CoinMargin  = 20.0
)

// Prediction tuning.
const (
	// SnapThreshold is the per-axis discrepancy (pixels) above which the
	// predictor discards accumulated drift and adopts the server position.
	SnapThreshold = 5.0
	// InputHistorySize bounds the reconciliation input buffer.
	InputHistorySize = 10
)
