package messages

// Client -> server events.

// StateUpdate overwrites the sender's PlayerState in its room. The server
// trusts it as-is and relays it to the rest of the room.
type StateUpdate struct {
	Player PlayerState
}

// KeystrokeChange overwrites the sender's held input flags.
type KeystrokeChange struct {
	State KeystrokeState
}

// FireNotice signals that the sender fired a shot. It carries no
// authoritative bullet data; remote clients use it for audio/visual cues.
type FireNotice struct {
	X, Y float64
}

// CoinUpdate moves the room's shared coin after a pickup.
type CoinUpdate struct {
	X, Y float64
}

// CollisionReport is sent by the observer whose bullet hit a peer.
type CollisionReport struct {
	ShooterID  string
	BulletSlot int
	TargetID   string
}

// SnapshotRequest is issued once right after a successful join.
type SnapshotRequest struct{}

// Server -> client events.

// PeerState relays another participant's state update.
type PeerState struct {
	ID     string
	Player PlayerState
}

// KeystrokeUpdate relays another participant's input flags.
type KeystrokeUpdate struct {
	ID    string
	State KeystrokeState
}

// PeerFired signals that another participant fired a shot.
type PeerFired struct{}

// CoinChanged announces the coin's new position.
type CoinChanged struct {
	Coin CoinState
}

// Explosion is broadcast to the whole room, sender included, after a
// collision report has been applied.
type Explosion struct {
	ShooterID  string
	BulletSlot int
	ExplodedID string
}

// PeerDeparted announces that a participant left the room.
type PeerDeparted struct {
	ID string
}

// GameSnapshot answers a SnapshotRequest: the requester's assigned id,
// the room coin, and every other participant's state (self excluded).
type GameSnapshot struct {
	SelfID string
	Coin   CoinState
	Others map[string]PlayerState
}
