package core

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// The lobby always exists and is never destroyed.
const (
	LobbyID   = "lobby"
	LobbyName = "Free-For-All"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// room is one synchronization domain: participants, their held inputs,
// and the shared coin. All access goes through the owning Registry.
type room struct {
	id         string
	name       string
	maxPlayers int // 0 = unbounded; always 0 for the lobby
	players    map[string]messages.PlayerState
	keys       map[string]messages.KeystrokeState
	coin       messages.CoinState
}

func (r *room) summary() messages.RoomSummary {
	return messages.RoomSummary{
		ID:          r.id,
		Name:        r.name,
		PlayerCount: len(r.players),
		MaxPlayers:  r.maxPlayers,
	}
}

// Registry owns every room and the participant->room assignment table.
// It is the single mutation domain for room state: each method runs to
// completion under one lock, so two concurrent joins or leaves on the
// same room never interleave.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*room
	assignments map[string]string // participant id -> room id
	rng         *rand.Rand
}

// NewRegistry creates a registry holding only the permanent lobby.
func NewRegistry() *Registry {
	r := &Registry{
		rooms:       make(map[string]*room),
		assignments: make(map[string]string),
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}
	r.rooms[LobbyID] = &room{
		id:      LobbyID,
		name:    LobbyName,
		players: make(map[string]messages.PlayerState),
		keys:    make(map[string]messages.KeystrokeState),
		coin:    r.randomCoin(),
	}
	return r
}

func (g *Registry) randomCoin() messages.CoinState {
	return messages.CoinState{
		X: netconfig.CoinMargin + g.rng.Float64()*(netconfig.WorldWidth-2*netconfig.CoinMargin),
		Y: netconfig.CoinMargin + g.rng.Float64()*(netconfig.WorldHeight-2*netconfig.CoinMargin),
	}
}

func (g *Registry) randomSpawn() (x, y float64) {
	x = netconfig.SpawnMargin + g.rng.Float64()*(netconfig.WorldWidth-2*netconfig.SpawnMargin)
	y = netconfig.SpawnMargin + g.rng.Float64()*(netconfig.WorldHeight-2*netconfig.SpawnMargin)
	return x, y
}

// CreateRoom creates a custom room. It always succeeds; the id is a UUID
// and therefore never collides with "lobby" or a live room.
func (g *Registry) CreateRoom(name string, maxPlayers int) messages.RoomSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.NewString()
	if name == "" {
		name = "Room " + id[:6]
	}
	rm := &room{
		id:         id,
		name:       name,
		maxPlayers: maxPlayers,
		players:    make(map[string]messages.PlayerState),
		keys:       make(map[string]messages.KeystrokeState),
		coin:       g.randomCoin(),
	}
	g.rooms[id] = rm
	return rm.summary()
}

// Room looks up one live room by id.
func (g *Registry) Room(id string) (messages.RoomSummary, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, ok := g.rooms[id]
	if !ok {
		return messages.RoomSummary{}, false
	}
	return rm.summary(), true
}

// ListAvailable returns summaries of every live room, lobby first.
func (g *Registry) ListAvailable() []messages.RoomSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]messages.RoomSummary, 0, len(g.rooms))
	out = append(out, g.rooms[LobbyID].summary())
	for id, rm := range g.rooms {
		if id == LobbyID {
			continue
		}
		out = append(out, rm.summary())
	}
	return out
}

// Join places a participant in roomID, implicitly leaving any previous
// room. The lobby never rejects for fullness. On success the participant
// gets a fresh PlayerState at a random spawn with a cleared input set.
func (g *Registry) Join(participantID, name, roomID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, ok := g.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if roomID != LobbyID && rm.maxPlayers > 0 && len(rm.players) >= rm.maxPlayers {
		return ErrRoomFull
	}

	g.leaveLocked(participantID)

	x, y := g.randomSpawn()
	rm.players[participantID] = messages.PlayerState{
		X:    x,
		Y:    y,
		Name: name,
	}
	rm.keys[participantID] = messages.KeystrokeState{}
	g.assignments[participantID] = roomID
	return nil
}

// Leave removes the participant from its current room and reports which
// room it left and whether that room was destroyed. Unknown participants
// are a no-op.
func (g *Registry) Leave(participantID string) (roomID string, destroyed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaveLocked(participantID)
}

func (g *Registry) leaveLocked(participantID string) (string, bool) {
	roomID, ok := g.assignments[participantID]
	if !ok {
		return "", false
	}
	delete(g.assignments, participantID)

	rm, ok := g.rooms[roomID]
	if !ok {
		return roomID, false
	}
	delete(rm.players, participantID)
	delete(rm.keys, participantID)

	if roomID != LobbyID && len(rm.players) == 0 {
		delete(g.rooms, roomID)
		return roomID, true
	}
	return roomID, false
}

// RoomOf returns the id of the participant's current room.
func (g *Registry) RoomOf(participantID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.assignments[participantID]
	return id, ok
}

// Members lists the participant ids of a room.
func (g *Registry) Members(roomID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rm.players))
	for id := range rm.players {
		out = append(out, id)
	}
	return out
}

// UpdatePlayer overwrites the participant's state in its room. Returns
// the room id, or ok=false if the participant has no live room (stale
// events are dropped by the caller).
func (g *Registry) UpdatePlayer(participantID string, state messages.PlayerState) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, roomID, ok := g.roomOfLocked(participantID)
	if !ok {
		return "", false
	}
	rm.players[participantID] = state
	return roomID, true
}

// SetKeystrokes overwrites the participant's held input flags.
func (g *Registry) SetKeystrokes(participantID string, state messages.KeystrokeState) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, roomID, ok := g.roomOfLocked(participantID)
	if !ok {
		return "", false
	}
	rm.keys[participantID] = state
	return roomID, true
}

// SetCoin overwrites the coin of the participant's room.
func (g *Registry) SetCoin(participantID string, coin messages.CoinState) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, roomID, ok := g.roomOfLocked(participantID)
	if !ok {
		return "", false
	}
	rm.coin = coin
	return roomID, true
}

// ApplyHit deducts the fixed penalty from the target's score, floored at
// zero. The target must share a room with the reporter.
func (g *Registry) ApplyHit(reporterID, targetID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, roomID, ok := g.roomOfLocked(reporterID)
	if !ok {
		return "", false
	}
	target, ok := rm.players[targetID]
	if !ok {
		return "", false
	}
	target.Score -= netconfig.ScorePenalty
	if target.Score < 0 {
		target.Score = 0
	}
	rm.players[targetID] = target
	return roomID, true
}

// PlayerScore reads a participant's current score in its room.
func (g *Registry) PlayerScore(participantID string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, _, ok := g.roomOfLocked(participantID)
	if !ok {
		return 0, false
	}
	p, ok := rm.players[participantID]
	if !ok {
		return 0, false
	}
	return p.Score, true
}

// Snapshot returns the participant's room coin and the state of every
// other participant in the room, keyed by id. The requester is excluded.
func (g *Registry) Snapshot(participantID string) (messages.CoinState, map[string]messages.PlayerState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, _, ok := g.roomOfLocked(participantID)
	if !ok {
		return messages.CoinState{}, nil, false
	}
	others := make(map[string]messages.PlayerState, len(rm.players)-1)
	for id, p := range rm.players {
		if id == participantID {
			continue
		}
		others[id] = p
	}
	return rm.coin, others, true
}

// ParticipantCount reports how many participants are assigned to rooms.
func (g *Registry) ParticipantCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.assignments)
}

// RoomCount reports how many rooms are live, lobby included.
func (g *Registry) RoomCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) roomOfLocked(participantID string) (*room, string, bool) {
	roomID, ok := g.assignments[participantID]
	if !ok {
		return nil, "", false
	}
	rm, ok := g.rooms[roomID]
	if !ok {
		return nil, "", false
	}
	return rm, roomID, true
}
