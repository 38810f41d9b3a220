// Package game holds the client-local simulation consumed by renderers:
// the mirror of remote participants, movement from input flags, bullet
// pools, hit detection, and standings. It owns no network I/O.
package game

import (
	"github.com/yohamta/donburi"

	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

type PositionData struct {
	X, Y float64
}

type InfoData struct {
	ID    string
	Name  string
	Score int
	Angle float64
}

type RemoteBulletsData struct {
	Slots [netconfig.BulletPoolSize]messages.BulletState
}

type KeystrokesData struct {
	State messages.KeystrokeState
}

var (
	Position      = donburi.NewComponentType[PositionData]()
	Info          = donburi.NewComponentType[InfoData]()
	RemoteBullets = donburi.NewComponentType[RemoteBulletsData]()
	Keystrokes    = donburi.NewComponentType[KeystrokesData]()
)

// Mirror is the local copy of every other participant's reported state,
// keyed by participant id. Entities are created on first sight and
// mutated in place on subsequent updates. Renderers iterate the world;
// the mirror itself never draws.
//
// Single-threaded by design: inbound relay messages are applied between
// ticks by the owning loop.
type Mirror struct {
	world    donburi.World
	entities map[string]donburi.Entity
}

func NewMirror() *Mirror {
	return &Mirror{
		world:    donburi.NewWorld(),
		entities: make(map[string]donburi.Entity),
	}
}

// World exposes the ECS world for rendering-layer queries.
func (m *Mirror) World() donburi.World {
	return m.world
}

// Apply records a peer's reported state, creating the mirror entity on
// first sight. Returns whether a new entity was created. The bullet
// snapshot always carries the whole pool, so slots are copied wholesale.
func (m *Mirror) Apply(id string, player messages.PlayerState) bool {
	entity, ok := m.entities[id]
	created := false
	if !ok || !m.world.Valid(entity) {
		entity = m.world.Create(Position, Info, RemoteBullets, Keystrokes)
		m.entities[id] = entity
		created = true
	}

	entry := m.world.Entry(entity)
	Position.Set(entry, &PositionData{X: player.X, Y: player.Y})
	Info.Set(entry, &InfoData{
		ID:    id,
		Name:  player.Name,
		Score: player.Score,
		Angle: player.Angle,
	})

	bullets := RemoteBullets.Get(entry)
	for i := range bullets.Slots {
		bullets.Slots[i] = messages.BulletState{Slot: i}
	}
	for _, b := range player.Bullets {
		if b.Slot >= 0 && b.Slot < len(bullets.Slots) {
			bullets.Slots[b.Slot] = b
		}
	}
	return created
}

// SetKeystrokes records a peer's held input flags for dead-reckoning
// between state updates.
func (m *Mirror) SetKeystrokes(id string, state messages.KeystrokeState) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return
	}
	Keystrokes.Set(m.world.Entry(entity), &KeystrokesData{State: state})
}

// PenalizeHit applies the observer-side score penalty to a mirrored
// peer, floored at zero. The relay applies the same penalty on its own
// copy when the collision report arrives.
func (m *Mirror) PenalizeHit(id string) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return
	}
	info := Info.Get(m.world.Entry(entity))
	info.Score -= netconfig.ScorePenalty
	if info.Score < 0 {
		info.Score = 0
	}
}

// Remove drops a departed peer and everything attached to it.
func (m *Mirror) Remove(id string) {
	entity, ok := m.entities[id]
	if !ok {
		return
	}
	delete(m.entities, id)
	if m.world.Valid(entity) {
		m.world.Remove(entity)
	}
}

// Player reads back a peer's mirrored state.
func (m *Mirror) Player(id string) (messages.PlayerState, bool) {
	entity, ok := m.entities[id]
	if !ok || !m.world.Valid(entity) {
		return messages.PlayerState{}, false
	}
	entry := m.world.Entry(entity)
	pos := Position.Get(entry)
	info := Info.Get(entry)
	bullets := RemoteBullets.Get(entry)

	out := messages.PlayerState{
		X:       pos.X,
		Y:       pos.Y,
		Angle:   info.Angle,
		Name:    info.Name,
		Score:   info.Score,
		Bullets: make([]messages.BulletState, len(bullets.Slots)),
	}
	copy(out.Bullets, bullets.Slots[:])
	return out, true
}

// IDs lists every mirrored participant.
func (m *Mirror) IDs() []string {
	out := make([]string, 0, len(m.entities))
	for id := range m.entities {
		out = append(out, id)
	}
	return out
}

func (m *Mirror) Len() int {
	return len(m.entities)
}

// Step dead-reckons every peer forward by its held input flags, exactly
// as the local player moves, so mirrors stay smooth between relayed
// state updates.
func (m *Mirror) Step(delta float64) {
	for _, entity := range m.entities {
		if !m.world.Valid(entity) {
			continue
		}
		entry := m.world.Entry(entity)
		keys := Keystrokes.Get(entry)
		dx, dy := Displacement(keys.State, delta)
		if dx == 0 && dy == 0 {
			continue
		}
		pos := Position.Get(entry)
		pos.X += dx
		pos.Y += dy
		if angle, ok := HeadingDegrees(dx, dy); ok {
			Info.Get(entry).Angle = angle
		}
	}
}
