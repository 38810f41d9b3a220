package game

import (
	"math"

	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// BulletPool is the local player's fixed-capacity projectile pool.
// Slots are allocated once and reused by index for the player's lifetime
// in the room; the slot number is part of the wire protocol (collision
// reports and explosion notices reference it).
type BulletPool struct {
	slots [netconfig.BulletPoolSize]messages.BulletState
}

func NewBulletPool() *BulletPool {
	p := &BulletPool{}
	for i := range p.slots {
		p.slots[i].Slot = i
	}
	return p
}

// Fire activates the lowest inactive slot at the given position, flying
// along angleDeg. Returns ok=false when every slot is in flight.
func (p *BulletPool) Fire(x, y, angleDeg float64) (int, bool) {
	for i := range p.slots {
		if p.slots[i].Active {
			continue
		}
		p.slots[i] = messages.BulletState{
			X:       x,
			Y:       y,
			Angle:   angleDeg,
			Active:  true,
			Visible: true,
			Slot:    i,
		}
		return i, true
	}
	return 0, false
}

// Step advances every active bullet by one tick of the given duration
// (seconds) and releases slots that left the world.
func (p *BulletPool) Step(delta float64) {
	for i := range p.slots {
		b := &p.slots[i]
		if !b.Active {
			continue
		}
		rad := b.Angle * math.Pi / 180
		b.X += math.Cos(rad) * netconfig.BulletSpeed * delta
		b.Y += math.Sin(rad) * netconfig.BulletSpeed * delta

		if b.X < -netconfig.BulletMargin || b.X > netconfig.WorldWidth+netconfig.BulletMargin ||
			b.Y < -netconfig.BulletMargin || b.Y > netconfig.WorldHeight+netconfig.BulletMargin {
			b.Active = false
			b.Visible = false
		}
	}
}

// Deactivate releases a slot, e.g. after its bullet hit a peer.
func (p *BulletPool) Deactivate(slot int) {
	if slot < 0 || slot >= len(p.slots) {
		return
	}
	p.slots[slot].Active = false
	p.slots[slot].Visible = false
}

// Bullet reads one slot.
func (p *BulletPool) Bullet(slot int) (messages.BulletState, bool) {
	if slot < 0 || slot >= len(p.slots) {
		return messages.BulletState{}, false
	}
	return p.slots[slot], true
}

// Snapshot copies the entire pool, inactive slots included. State
// updates always carry the full pool rather than per-slot deltas, which
// avoids partial-update ordering bugs at the cost of bandwidth.
func (p *BulletPool) Snapshot() []messages.BulletState {
	out := make([]messages.BulletState, len(p.slots))
	copy(out, p.slots[:])
	return out
}

// ActiveCount reports how many slots are in flight.
func (p *BulletPool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}
