package game

import (
	"math"

	"github.com/solarlune/resolv"

	"github.com/voidrun/starfray-mp/shared/netconfig"
)

const peerTag = "peer"

// Hit is one local bullet striking a mirrored peer this tick.
type Hit struct {
	Slot     int
	TargetID string
}

// HitDetector runs local collision checks between the player's bullets
// and mirrored peers. Its findings are advisory: the observer reports
// them to the relay, which applies the authoritative score change.
type HitDetector struct {
	space   *resolv.Space
	peers   map[string]*resolv.Object
	peerIDs map[*resolv.Object]string
}

func NewHitDetector() *HitDetector {
	return &HitDetector{
		space: resolv.NewSpace(
			int(netconfig.WorldWidth)+2*int(netconfig.BulletMargin),
			int(netconfig.WorldHeight)+2*int(netconfig.BulletMargin),
			16, 16),
		peers:   make(map[string]*resolv.Object),
		peerIDs: make(map[*resolv.Object]string),
	}
}

// SyncPeers aligns the collision space with the mirror: new peers get an
// object, moved peers are updated in place, departed peers are removed.
func (h *HitDetector) SyncPeers(m *Mirror) {
	seen := make(map[string]bool, m.Len())
	for _, id := range m.IDs() {
		player, ok := m.Player(id)
		if !ok {
			continue
		}
		seen[id] = true

		// The space is padded by the bullet margin on every side, so
		// world coordinates are offset by that margin.
		x := player.X - netconfig.ShipSize/2 + netconfig.BulletMargin
		y := player.Y - netconfig.ShipSize/2 + netconfig.BulletMargin

		obj, exists := h.peers[id]
		if !exists {
			obj = resolv.NewObject(x, y, netconfig.ShipSize, netconfig.ShipSize, peerTag)
			obj.SetShape(resolv.NewRectangle(0, 0, netconfig.ShipSize, netconfig.ShipSize))
			h.space.Add(obj)
			h.peers[id] = obj
			h.peerIDs[obj] = id
			continue
		}
		obj.X = x
		obj.Y = y
		obj.Update()
	}

	for id, obj := range h.peers {
		if seen[id] {
			continue
		}
		h.space.Remove(obj)
		delete(h.peers, id)
		delete(h.peerIDs, obj)
	}
}

// Hits checks every active bullet against the peers it would reach this
// tick. Struck bullets are deactivated so one bullet never produces two
// reports.
func (h *HitDetector) Hits(pool *BulletPool, delta float64) []Hit {
	var out []Hit
	probe := resolv.NewObject(0, 0, 4, 4)
	probe.SetShape(resolv.NewRectangle(0, 0, 4, 4))
	h.space.Add(probe)
	defer h.space.Remove(probe)

	for slot := 0; slot < netconfig.BulletPoolSize; slot++ {
		b, ok := pool.Bullet(slot)
		if !ok || !b.Active {
			continue
		}

		probe.X = b.X + netconfig.BulletMargin
		probe.Y = b.Y + netconfig.BulletMargin
		probe.Update()

		rad := b.Angle * math.Pi / 180
		stepX := math.Cos(rad) * netconfig.BulletSpeed * delta
		stepY := math.Sin(rad) * netconfig.BulletSpeed * delta

		check := probe.Check(stepX, stepY, peerTag)
		if check == nil {
			continue
		}
		targets := check.ObjectsByTags(peerTag)
		if len(targets) == 0 {
			continue
		}
		id, ok := h.peerIDs[targets[0]]
		if !ok {
			continue
		}
		pool.Deactivate(slot)
		out = append(out, Hit{Slot: slot, TargetID: id})
	}
	return out
}
