package network

import (
	"math"
	"time"

	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// Input is one applied displacement, kept for reconciliation replay.
type Input struct {
	DX, DY    float64
	Timestamp int64 // Unix ms
}

// Predictor advances a locally predicted position immediately on input,
// independent of the network round-trip, and reconciles it against
// server-confirmed snapshots. Inputs are treated as purely additive and
// commutative; reconciliation replays raw displacements only and never
// re-simulates collisions or environment effects.
//
// Not safe for concurrent use: it belongs to the single client tick loop.
type Predictor struct {
	predictedX, predictedY float64

	serverX, serverY float64
	serverTimestamp  int64

	history []Input // bounded FIFO, oldest dropped beyond capacity

	now func() int64
}

func NewPredictor() *Predictor {
	return &Predictor{
		now: func() int64 { return time.Now().UnixMilli() },
	}
}

// ApplyInput adds (dx, dy) to the predicted position and records the
// input for later replay. Synchronous and optimistic: it never waits for
// server confirmation.
func (p *Predictor) ApplyInput(dx, dy float64) {
	p.predictedX += dx
	p.predictedY += dy

	p.history = append(p.history, Input{DX: dx, DY: dy, Timestamp: p.now()})
	if len(p.history) > netconfig.InputHistorySize {
		p.history = p.history[1:]
	}
}

// Reconcile corrects the predicted position against a server snapshot.
// If the discrepancy exceeds the snap threshold on either axis, the
// prediction snaps to the server position, discarding accumulated drift;
// otherwise it is left alone (no blending). Buffered inputs newer than
// the server timestamp are then replayed in order.
func (p *Predictor) Reconcile(serverX, serverY float64, serverTimestamp int64) {
	deltaX := serverX - p.predictedX
	deltaY := serverY - p.predictedY

	if math.Abs(deltaX) > netconfig.SnapThreshold || math.Abs(deltaY) > netconfig.SnapThreshold {
		p.predictedX = serverX
		p.predictedY = serverY
	}

	for _, input := range p.history {
		if input.Timestamp > serverTimestamp {
			p.predictedX += input.DX
			p.predictedY += input.DY
		}
	}

	p.serverX = serverX
	p.serverY = serverY
	p.serverTimestamp = serverTimestamp
}

// Position returns the current predicted position for rendering.
func (p *Predictor) Position() (x, y float64) {
	return p.predictedX, p.predictedY
}

// Confirmed returns the last server-confirmed position and timestamp.
func (p *Predictor) Confirmed() (x, y float64, timestamp int64) {
	return p.serverX, p.serverY, p.serverTimestamp
}

// Reset places the prediction at a known position, clearing all buffered
// inputs. Used when (re)spawning.
func (p *Predictor) Reset(x, y float64) {
	p.predictedX = x
	p.predictedY = y
	p.history = p.history[:0]
}
