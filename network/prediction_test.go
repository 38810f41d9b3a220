package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// fakeClock hands out strictly increasing millisecond timestamps.
type fakeClock struct{ t int64 }

func (c *fakeClock) next() int64 {
	c.t++
	return c.t
}

func newTestPredictor() (*Predictor, *fakeClock) {
	clock := &fakeClock{}
	p := NewPredictor()
	p.now = clock.next
	return p, clock
}

func TestPredictor_InputsAccumulate(t *testing.T) {
	p, _ := newTestPredictor()

	p.ApplyInput(3, 4)
	p.ApplyInput(-1, 2)
	p.ApplyInput(0.5, -0.5)

	x, y := p.Position()
	assert.InDelta(t, 2.5, x, 1e-9)
	assert.InDelta(t, 5.5, y, 1e-9)
}

// Prediction without reconciliation equals the running input sum.
func TestPredictor_SumProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p, _ := newTestPredictor()
		n := rapid.IntRange(0, 100).Draw(t, "n")

		var sumX, sumY float64
		for i := 0; i < n; i++ {
			dx := rapid.Float64Range(-50, 50).Draw(t, "dx")
			dy := rapid.Float64Range(-50, 50).Draw(t, "dy")
			p.ApplyInput(dx, dy)
			sumX += dx
			sumY += dy
		}

		x, y := p.Position()
		assert.InDelta(t, sumX, x, 1e-6)
		assert.InDelta(t, sumY, y, 1e-6)
	})
}

func TestPredictor_HistoryBounded(t *testing.T) {
	p, _ := newTestPredictor()

	for i := 0; i < 25; i++ {
		p.ApplyInput(1, 0)
	}
	require.Len(t, p.history, netconfig.InputHistorySize)

	// Only the newest inputs survive: reconciling from before all of
	// them replays exactly the retained ten.
	p.Reconcile(0, 0, 0)
	x, y := p.Position()
	assert.InDelta(t, float64(netconfig.InputHistorySize), x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestPredictor_ReconcileWithinThresholdKeepsPrediction(t *testing.T) {
	p, clock := newTestPredictor()
	p.ApplyInput(10, 10)
	serverTime := clock.t // all buffered inputs are acknowledged

	// Discrepancy of (3, -4): within the 5px snap threshold on both axes.
	p.Reconcile(13, 6, serverTime)

	x, y := p.Position()
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	sx, sy, ts := p.Confirmed()
	assert.Equal(t, 13.0, sx)
	assert.Equal(t, 6.0, sy)
	assert.Equal(t, serverTime, ts)
}

func TestPredictor_ReconcileSnapsBeyondThreshold(t *testing.T) {
	p, clock := newTestPredictor()
	p.ApplyInput(10, 0)
	serverTime := clock.t

	// 6px off on X: snap to the server position outright, no blending.
	p.Reconcile(16, 0, serverTime)

	x, y := p.Position()
	assert.InDelta(t, 16, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

// Snap law: with |S-P| beyond threshold and unacknowledged inputs
// summing to D, reconcile yields S + D.
func TestPredictor_SnapLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p, clock := newTestPredictor()

		// Acknowledged inputs, then the server timestamp, then
		// unacknowledged ones.
		nAcked := rapid.IntRange(0, 5).Draw(t, "acked")
		for i := 0; i < nAcked; i++ {
			p.ApplyInput(rapid.Float64Range(-20, 20).Draw(t, "adx"),
				rapid.Float64Range(-20, 20).Draw(t, "ady"))
		}
		serverTime := clock.t

		var dX, dY float64
		nPending := rapid.IntRange(0, 5).Draw(t, "pending")
		for i := 0; i < nPending; i++ {
			dx := rapid.Float64Range(-20, 20).Draw(t, "pdx")
			dy := rapid.Float64Range(-20, 20).Draw(t, "pdy")
			p.ApplyInput(dx, dy)
			dX += dx
			dY += dy
		}

		// Server position far from anything predicted: forces a snap.
		px, _ := p.Position()
		serverX := px + netconfig.SnapThreshold + 1 + rapid.Float64Range(0, 100).Draw(t, "off")
		serverY := rapid.Float64Range(-100, 100).Draw(t, "sy")

		p.Reconcile(serverX, serverY, serverTime)

		x, y := p.Position()
		assert.InDelta(t, serverX+dX, x, 1e-6)
		assert.InDelta(t, serverY+dY, y, 1e-6)
	})
}

func TestPredictor_ReplayOnlyNewerInputs(t *testing.T) {
	p, clock := newTestPredictor()

	p.ApplyInput(5, 0) // t=1, acknowledged
	p.ApplyInput(3, 0) // t=2, acknowledged
	serverTime := clock.t
	p.ApplyInput(2, 0) // t=3, pending

	// Prediction sits at 10; server says 100 -> snap, then replay the
	// single pending input.
	p.Reconcile(100, 0, serverTime)

	x, _ := p.Position()
	assert.InDelta(t, 102, x, 1e-9)
}

func TestPredictor_Reset(t *testing.T) {
	p, _ := newTestPredictor()
	p.ApplyInput(5, 5)

	p.Reset(200, 300)
	x, y := p.Position()
	assert.Equal(t, 200.0, x)
	assert.Equal(t, 300.0, y)

	// History is gone: a forced snap has nothing to replay.
	p.Reconcile(400, 400, 0)
	x, y = p.Position()
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 400.0, y)
}
