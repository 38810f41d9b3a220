package game

import (
	"sort"

	"github.com/voidrun/starfray-mp/shared/netconfig"
)

// Standing is one row of the scoreboard.
type Standing struct {
	ID    string
	Name  string
	Score int
}

// Standings builds the scoreboard for the local player plus every
// mirrored peer, sorted by score descending with name as tiebreaker.
func Standings(selfID, selfName string, selfScore int, m *Mirror) []Standing {
	out := make([]Standing, 0, m.Len()+1)
	out = append(out, Standing{ID: selfID, Name: selfName, Score: selfScore})
	for _, id := range m.IDs() {
		player, ok := m.Player(id)
		if !ok {
			continue
		}
		out = append(out, Standing{ID: id, Name: player.Name, Score: player.Score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Winner returns the first standing at or above the win threshold.
func Winner(standings []Standing) (Standing, bool) {
	for _, s := range standings {
		if s.Score >= netconfig.PointsToWin {
			return s, true
		}
	}
	return Standing{}, false
}
