package core_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidrun/starfray-mp/server/core"
	"github.com/voidrun/starfray-mp/shared/messages"
)

// fakePeer records everything the relay sends to it.
type fakePeer struct {
	id string

	mu   sync.Mutex
	msgs []any
}

func (f *fakePeer) Id() string { return f.id }

func (f *fakePeer) SendMessage(message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message)
	return nil
}

func (f *fakePeer) received() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakePeer) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = nil
}

func countOf[T any](f *fakePeer) int {
	n := 0
	for _, m := range f.received() {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

func lastOf[T any](t *testing.T, f *fakePeer) T {
	t.Helper()
	var out T
	found := false
	for _, m := range f.received() {
		if v, ok := m.(T); ok {
			out = v
			found = true
		}
	}
	require.True(t, found, "peer %s never received %T", f.id, out)
	return out
}

func newTestRelay() *core.Relay {
	return core.NewRelay(zap.NewNop(), core.NewRegistry())
}

// joinLobby connects a fake peer, joins it to the lobby, and returns its
// assigned participant id (from the snapshot response).
func joinLobby(t *testing.T, r *core.Relay, p *fakePeer, name string) string {
	t.Helper()
	return joinRoom(t, r, p, name, core.LobbyID)
}

func joinRoom(t *testing.T, r *core.Relay, p *fakePeer, name, roomID string) string {
	t.Helper()
	r.Connect(p)
	r.Join(p, messages.JoinRequest{RoomID: roomID, Name: name})
	resp := lastOf[messages.JoinResponse](t, p)
	require.True(t, resp.Success, "join failed: %s", resp.Message)
	r.Snapshot(p)
	snap := lastOf[messages.GameSnapshot](t, p)
	p.clear()
	return snap.SelfID
}

func TestRelay_ConnectSendsRoomList(t *testing.T) {
	r := newTestRelay()
	p := &fakePeer{id: "c1"}

	r.Connect(p)

	list := lastOf[messages.RoomList](t, p)
	require.NotEmpty(t, list.Rooms)
	assert.Equal(t, core.LobbyID, list.Rooms[0].ID)
}

func TestRelay_JoinSuccess(t *testing.T) {
	r := newTestRelay()
	p := &fakePeer{id: "c1"}
	r.Connect(p)

	r.Join(p, messages.JoinRequest{RoomID: core.LobbyID, Name: "alice"})

	resp := lastOf[messages.JoinResponse](t, p)
	assert.True(t, resp.Success)
	assert.Equal(t, core.LobbyID, resp.RoomID)
	assert.Equal(t, core.LobbyName, resp.RoomName)
}

func TestRelay_JoinUnknownRoom(t *testing.T) {
	r := newTestRelay()
	p := &fakePeer{id: "c1"}
	r.Connect(p)

	r.Join(p, messages.JoinRequest{RoomID: "nope", Name: "alice"})

	resp := lastOf[messages.JoinResponse](t, p)
	assert.False(t, resp.Success)
	assert.Equal(t, "Room not found", resp.Message)
}

func TestRelay_JoinFullRoom(t *testing.T) {
	r := newTestRelay()
	creator := &fakePeer{id: "c0"}
	r.Connect(creator)
	r.CreateRoom(creator, messages.CreateRoomRequest{Name: "Arena", MaxPlayers: 2})
	created := lastOf[messages.RoomCreated](t, creator)

	joinRoom(t, r, &fakePeer{id: "c1"}, "alice", created.RoomID)
	joinRoom(t, r, &fakePeer{id: "c2"}, "bob", created.RoomID)

	third := &fakePeer{id: "c3"}
	r.Connect(third)
	r.Join(third, messages.JoinRequest{RoomID: created.RoomID, Name: "carol"})
	resp := lastOf[messages.JoinResponse](t, third)
	assert.False(t, resp.Success)
	assert.Equal(t, "Room is full", resp.Message)
}

func TestRelay_CreateRoomBroadcastsRoomList(t *testing.T) {
	r := newTestRelay()
	watcher := &fakePeer{id: "w"}
	r.Connect(watcher)
	watcher.clear()

	creator := &fakePeer{id: "c"}
	r.Connect(creator)
	r.CreateRoom(creator, messages.CreateRoomRequest{Name: "Arena", MaxPlayers: 4})

	created := lastOf[messages.RoomCreated](t, creator)
	assert.Equal(t, "Arena", created.Name)
	assert.NotEqual(t, core.LobbyID, created.RoomID)

	list := lastOf[messages.RoomList](t, watcher)
	ids := make([]string, 0, len(list.Rooms))
	for _, room := range list.Rooms {
		ids = append(ids, room.ID)
	}
	assert.Contains(t, ids, created.RoomID)
}

func TestRelay_StateUpdateBroadcastToOthersOnly(t *testing.T) {
	r := newTestRelay()
	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	id1 := joinLobby(t, r, p1, "alice")
	joinLobby(t, r, p2, "bob")
	p1.clear()
	p2.clear()

	r.StateUpdate(p1, messages.StateUpdate{Player: messages.PlayerState{X: 10, Y: 20, Name: "alice", Score: 7}})

	assert.Zero(t, countOf[messages.PeerState](p1), "sender must not receive its own state")
	got := lastOf[messages.PeerState](t, p2)
	assert.Equal(t, id1, got.ID)
	assert.Equal(t, 10.0, got.Player.X)
	assert.Equal(t, 7, got.Player.Score)
}

func TestRelay_StateUpdateIsRoomScoped(t *testing.T) {
	r := newTestRelay()
	creator := &fakePeer{id: "c0"}
	r.Connect(creator)
	r.CreateRoom(creator, messages.CreateRoomRequest{Name: "Arena"})
	created := lastOf[messages.RoomCreated](t, creator)

	inRoom := &fakePeer{id: "c1"}
	inLobby := &fakePeer{id: "c2"}
	joinRoom(t, r, inRoom, "alice", created.RoomID)
	joinLobby(t, r, inLobby, "bob")
	inLobby.clear()

	r.StateUpdate(inRoom, messages.StateUpdate{Player: messages.PlayerState{X: 1}})

	assert.Zero(t, countOf[messages.PeerState](inLobby), "cross-room leak")
}

func TestRelay_KeystrokeRelayed(t *testing.T) {
	r := newTestRelay()
	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	id1 := joinLobby(t, r, p1, "alice")
	joinLobby(t, r, p2, "bob")
	p2.clear()

	state := messages.KeystrokeState{Up: true, Fire: true}
	r.KeystrokeChange(p1, messages.KeystrokeChange{State: state})

	got := lastOf[messages.KeystrokeUpdate](t, p2)
	assert.Equal(t, id1, got.ID)
	assert.Equal(t, state, got.State)
}

func TestRelay_FireRelayedToOthersOnly(t *testing.T) {
	r := newTestRelay()
	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	joinLobby(t, r, p1, "alice")
	joinLobby(t, r, p2, "bob")
	p1.clear()
	p2.clear()

	r.Fire(p1, messages.FireNotice{X: 5, Y: 5})

	assert.Zero(t, countOf[messages.PeerFired](p1))
	assert.Equal(t, 1, countOf[messages.PeerFired](p2))
}

func TestRelay_CoinUpdateRelayedAndStored(t *testing.T) {
	r := newTestRelay()
	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	joinLobby(t, r, p1, "alice")
	joinLobby(t, r, p2, "bob")
	p2.clear()

	r.CoinUpdate(p1, messages.CoinUpdate{X: 300, Y: 400})

	got := lastOf[messages.CoinChanged](t, p2)
	assert.Equal(t, messages.CoinState{X: 300, Y: 400}, got.Coin)

	// A later snapshot sees the stored coin.
	r.Snapshot(p2)
	snap := lastOf[messages.GameSnapshot](t, p2)
	assert.Equal(t, messages.CoinState{X: 300, Y: 400}, snap.Coin)
}

// Pins the relay-side half of the deliberate double deduction: the server
// applies the penalty on every collision report it accepts.
func TestRelay_CollisionReportDecrementsScore(t *testing.T) {
	r := newTestRelay()
	shooter := &fakePeer{id: "c1"}
	target := &fakePeer{id: "c2"}
	shooterID := joinLobby(t, r, shooter, "alice")
	targetID := joinLobby(t, r, target, "bob")

	r.StateUpdate(target, messages.StateUpdate{Player: messages.PlayerState{Name: "bob", Score: 5}})
	shooter.clear()
	target.clear()

	r.Collision(shooter, messages.CollisionReport{ShooterID: shooterID, BulletSlot: 3, TargetID: targetID})

	// Explosion goes to the whole room, the reporter included.
	fromShooter := lastOf[messages.Explosion](t, shooter)
	fromTarget := lastOf[messages.Explosion](t, target)
	assert.Equal(t, fromShooter, fromTarget)
	assert.Equal(t, shooterID, fromShooter.ShooterID)
	assert.Equal(t, 3, fromShooter.BulletSlot)
	assert.Equal(t, targetID, fromShooter.ExplodedID)

	r.Snapshot(shooter)
	snap := lastOf[messages.GameSnapshot](t, shooter)
	assert.Equal(t, 3, snap.Others[targetID].Score)
}

func TestRelay_SnapshotExcludesRequester(t *testing.T) {
	r := newTestRelay()
	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	id1 := joinLobby(t, r, p1, "alice")
	id2 := joinLobby(t, r, p2, "bob")

	r.Snapshot(p1)
	snap := lastOf[messages.GameSnapshot](t, p1)
	assert.Equal(t, id1, snap.SelfID)
	assert.NotContains(t, snap.Others, id1)
	assert.Contains(t, snap.Others, id2)
}

func TestRelay_DisconnectNotifiesRoomAndCleansUp(t *testing.T) {
	r := newTestRelay()
	creator := &fakePeer{id: "c0"}
	r.Connect(creator)
	r.CreateRoom(creator, messages.CreateRoomRequest{Name: "Arena"})
	created := lastOf[messages.RoomCreated](t, creator)

	p1 := &fakePeer{id: "c1"}
	p2 := &fakePeer{id: "c2"}
	id1 := joinRoom(t, r, p1, "alice", created.RoomID)
	joinRoom(t, r, p2, "bob", created.RoomID)
	p2.clear()

	r.Disconnect(p1)

	departed := lastOf[messages.PeerDeparted](t, p2)
	assert.Equal(t, id1, departed.ID)

	// Room still has p2; dropping them too destroys it.
	r.Disconnect(p2)
	r.ListRooms(creator)
	list := lastOf[messages.RoomList](t, creator)
	for _, room := range list.Rooms {
		assert.NotEqual(t, created.RoomID, room.ID, "empty custom room still listed")
	}
}

func TestRelay_EventsBeforeJoinSilentlyDropped(t *testing.T) {
	r := newTestRelay()
	p := &fakePeer{id: "c1"}
	other := &fakePeer{id: "c2"}
	joinLobby(t, r, other, "bob")
	r.Connect(p)
	other.clear()

	r.StateUpdate(p, messages.StateUpdate{Player: messages.PlayerState{X: 1}})
	r.KeystrokeChange(p, messages.KeystrokeChange{State: messages.KeystrokeState{Up: true}})
	r.Fire(p, messages.FireNotice{})
	r.CoinUpdate(p, messages.CoinUpdate{X: 1, Y: 1})
	r.Collision(p, messages.CollisionReport{TargetID: "ghost"})
	r.Snapshot(p)

	assert.Zero(t, countOf[messages.PeerState](other))
	assert.Zero(t, countOf[messages.KeystrokeUpdate](other))
	assert.Zero(t, countOf[messages.PeerFired](other))
	assert.Zero(t, countOf[messages.CoinChanged](other))
	assert.Zero(t, countOf[messages.Explosion](other))
	assert.Zero(t, countOf[messages.GameSnapshot](p))
}

func TestRelay_DisconnectUnknownPeer(t *testing.T) {
	r := newTestRelay()
	// Must not panic or broadcast anything.
	r.Disconnect(&fakePeer{id: "ghost"})
}

func TestRelay_Counts(t *testing.T) {
	r := newTestRelay()
	assert.Equal(t, 0, r.ParticipantCount())
	assert.Equal(t, 1, r.RoomCount())

	p := &fakePeer{id: "c1"}
	joinLobby(t, r, p, "alice")
	assert.Equal(t, 1, r.ParticipantCount())

	r.Disconnect(p)
	assert.Equal(t, 0, r.ParticipantCount())
	assert.Equal(t, 1, r.RoomCount())
}
