package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"go.uber.org/zap"

	"github.com/voidrun/starfray-mp/shared/messages"
)

// peer is the send side of one connected participant. *router.NetworkClient
// satisfies it; tests substitute fakes.
type peer interface {
	Id() string
	SendMessage(message any) error
}

// Relay routes per-connection events into room-scoped broadcasts. It owns
// the connection->participant table; all room state lives in the Registry.
type Relay struct {
	log      *zap.Logger
	registry *Registry

	mu           sync.Mutex
	peers        map[string]peer   // participant id -> send handle
	participants map[string]string // connection id -> participant id

	transport *transports.WsServerTransport
}

// NewRelay creates a relay over the given registry.
func NewRelay(log *zap.Logger, registry *Registry) *Relay {
	return &Relay{
		log:          log,
		registry:     registry,
		peers:        make(map[string]peer),
		participants: make(map[string]string),
	}
}

// Start registers the router callbacks and serves the WebSocket transport
// on the given port. It blocks until the transport stops.
func (r *Relay) Start(port uint) error {
	r.attach()
	r.transport = transports.NewWsServerTransport(port, "", nil)
	return r.transport.Start()
}

// attach binds every protocol event to the global necs router.
func (r *Relay) attach() {
	router.OnConnect(func(client *router.NetworkClient) {
		r.handle("connect", func() { r.Connect(client) })
	})
	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		r.handle("disconnect", func() { r.Disconnect(client) })
	})
	router.OnError(func(client *router.NetworkClient, err error) {
		r.log.Warn("client error", zap.Error(err))
	})
	router.On(func(client *router.NetworkClient, msg messages.ListRoomsRequest) {
		r.handle("list_rooms", func() { r.ListRooms(client) })
	})
	router.On(func(client *router.NetworkClient, msg messages.CreateRoomRequest) {
		r.handle("create_room", func() { r.CreateRoom(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		r.handle("join_room", func() { r.Join(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.StateUpdate) {
		r.handle("state_update", func() { r.StateUpdate(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.KeystrokeChange) {
		r.handle("keystroke", func() { r.KeystrokeChange(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.FireNotice) {
		r.handle("fire", func() { r.Fire(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.CoinUpdate) {
		r.handle("coin_update", func() { r.CoinUpdate(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.CollisionReport) {
		r.handle("collision", func() { r.Collision(client, msg) })
	})
	router.On(func(client *router.NetworkClient, msg messages.SnapshotRequest) {
		r.handle("snapshot", func() { r.Snapshot(client) })
	})
}

// handle isolates one event: a panic in a handler is logged and dropped
// so it cannot affect other rooms or participants.
func (r *Relay) handle(event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("event handler panic", zap.String("event", event), zap.Any("panic", rec))
		}
	}()
	fn()
}

// Connect assigns a stable participant id to the new connection and sends
// it the current room list.
func (r *Relay) Connect(p peer) {
	participantID := uuid.NewString()

	r.mu.Lock()
	r.participants[p.Id()] = participantID
	r.peers[participantID] = p
	r.mu.Unlock()

	r.log.Info("participant connected",
		zap.String("conn", p.Id()),
		zap.String("participant", participantID))

	r.send(p, messages.RoomList{Rooms: r.registry.ListAvailable()})
}

// Disconnect removes the participant from its room, notifies the rest of
// the room, and destroys the room if it became empty (lobby excepted).
func (r *Relay) Disconnect(p peer) {
	r.mu.Lock()
	participantID, ok := r.participants[p.Id()]
	delete(r.participants, p.Id())
	delete(r.peers, participantID)
	r.mu.Unlock()
	if !ok {
		return
	}

	roomID, destroyed := r.registry.Leave(participantID)
	if roomID != "" {
		r.broadcast(roomID, participantID, messages.PeerDeparted{ID: participantID})
	}
	if destroyed {
		r.log.Info("room destroyed", zap.String("room", roomID))
	}
	r.log.Info("participant disconnected", zap.String("participant", participantID))

	r.broadcastAll(messages.RoomList{Rooms: r.registry.ListAvailable()})
}

// ListRooms answers an explicit room-list request.
func (r *Relay) ListRooms(p peer) {
	r.send(p, messages.RoomList{Rooms: r.registry.ListAvailable()})
}

// CreateRoom creates a custom room and announces the updated room set to
// everyone. Creation always succeeds.
func (r *Relay) CreateRoom(p peer, msg messages.CreateRoomRequest) {
	summary := r.registry.CreateRoom(msg.Name, msg.MaxPlayers)
	r.log.Info("room created",
		zap.String("room", summary.ID),
		zap.String("name", summary.Name),
		zap.Int("max_players", summary.MaxPlayers))

	r.send(p, messages.RoomCreated{
		RoomID:     summary.ID,
		Name:       summary.Name,
		MaxPlayers: summary.MaxPlayers,
	})
	r.broadcastAll(messages.RoomList{Rooms: r.registry.ListAvailable()})
}

// Join moves the participant into the requested room and reports the
// result. RoomNotFound and RoomFull are the only explicit failures in
// the protocol.
func (r *Relay) Join(p peer, msg messages.JoinRequest) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}

	err := r.registry.Join(participantID, msg.Name, msg.RoomID)
	switch err {
	case nil:
	case ErrRoomNotFound:
		r.send(p, messages.JoinResponse{Success: false, Message: "Room not found"})
		return
	case ErrRoomFull:
		r.send(p, messages.JoinResponse{Success: false, Message: "Room is full"})
		return
	default:
		r.send(p, messages.JoinResponse{Success: false, Message: "Failed to join room"})
		return
	}

	var roomName string
	if summary, ok := r.registry.Room(msg.RoomID); ok {
		roomName = summary.Name
	}
	r.log.Info("participant joined",
		zap.String("participant", participantID),
		zap.String("room", msg.RoomID))

	r.send(p, messages.JoinResponse{
		Success:  true,
		RoomID:   msg.RoomID,
		RoomName: roomName,
	})
	r.broadcastAll(messages.RoomList{Rooms: r.registry.ListAvailable()})
}

// StateUpdate overwrites the sender's state and relays it to the rest of
// its room. Stale updates from vacated rooms are dropped silently.
func (r *Relay) StateUpdate(p peer, msg messages.StateUpdate) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	roomID, ok := r.registry.UpdatePlayer(participantID, msg.Player)
	if !ok {
		return
	}
	r.broadcast(roomID, participantID, messages.PeerState{ID: participantID, Player: msg.Player})
}

// KeystrokeChange overwrites the sender's input flags and relays them.
func (r *Relay) KeystrokeChange(p peer, msg messages.KeystrokeChange) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	roomID, ok := r.registry.SetKeystrokes(participantID, msg.State)
	if !ok {
		return
	}
	r.broadcast(roomID, participantID, messages.KeystrokeUpdate{ID: participantID, State: msg.State})
}

// Fire relays a shot signal to the rest of the room.
func (r *Relay) Fire(p peer, msg messages.FireNotice) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	roomID, ok := r.registry.RoomOf(participantID)
	if !ok {
		return
	}
	r.broadcast(roomID, participantID, messages.PeerFired{})
}

// CoinUpdate overwrites the room's coin and relays the new position.
func (r *Relay) CoinUpdate(p peer, msg messages.CoinUpdate) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	coin := messages.CoinState{X: msg.X, Y: msg.Y}
	roomID, ok := r.registry.SetCoin(participantID, coin)
	if !ok {
		return
	}
	r.broadcast(roomID, participantID, messages.CoinChanged{Coin: coin})
}

// Collision applies the score penalty to the target and broadcasts the
// explosion to the whole room, the reporter included.
func (r *Relay) Collision(p peer, msg messages.CollisionReport) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	roomID, ok := r.registry.ApplyHit(participantID, msg.TargetID)
	if !ok {
		return
	}
	r.broadcast(roomID, "", messages.Explosion{
		ShooterID:  msg.ShooterID,
		BulletSlot: msg.BulletSlot,
		ExplodedID: msg.TargetID,
	})
}

// Snapshot answers with the requester's id, the room coin, and every
// other participant's state.
func (r *Relay) Snapshot(p peer) {
	participantID, ok := r.participantOf(p)
	if !ok {
		return
	}
	coin, others, ok := r.registry.Snapshot(participantID)
	if !ok {
		return
	}
	r.send(p, messages.GameSnapshot{
		SelfID: participantID,
		Coin:   coin,
		Others: others,
	})
}

// ParticipantCount reports connected participants, for master heartbeats.
func (r *Relay) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// RoomCount reports live rooms, for master heartbeats.
func (r *Relay) RoomCount() int {
	return r.registry.RoomCount()
}

func (r *Relay) participantOf(p peer) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.participants[p.Id()]
	return id, ok
}

// broadcast sends msg to every member of the room except the excluded
// participant ("" excludes nobody). Send failures are per-peer and never
// interrupt delivery to the rest of the room.
func (r *Relay) broadcast(roomID, except string, msg any) {
	members := r.registry.Members(roomID)

	r.mu.Lock()
	targets := make([]peer, 0, len(members))
	for _, id := range members {
		if id == except {
			continue
		}
		if p, ok := r.peers[id]; ok {
			targets = append(targets, p)
		}
	}
	r.mu.Unlock()

	for _, p := range targets {
		r.send(p, msg)
	}
}

// broadcastAll sends msg to every connected participant, roomless ones
// included; used for room-set changes.
func (r *Relay) broadcastAll(msg any) {
	r.mu.Lock()
	targets := make([]peer, 0, len(r.peers))
	for _, p := range r.peers {
		targets = append(targets, p)
	}
	r.mu.Unlock()

	for _, p := range targets {
		r.send(p, msg)
	}
}

func (r *Relay) send(p peer, msg any) {
	if err := p.SendMessage(msg); err != nil {
		r.log.Debug("send failed", zap.String("conn", p.Id()), zap.Error(err))
	}
}
