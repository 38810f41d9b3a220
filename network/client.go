package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"go.uber.org/zap"

	"github.com/voidrun/starfray-mp/shared/messages"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedRoom
	StateError
)

// Client manages a WebSocket connection to a relay server and keeps the
// local participant's outward-facing state in sync. All shared fields
// are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	log       *zap.Logger
	state     ClientState
	lastError error

	selfID   string
	roomID   string
	roomName string
	conn     *websocket.Conn

	// Edge-triggered keystroke emission state.
	lastKeys  messages.KeystrokeState
	keysValid bool

	joinCh     chan messages.JoinResponse
	createdCh  chan messages.RoomCreated
	roomsCh    chan messages.RoomList // size-1 buffered; latest wins
	snapshotCh chan messages.GameSnapshot

	peerStateCh chan messages.PeerState
	keystrokeCh chan messages.KeystrokeUpdate
	coinCh      chan messages.CoinChanged
	explosionCh chan messages.Explosion
	firedCh     chan messages.PeerFired
	departedCh  chan messages.PeerDeparted
}

func NewClient(log *zap.Logger) *Client {
	return &Client{
		log:         log,
		state:       StateDisconnected,
		joinCh:      make(chan messages.JoinResponse, 1),
		createdCh:   make(chan messages.RoomCreated, 4),
		roomsCh:     make(chan messages.RoomList, 1),
		snapshotCh:  make(chan messages.GameSnapshot, 1),
		peerStateCh: make(chan messages.PeerState, 64),
		keystrokeCh: make(chan messages.KeystrokeUpdate, 64),
		coinCh:      make(chan messages.CoinChanged, 4),
		explosionCh: make(chan messages.Explosion, 8),
		firedCh:     make(chan messages.PeerFired, 8),
		departedCh:  make(chan messages.PeerDeparted, 8),
	}
}

// Connect dials the relay in a background goroutine and registers all
// inbound event handlers.
func (c *Client) Connect(address string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		c.log.Info("connected to relay")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinResponse) {
		if msg.Success {
			c.mu.Lock()
			c.roomID = msg.RoomID
			c.roomName = msg.RoomName
			c.state = StateJoinedRoom
			c.mu.Unlock()
		}
		pushLatest(c.joinCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.RoomCreated) {
		pushDrop(c.createdCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.RoomList) {
		pushLatest(c.roomsCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.GameSnapshot) {
		c.mu.Lock()
		c.selfID = msg.SelfID
		c.mu.Unlock()
		pushLatest(c.snapshotCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.PeerState) {
		pushDrop(c.peerStateCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.KeystrokeUpdate) {
		pushDrop(c.keystrokeCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.CoinChanged) {
		pushDrop(c.coinCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.Explosion) {
		pushDrop(c.explosionCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.PeerFired) {
		pushDrop(c.firedCh, msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.PeerDeparted) {
		pushDrop(c.departedCh, msg)
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.log.Info("disconnected", zap.Error(err))
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.log.Warn("client error", zap.Error(err))
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}
	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// SelfID returns the participant id assigned by the relay, known after
// the first snapshot arrives.
func (c *Client) SelfID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Client) RoomName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomName
}

// ListRooms asks for a fresh room list; the reply arrives via DrainRoomLists.
func (c *Client) ListRooms() error {
	return c.SendMessage(messages.ListRoomsRequest{})
}

// CreateRoom asks the relay to create a custom room.
func (c *Client) CreateRoom(name string, maxPlayers int) error {
	return c.SendMessage(messages.CreateRoomRequest{Name: name, MaxPlayers: maxPlayers})
}

// JoinRoom requests membership in a room; the result arrives via JoinResult.
func (c *Client) JoinRoom(roomID, playerName string) error {
	return c.SendMessage(messages.JoinRequest{RoomID: roomID, Name: playerName})
}

// RequestSnapshot asks for the initial room snapshot, issued once right
// after a successful join.
func (c *Client) RequestSnapshot() error {
	return c.SendMessage(messages.SnapshotRequest{})
}

// SendState pushes the local player's full state, bullets included. The
// whole fixed-capacity pool rides along with every update; slot-level
// deltas are deliberately not used.
func (c *Client) SendState(player messages.PlayerState) error {
	return c.SendMessage(messages.StateUpdate{Player: player})
}

// SendKeystrokes emits the input flags only when they differ from the
// last emitted value. Returns whether an emission happened.
func (c *Client) SendKeystrokes(state messages.KeystrokeState) (bool, error) {
	c.mu.Lock()
	if c.keysValid && state == c.lastKeys {
		c.mu.Unlock()
		return false, nil
	}
	c.lastKeys = state
	c.keysValid = true
	c.mu.Unlock()

	return true, c.SendMessage(messages.KeystrokeChange{State: state})
}

// ReportFire signals a shot for remote audio/visual cues.
func (c *Client) ReportFire(x, y float64) error {
	return c.SendMessage(messages.FireNotice{X: x, Y: y})
}

// SendCoinUpdate moves the room coin after a local pickup.
func (c *Client) SendCoinUpdate(x, y float64) error {
	return c.SendMessage(messages.CoinUpdate{X: x, Y: y})
}

// ReportCollision tells the relay one of our bullets hit a peer.
func (c *Client) ReportCollision(bulletSlot int, targetID string) error {
	return c.SendMessage(messages.CollisionReport{
		ShooterID:  c.SelfID(),
		BulletSlot: bulletSlot,
		TargetID:   targetID,
	})
}

// JoinResult returns the most recent join response, non-blocking.
func (c *Client) JoinResult() *messages.JoinResponse {
	select {
	case msg := <-c.joinCh:
		return &msg
	default:
		return nil
	}
}

// LatestSnapshot returns the most recent snapshot, or nil. Non-blocking.
func (c *Client) LatestSnapshot() *messages.GameSnapshot {
	select {
	case msg := <-c.snapshotCh:
		return &msg
	default:
		return nil
	}
}

// LatestRoomList returns the most recent room list, or nil. Non-blocking.
func (c *Client) LatestRoomList() *messages.RoomList {
	select {
	case msg := <-c.roomsCh:
		return &msg
	default:
		return nil
	}
}

// DrainRoomCreated returns pending room-created notices, non-blocking.
func (c *Client) DrainRoomCreated() []messages.RoomCreated {
	return drainChan(c.createdCh)
}

// DrainPeerStates returns pending peer state updates, non-blocking.
func (c *Client) DrainPeerStates() []messages.PeerState {
	return drainChan(c.peerStateCh)
}

// DrainKeystrokes returns pending peer keystroke updates, non-blocking.
func (c *Client) DrainKeystrokes() []messages.KeystrokeUpdate {
	return drainChan(c.keystrokeCh)
}

// DrainCoinChanges returns pending coin moves, non-blocking.
func (c *Client) DrainCoinChanges() []messages.CoinChanged {
	return drainChan(c.coinCh)
}

// DrainExplosions returns pending explosion notices, non-blocking.
func (c *Client) DrainExplosions() []messages.Explosion {
	return drainChan(c.explosionCh)
}

// DrainFired returns pending shot signals, non-blocking.
func (c *Client) DrainFired() []messages.PeerFired {
	return drainChan(c.firedCh)
}

// DrainDepartures returns pending peer departures, non-blocking.
func (c *Client) DrainDepartures() []messages.PeerDeparted {
	return drainChan(c.departedCh)
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

// pushLatest drains any stale value then pushes the newest.
func pushLatest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

// pushDrop pushes unless the buffer is full; a full buffer means the
// consumer stalled, and dropping beats blocking a router goroutine.
func pushDrop[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
