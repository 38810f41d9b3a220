// Command simclient is a headless bot player. It joins a room, flies
// around with randomized inputs, fires, and reports collisions, which
// makes it useful for load testing a relay and for populating rooms
// during development.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/voidrun/starfray-mp/game"
	"github.com/voidrun/starfray-mp/network"
	"github.com/voidrun/starfray-mp/settings"
	"github.com/voidrun/starfray-mp/shared/messages"
	"github.com/voidrun/starfray-mp/shared/netconfig"
)

const tickRate = time.Second / 60

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	store := settings.NewStore(log)
	saved := store.Load()

	var (
		server   = flag.String("server", saved.ServerAddress, "relay server address (host:port)")
		master   = flag.String("master", "", "master directory URL, overrides -server when set")
		roomID   = flag.String("room", "", "room id to join, defaults to the first listed room")
		name     = flag.String("name", saved.PlayerName+"-bot", "bot display name")
		duration = flag.Duration("duration", 0, "how long to play, 0 runs until interrupted")
	)
	flag.Parse()

	address := *server
	if *master != "" {
		address, err = firstServer(*master)
		if err != nil {
			log.Fatal("no server from master directory", zap.Error(err))
		}
		log.Info("picked server from master directory", zap.String("address", address))
	}

	if err := run(log, address, *roomID, *name, *duration); err != nil {
		log.Fatal("simclient failed", zap.Error(err))
	}
}

// firstServer asks the master directory for the first live relay.
func firstServer(masterURL string) (string, error) {
	resp, err := http.Get(masterURL + "/servers")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("master returned %s", resp.Status)
	}

	var servers []struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", fmt.Errorf("master lists no servers")
	}
	return servers[0].Address, nil
}

func run(log *zap.Logger, address, roomID, name string, duration time.Duration) error {
	client := network.NewClient(log)
	client.Connect(address)
	defer client.Disconnect()

	rooms, err := awaitRooms(client)
	if err != nil {
		return err
	}
	if roomID == "" {
		roomID = rooms.Rooms[0].ID
	}

	if err := client.JoinRoom(roomID, name); err != nil {
		return err
	}
	join, err := awaitJoin(client)
	if err != nil {
		return err
	}
	if !join.Success {
		return fmt.Errorf("join refused: %s", join.Message)
	}
	log.Info("joined room",
		zap.String("room", join.RoomName),
		zap.String("self", client.SelfID()))

	if err := client.RequestSnapshot(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}

	bot := newBot(log, client, name)
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			log.Info("interrupted")
			return nil
		case <-deadline:
			log.Info("playtime over")
			return nil
		case now := <-ticker.C:
			bot.tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// bot drives one simulated player through the same local pipeline a
// real client runs: prediction, mirror, bullets, and hit reports.
type bot struct {
	log    *zap.Logger
	client *network.Client
	name   string

	rng       *rand.Rand
	predictor *network.Predictor
	mirror    *game.Mirror
	pool      *game.BulletPool
	detector  *game.HitDetector

	keys      messages.KeystrokeState
	angle     float64
	coin      messages.CoinState
	hasCoin   bool
	score     int
	retarget  float64
	stateSync float64
}

func newBot(log *zap.Logger, client *network.Client, name string) *bot {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := &bot{
		log:       log,
		client:    client,
		name:      name,
		rng:       rng,
		predictor: network.NewPredictor(),
		mirror:    game.NewMirror(),
		pool:      game.NewBulletPool(),
		detector:  game.NewHitDetector(),
	}
	b.predictor.Reset(
		netconfig.SpawnMargin+rng.Float64()*(netconfig.WorldWidth-2*netconfig.SpawnMargin),
		netconfig.SpawnMargin+rng.Float64()*(netconfig.WorldHeight-2*netconfig.SpawnMargin))
	return b
}

func (b *bot) tick(delta float64) {
	b.applyInbound()
	b.steer(delta)

	dx, dy := game.Displacement(b.keys, delta)
	if dx != 0 || dy != 0 {
		b.predictor.ApplyInput(dx, dy)
		if angle, ok := game.HeadingDegrees(dx, dy); ok {
			b.angle = angle
		}
	}

	x, y := b.predictor.Position()
	x, y = game.ClampToWorld(x, y)

	if b.keys.Fire {
		if _, ok := b.pool.Fire(x, y, b.angle-90); ok {
			if err := b.client.ReportFire(x, y); err != nil {
				b.log.Debug("fire report failed", zap.Error(err))
			}
		}
	}

	b.pool.Step(delta)
	b.mirror.Step(delta)
	b.detector.SyncPeers(b.mirror)
	for _, hit := range b.detector.Hits(b.pool, delta) {
		b.mirror.PenalizeHit(hit.TargetID)
		if err := b.client.ReportCollision(hit.Slot, hit.TargetID); err != nil {
			b.log.Debug("collision report failed", zap.Error(err))
		}
	}

	if b.hasCoin && game.CoinTouched(x, y, b.coin) {
		b.score += netconfig.CoinScore
		next := game.RandomCoin(b.rng)
		b.coin = next
		if err := b.client.SendCoinUpdate(next.X, next.Y); err != nil {
			b.log.Debug("coin update failed", zap.Error(err))
		}
	}

	if _, err := b.client.SendKeystrokes(b.keys); err != nil {
		b.log.Debug("keystroke send failed", zap.Error(err))
	}

	// Full state goes out at a coarser cadence than input edges.
	b.stateSync += delta
	if b.stateSync >= 0.05 {
		b.stateSync = 0
		err := b.client.SendState(messages.PlayerState{
			X:       x,
			Y:       y,
			Angle:   b.angle,
			Name:    b.name,
			Score:   b.score,
			Bullets: b.pool.Snapshot(),
		})
		if err != nil {
			b.log.Debug("state send failed", zap.Error(err))
		}
	}
}

// steer re-rolls the held keys every half second or so.
func (b *bot) steer(delta float64) {
	b.retarget -= delta
	if b.retarget > 0 {
		return
	}
	b.retarget = 0.3 + b.rng.Float64()*0.5
	b.keys = messages.KeystrokeState{
		Up:    b.rng.Intn(2) == 0,
		Down:  b.rng.Intn(2) == 0,
		Left:  b.rng.Intn(2) == 0,
		Right: b.rng.Intn(2) == 0,
		Fire:  b.rng.Intn(4) == 0,
	}
}

func (b *bot) applyInbound() {
	if snap := b.client.LatestSnapshot(); snap != nil {
		b.coin = snap.Coin
		b.hasCoin = true
		for id, player := range snap.Others {
			b.mirror.Apply(id, player)
		}
	}
	for _, ps := range b.client.DrainPeerStates() {
		if b.mirror.Apply(ps.ID, ps.Player) {
			b.log.Info("peer appeared", zap.String("id", ps.ID), zap.String("name", ps.Player.Name))
		}
	}
	for _, ku := range b.client.DrainKeystrokes() {
		b.mirror.SetKeystrokes(ku.ID, ku.State)
	}
	for _, cc := range b.client.DrainCoinChanges() {
		b.coin = cc.Coin
		b.hasCoin = true
	}
	for _, ex := range b.client.DrainExplosions() {
		if ex.ExplodedID == b.client.SelfID() {
			b.score -= netconfig.ScorePenalty
			if b.score < 0 {
				b.score = 0
			}
		} else if ex.ShooterID != b.client.SelfID() {
			b.mirror.PenalizeHit(ex.ExplodedID)
		}
	}
	for _, dep := range b.client.DrainDepartures() {
		b.mirror.Remove(dep.ID)
		b.log.Info("peer departed", zap.String("id", dep.ID))
	}
	b.client.DrainFired()
	b.client.DrainRoomCreated()
}

func awaitRooms(client *network.Client) (*messages.RoomList, error) {
	for i := 0; i < 100; i++ {
		if rooms := client.LatestRoomList(); rooms != nil && len(rooms.Rooms) > 0 {
			return rooms, nil
		}
		if client.State() == network.StateError {
			return nil, fmt.Errorf("connection failed: %w", client.LastError())
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil, fmt.Errorf("timed out waiting for room list")
}

func awaitJoin(client *network.Client) (*messages.JoinResponse, error) {
	for i := 0; i < 100; i++ {
		if join := client.JoinResult(); join != nil {
			return join, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil, fmt.Errorf("timed out waiting for join response")
}
