package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServerInfo describes one relay server visible to clients browsing for
// a game.
type ServerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Players int    `json:"players"`
	Rooms   int    `json:"rooms"`
	Version string `json:"version"`
}

type serverRecord struct {
	ServerInfo
	LastSeen time.Time
}

// Directory is an in-memory store of active relay servers with TTL-based
// expiry. Servers that stop heartbeating are dropped from the list.
type Directory struct {
	log     *zap.Logger
	mu      sync.RWMutex
	servers map[string]*serverRecord
	ttl     time.Duration
	stopCh  chan struct{}
}

func NewDirectory(log *zap.Logger, ttl time.Duration) *Directory {
	d := &Directory{
		log:     log,
		servers: make(map[string]*serverRecord),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go d.expiryLoop()
	return d
}

func (d *Directory) Stop() {
	close(d.stopCh)
}

// Register stores a server and returns its assigned id.
func (d *Directory) Register(info ServerInfo) string {
	info.ID = uuid.NewString()

	d.mu.Lock()
	d.servers[info.ID] = &serverRecord{
		ServerInfo: info,
		LastSeen:   time.Now(),
	}
	d.mu.Unlock()

	return info.ID
}

// Heartbeat refreshes a server's liveness and counts. Returns false for
// unknown ids so the server knows to re-register.
func (d *Directory) Heartbeat(id string, players, rooms int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.servers[id]
	if !ok {
		return false
	}
	rec.LastSeen = time.Now()
	rec.Players = players
	rec.Rooms = rooms
	return true
}

// List returns every live server.
func (d *Directory) List() []ServerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ServerInfo, 0, len(d.servers))
	for _, rec := range d.servers {
		out = append(out, rec.ServerInfo)
	}
	return out
}

// expire drops every server not seen within the TTL. Split out from the
// loop so tests can invoke it directly.
func (d *Directory) expire(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, rec := range d.servers {
		if now.Sub(rec.LastSeen) >= d.ttl {
			d.log.Info("expired server",
				zap.String("name", rec.Name),
				zap.String("id", id),
				zap.Duration("silent_for", now.Sub(rec.LastSeen)))
			delete(d.servers, id)
		}
	}
}

func (d *Directory) expiryLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.expire(time.Now())
		}
	}
}
