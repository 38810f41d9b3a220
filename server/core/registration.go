package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// Registration keeps the relay listed in the master directory: one
// initial registration, then periodic heartbeats carrying live counts.
type Registration struct {
	log       *zap.Logger
	masterURL string
	serverID  string
	name      string
	address   string
	version   string
	relay     *Relay
	client    *http.Client
	stopCh    chan struct{}
}

type registerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Players int    `json:"players"`
	Rooms   int    `json:"rooms"`
	Version string `json:"version"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Rooms   int    `json:"rooms"`
}

func NewRegistration(log *zap.Logger, masterURL, name, address, version string, relay *Relay) *Registration {
	return &Registration{
		log:       log,
		masterURL: masterURL,
		name:      name,
		address:   address,
		version:   version,
		relay:     relay,
		client:    &http.Client{Timeout: 5 * time.Second},
		stopCh:    make(chan struct{}),
	}
}

func (r *Registration) Start() {
	if err := r.register(); err != nil {
		r.log.Warn("initial registration failed", zap.Error(err))
	}
	go r.heartbeatLoop()
}

func (r *Registration) Stop() {
	close(r.stopCh)
}

func (r *Registration) register() error {
	body, err := json.Marshal(registerRequest{
		Name:    r.name,
		Address: r.address,
		Players: r.relay.ParticipantCount(),
		Rooms:   r.relay.RoomCount(),
		Version: r.version,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := r.client.Post(r.masterURL+"/servers/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	r.serverID = result.ID
	r.log.Info("registered with master", zap.String("id", r.serverID))
	return nil
}

func (r *Registration) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.sendHeartbeat(); err != nil {
				r.log.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

func (r *Registration) sendHeartbeat() error {
	body, err := json.Marshal(heartbeatRequest{
		ID:      r.serverID,
		Players: r.relay.ParticipantCount(),
		Rooms:   r.relay.RoomCount(),
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := r.client.Post(r.masterURL+"/servers/heartbeat", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.log.Info("master lost our registration, re-registering")
		return r.register()
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
