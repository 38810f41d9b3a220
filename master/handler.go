package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const maxRequestBody = 1 << 16 // 64 KB

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

func ListServers(log *zap.Logger, dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(dir.List()); err != nil {
			log.Warn("list encode error", zap.Error(err))
		}
	}
}

func RegisterServer(log *zap.Logger, dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Address == "" {
			http.Error(w, `{"error":"name and address required"}`, http.StatusBadRequest)
			return
		}

		id := dir.Register(ServerInfo{
			Name:    req.Name,
			Address: req.Address,
			Players: req.Players,
			Rooms:   req.Rooms,
			Version: req.Version,
		})

		log.Info("registered server",
			zap.String("name", req.Name),
			zap.String("address", req.Address),
			zap.String("id", id))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(registerResponse{ID: id})
	}
}

func Heartbeat(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		var req heartbeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
			return
		}

		if !dir.Heartbeat(req.ID, req.Players, req.Rooms) {
			http.Error(w, `{"error":"unknown server"}`, http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
