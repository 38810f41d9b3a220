package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	ttl := flag.Duration("ttl", 90*time.Second, "Server TTL before expiry")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dir := NewDirectory(log, *ttl)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", ListServers(log, dir))
	mux.HandleFunc("POST /servers/register", RegisterServer(log, dir))
	mux.HandleFunc("POST /servers/heartbeat", Heartbeat(dir))
	mux.HandleFunc("GET /health", Health())

	addr := fmt.Sprintf(":%d", *port)
	log.Info("master starting", zap.String("addr", addr), zap.Duration("ttl", *ttl))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}
