package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/voidrun/starfray-mp/server/core"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := core.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	registry := core.NewRegistry()
	relay := core.NewRelay(log, registry)

	var registration *core.Registration
	if cfg.Master.URL != "" && cfg.Server.Address != "" {
		registration = core.NewRegistration(log,
			cfg.Master.URL, cfg.Server.Name, cfg.Server.Address, cfg.Server.Version, relay)
		registration.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		if registration != nil {
			registration.Stop()
		}
		_ = log.Sync()
		os.Exit(0)
	}()

	log.Info("starting relay server",
		zap.String("name", cfg.Server.Name),
		zap.Uint("port", cfg.Server.Port))
	if err := relay.Start(cfg.Server.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
