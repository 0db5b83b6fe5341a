// Package main runs the levelup daemon: the single-character progression
// service behind a JSON HTTP API, with background HP/MP recovery.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	a, cleanup, err := initializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}
	defer cleanup()

	a.Logger.Info("levelup initialized",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("character", cfg.Storage.CharacterID),
		zap.Duration("startup", time.Since(start)),
	)

	if err := a.Lifecycle.Run(ctx); err != nil {
		a.Logger.Error("server error", zap.Error(err))
		cleanup()
		log.Fatal(err)
	}
}
