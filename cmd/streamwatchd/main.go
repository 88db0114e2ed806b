package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"streamwatch/internal/config"
	"streamwatch/internal/daemon"
	"streamwatch/internal/logging"
	"streamwatch/internal/pipeline"
	"streamwatch/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open detection store", logging.Error(err))
		os.Exit(1)
	}

	manager := pipeline.NewManager(cfg, st, logger)
	d, err := daemon.New(cfg, st, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		d.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("streamwatchd shutting down")
	d.Stop()
}
