package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vitrine/internal/cache"
	"vitrine/internal/config"
	"vitrine/internal/server"
	"vitrine/internal/store"
	"vitrine/internal/tunnel"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	applyLogging(logger, &cfg.Logging)

	// Open the profile document store
	repo, err := store.NewStore(cfg.Store.Path, cfg.Store.MaxConnections)
	if err != nil {
		logger.WithError(err).Fatal("Error opening profile store")
	}
	defer repo.Close()

	// The visitor-facing cache starts from the last persisted snapshot
	// and revalidates against the store in the background.
	snapshotPath := strings.TrimSuffix(cfg.Store.Path, filepath.Ext(cfg.Store.Path)) + ".snapshot.json"
	snap := cache.NewSnapshot(snapshotPath, repo, logger)
	snap.LoadInitial()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := snap.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("Initial profile refresh failed, serving snapshot")
		}
	}()

	// Create the site server
	siteServer, err := server.NewServer(cfg, repo, snap, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating server")
	}

	// Optional public tunnel
	tun, err := tunnel.NewService(&cfg.Tunnel, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error configuring tunnel")
	}
	if tun != nil {
		if err := tun.Start(context.Background(), cfg.GetAddress()); err != nil {
			logger.WithError(err).Warn("Could not start tunnel, continuing locally")
		}
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := siteServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	if tun != nil {
		if err := tun.Stop(); err != nil {
			logger.WithError(err).Warn("Tunnel shutdown failed")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	siteServer.Shutdown(ctx)
}

// applyLogging switches the startup logger over to the configured
// level and format.
func applyLogging(logger *logrus.Logger, cfg *config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
