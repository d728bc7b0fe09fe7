package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/drug-repurposing-server/internal/api"
	"github.com/drug-repurposing-server/internal/config"
	"github.com/drug-repurposing-server/internal/history"
	"github.com/drug-repurposing-server/internal/service"
	"github.com/drug-repurposing-server/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	dataService, err := external.NewDataService(cfg.ExternalAPI, cfg.Cache, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize data service")
	}
	defer dataService.Close()

	scorer, err := service.NewScorer(cfg.Scoring.Weights, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize scorer")
	}

	store := newHistoryStore(configManager, logger)
	if store != nil {
		defer store.Close()
	}

	safetyFilter := service.NewSafetyFilter(dataService, logger)

	var recorder service.AnalysisRecorder
	if store != nil {
		recorder = store
	}
	pipeline := service.NewAnalysisPipeline(
		dataService,
		scorer,
		safetyFilter,
		recorder,
		cfg.Scoring.MinScore,
		cfg.Scoring.MaxResults,
		logger,
	)

	server := api.NewServer(pipeline, dataService, store, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting drug repurposing server")

	if err := server.Start(ctx); err != nil {
		logger.WithField("error", err.Error()).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// newHistoryStore builds the configured history backend. History is
// optional: failures disable it rather than aborting startup.
func newHistoryStore(configManager *config.Manager, logger *logrus.Logger) history.Store {
	cfg := configManager.GetConfig()

	switch cfg.History.Backend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.History.SQLite.Path)
		if err != nil {
			logger.WithField("error", err.Error()).Warn("Failed to open SQLite history store, history disabled")
			return nil
		}
		return store
	case "postgres":
		store, err := history.NewPostgresStoreFromURL(configManager.GetHistoryConnectionString())
		if err != nil {
			logger.WithField("error", err.Error()).Warn("Failed to open Postgres history store, history disabled")
			return nil
		}
		return store
	default:
		return nil
	}
}
