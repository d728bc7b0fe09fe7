package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager()
	require.NoError(t, err)
	return manager
}

func TestNewManager_Defaults(t *testing.T) {
	manager := newTestManager(t)
	cfg := manager.GetConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "https://api.platform.opentargets.org/api/v4/graphql", cfg.ExternalAPI.OpenTargets.BaseURL)
	assert.Equal(t, "https://api.fda.gov", cfg.ExternalAPI.OpenFDA.BaseURL)
	assert.Equal(t, 10, cfg.ExternalAPI.ChEMBL.RateLimit)

	assert.Equal(t, 24*time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, 256, cfg.Cache.MemorySize)
	assert.Empty(t, cfg.Cache.RedisURL)

	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "./data/analyses.db", cfg.History.SQLite.Path)

	assert.Equal(t, 0.40, cfg.Scoring.Weights.Gene)
	assert.Equal(t, 0.35, cfg.Scoring.Weights.Pathway)
	assert.Equal(t, 0.2, cfg.Scoring.MinScore)
	assert.Equal(t, 20, cfg.Scoring.MaxResults)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestManager_Validate(t *testing.T) {
	manager := newTestManager(t)
	assert.NoError(t, manager.Validate())
}

func TestManager_ValidateErrors(t *testing.T) {
	manager := newTestManager(t)

	tests := []struct {
		name   string
		mutate func()
	}{
		{"invalid port", func() { manager.config.Server.Port = -1 }},
		{"missing opentargets url", func() { manager.config.ExternalAPI.OpenTargets.BaseURL = "" }},
		{"weights do not sum", func() { manager.config.Scoring.Weights.Gene = 0.9 }},
		{"gene+pathway too low", func() {
			manager.config.Scoring.Weights.Gene = 0.25
			manager.config.Scoring.Weights.Pathway = 0.25
			manager.config.Scoring.Weights.Mechanism = 0.25
			manager.config.Scoring.Weights.Literature = 0.25
		}},
		{"invalid min_score", func() { manager.config.Scoring.MinScore = 1.5 }},
		{"unknown history backend", func() { manager.config.History.Backend = "etcd" }},
		{"missing sqlite path", func() { manager.config.History.SQLite.Path = "" }},
		{"invalid log level", func() { manager.config.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, manager.Reload())
			tt.mutate()
			assert.Error(t, manager.Validate())
		})
	}
}

func TestManager_EnvironmentOverride(t *testing.T) {
	os.Setenv("REPURPOSE_SERVER_PORT", "9090")
	os.Setenv("REPURPOSE_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("REPURPOSE_SERVER_PORT")
		os.Unsetenv("REPURPOSE_LOGGING_LEVEL")
	}()

	manager := newTestManager(t)
	cfg := manager.GetConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestManager_HistoryConnectionString(t *testing.T) {
	manager := newTestManager(t)
	manager.config.History.Postgres.Host = "db.internal"
	manager.config.History.Postgres.Database = "repurposing"
	manager.config.History.Postgres.Username = "svc"
	manager.config.History.Postgres.Password = "secret"
	manager.config.History.Postgres.SSLMode = "require"

	dsn := manager.GetHistoryConnectionString()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=repurposing")
	assert.Contains(t, dsn, "sslmode=require")
}
