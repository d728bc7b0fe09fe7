package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/drug-repurposing-server/internal/domain"
)

// Manager loads and validates application configuration using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment, and defaults
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/drug-repurposing-server/")

	viper.SetEnvPrefix("REPURPOSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")

	// External API defaults
	viper.SetDefault("external_api.opentargets.base_url", "https://api.platform.opentargets.org/api/v4/graphql")
	viper.SetDefault("external_api.opentargets.timeout", "30s")
	viper.SetDefault("external_api.opentargets.rate_limit", 10)
	viper.SetDefault("external_api.opentargets.retry_count", 3)

	viper.SetDefault("external_api.chembl.base_url", "https://www.ebi.ac.uk/chembl/api/data")
	viper.SetDefault("external_api.chembl.timeout", "30s")
	viper.SetDefault("external_api.chembl.rate_limit", 10)
	viper.SetDefault("external_api.chembl.retry_count", 3)

	viper.SetDefault("external_api.dgidb.base_url", "https://dgidb.org/api/v2")
	viper.SetDefault("external_api.dgidb.timeout", "30s")
	viper.SetDefault("external_api.dgidb.rate_limit", 10)
	viper.SetDefault("external_api.dgidb.retry_count", 3)

	viper.SetDefault("external_api.clinical_trials.base_url", "https://clinicaltrials.gov/api/v2")
	viper.SetDefault("external_api.clinical_trials.timeout", "30s")
	viper.SetDefault("external_api.clinical_trials.rate_limit", 10)
	viper.SetDefault("external_api.clinical_trials.retry_count", 3)

	viper.SetDefault("external_api.openfda.base_url", "https://api.fda.gov")
	viper.SetDefault("external_api.openfda.timeout", "30s")
	viper.SetDefault("external_api.openfda.rate_limit", 4)
	viper.SetDefault("external_api.openfda.retry_count", 3)

	// Cache defaults; empty redis_url runs with the in-memory tier only
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.memory_size", 256)
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")

	// History defaults
	viper.SetDefault("history.backend", "sqlite")
	viper.SetDefault("history.sqlite.path", "./data/analyses.db")
	viper.SetDefault("history.postgres.host", "localhost")
	viper.SetDefault("history.postgres.port", 5432)
	viper.SetDefault("history.postgres.database", "drug_repurposing")
	viper.SetDefault("history.postgres.username", "postgres")
	viper.SetDefault("history.postgres.password", "")
	viper.SetDefault("history.postgres.ssl_mode", "disable")

	// Scoring defaults
	viper.SetDefault("scoring.weights.gene", 0.40)
	viper.SetDefault("scoring.weights.pathway", 0.35)
	viper.SetDefault("scoring.weights.mechanism", 0.15)
	viper.SetDefault("scoring.weights.literature", 0.10)
	viper.SetDefault("scoring.min_score", 0.2)
	viper.SetDefault("scoring.max_results", 20)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetExternalAPIConfig returns external API configuration
func (m *Manager) GetExternalAPIConfig() *domain.ExternalAPIConfig {
	return &m.config.ExternalAPI
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.ExternalAPI.OpenTargets.BaseURL == "" {
		return fmt.Errorf("OpenTargets base URL is required")
	}
	if config.ExternalAPI.ChEMBL.BaseURL == "" {
		return fmt.Errorf("ChEMBL base URL is required")
	}
	if config.ExternalAPI.DGIdb.BaseURL == "" {
		return fmt.Errorf("DGIdb base URL is required")
	}
	if config.ExternalAPI.ClinicalTrials.BaseURL == "" {
		return fmt.Errorf("ClinicalTrials.gov base URL is required")
	}
	if config.ExternalAPI.OpenFDA.BaseURL == "" {
		return fmt.Errorf("OpenFDA base URL is required")
	}

	if !config.Scoring.Weights.Valid() {
		return fmt.Errorf("scoring weights must sum to 1.0 with gene+pathway > 0.60")
	}
	if config.Scoring.MinScore < 0 || config.Scoring.MinScore > 1 {
		return fmt.Errorf("invalid min_score: %f", config.Scoring.MinScore)
	}
	if config.Scoring.MaxResults <= 0 {
		return fmt.Errorf("invalid max_results: %d", config.Scoring.MaxResults)
	}

	switch config.History.Backend {
	case "sqlite":
		if config.History.SQLite.Path == "" {
			return fmt.Errorf("sqlite history path is required")
		}
	case "postgres":
		if config.History.Postgres.Host == "" {
			return fmt.Errorf("postgres history host is required")
		}
		if config.History.Postgres.Database == "" {
			return fmt.Errorf("postgres history database is required")
		}
		if config.History.Postgres.Username == "" {
			return fmt.Errorf("postgres history username is required")
		}
	case "", "none":
		// History disabled
	default:
		return fmt.Errorf("unknown history backend: %s", config.History.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetHistoryConnectionString returns a formatted Postgres connection string
// for the history store.
func (m *Manager) GetHistoryConnectionString() string {
	pg := m.config.History.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.Username, pg.Password, pg.Database, pg.SSLMode)
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}
