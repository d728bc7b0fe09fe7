package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	History     HistoryConfig     `mapstructure:"history"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ExternalAPIConfig represents external API configuration
type ExternalAPIConfig struct {
	OpenTargets    APIClientConfig `mapstructure:"opentargets"`
	ChEMBL         APIClientConfig `mapstructure:"chembl"`
	DGIdb          APIClientConfig `mapstructure:"dgidb"`
	ClinicalTrials APIClientConfig `mapstructure:"clinical_trials"`
	OpenFDA        APIClientConfig `mapstructure:"openfda"`
}

// APIClientConfig represents one upstream API's client configuration
type APIClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RetryCount int           `mapstructure:"retry_count"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MemorySize  int           `mapstructure:"memory_size"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// HistoryConfig represents analysis history store configuration
type HistoryConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite", "postgres"
	SQLite  struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	Postgres struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Database string `mapstructure:"database"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		SSLMode  string `mapstructure:"ssl_mode"`
	} `mapstructure:"postgres"`
}

// ScoringConfig represents scorer tuning configuration
type ScoringConfig struct {
	Weights    ScoringWeights `mapstructure:"weights"`
	MinScore   float64        `mapstructure:"min_score"`
	MaxResults int            `mapstructure:"max_results"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
