package config

import (
	"time"

	redisclient "github.com/vietddude/tokenlens/internal/infra/redis"
	"github.com/vietddude/tokenlens/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Solscan  SolscanConfig      `yaml:"solscan"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SolscanConfig holds settings for the upstream token-data API.
type SolscanConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// PageSize is the upstream page-size ceiling. Upstream-defined,
	// treated as configuration rather than a constant.
	PageSize int `yaml:"page_size"`

	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`

	// MaxRecords caps how many transfer records a single traders or
	// interval aggregation will scan across pages.
	MaxRecords int `yaml:"max_records"`

	// DefaultDecimals is the raw-amount scale used when a request does
	// not supply its own decimals value.
	DefaultDecimals int `yaml:"default_decimals"`

	// UnorderedTime declares that upstream transfer ordering cannot be
	// trusted to be newest-first. Setting it disables the interval
	// short-circuit and forces a full scan up to MaxRecords.
	UnorderedTime bool `yaml:"unordered_time"`
}

// HolderLimitDefault is applied when the holders route gets no limit.
const HolderLimitDefault = 50

// TraderLimitDefault is applied when the traders route gets no limit.
const TraderLimitDefault = 50
