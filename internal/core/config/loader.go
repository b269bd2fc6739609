package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Solscan.BaseURL == "" {
		cfg.Solscan.BaseURL = "https://public-api.solscan.io"
	}
	if cfg.Solscan.PageSize == 0 {
		cfg.Solscan.PageSize = 50
	}
	if cfg.Solscan.Timeout == 0 {
		cfg.Solscan.Timeout = 10 * time.Second
	}
	if cfg.Solscan.MaxAttempts == 0 {
		cfg.Solscan.MaxAttempts = 3
	}
	if cfg.Solscan.MaxRecords == 0 {
		cfg.Solscan.MaxRecords = 1000
	}
	if cfg.Solscan.DefaultDecimals == 0 {
		cfg.Solscan.DefaultDecimals = 9
	}

	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = time.Minute
	}
}

// Validate checks that the configuration is usable. A missing upstream
// credential is a startup failure, not a per-request one.
func (cfg *AppConfig) Validate() error {
	if cfg.Solscan.APIKey == "" {
		return domain.Configf("solscan api_key is not set")
	}
	if cfg.Solscan.PageSize < 1 {
		return domain.Configf("solscan page_size must be positive, got %d", cfg.Solscan.PageSize)
	}
	if cfg.Solscan.MaxRecords < 1 {
		return domain.Configf("solscan max_records must be positive, got %d", cfg.Solscan.MaxRecords)
	}
	return nil
}
