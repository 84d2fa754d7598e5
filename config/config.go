package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects and configures the catalog store
type StorageConfig struct {
	Type string `mapstructure:"type"` // "memory" or "postgres"
	DSN  string `mapstructure:"dsn"`
}

// MatchingConfig holds matching engine configuration
type MatchingConfig struct {
	ScanLimit            int     `mapstructure:"scan_limit"`
	DefaultMinSimilarity float64 `mapstructure:"default_min_similarity"`
	DefaultMaxResults    int     `mapstructure:"default_max_results"`
	EnableDebugLogging   bool    `mapstructure:"enable_debug_logging"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/supplymatch/")

	// Environment variable settings
	v.SetEnvPrefix("SUPPLYMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Storage defaults
	v.SetDefault("storage.type", "memory")

	// Matching defaults
	v.SetDefault("matching.scan_limit", 10000)
	v.SetDefault("matching.default_min_similarity", 60.0)
	v.SetDefault("matching.default_max_results", 5)
	v.SetDefault("matching.enable_debug_logging", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Storage.Type != "memory" && config.Storage.Type != "postgres" {
		return fmt.Errorf("storage type must be 'memory' or 'postgres', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "postgres" && config.Storage.DSN == "" {
		return fmt.Errorf("postgres DSN is required when storage type is 'postgres' (set SUPPLYMATCH_STORAGE_DSN)")
	}

	if config.Matching.ScanLimit <= 0 {
		return fmt.Errorf("matching scan limit must be positive, got: %d", config.Matching.ScanLimit)
	}

	if config.Matching.DefaultMinSimilarity < 0 || config.Matching.DefaultMinSimilarity > 100 {
		return fmt.Errorf("default minimum similarity must be in [0, 100], got: %.1f", config.Matching.DefaultMinSimilarity)
	}

	if config.Matching.DefaultMaxResults <= 0 {
		return fmt.Errorf("default max results must be positive, got: %d", config.Matching.DefaultMaxResults)
	}

	return nil
}
