package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Remote data source (Supabase)
	SupabaseURL   string `yaml:"supabase_url"`
	SupabaseKey   string `yaml:"supabase_key"`
	ProfilesTable string `yaml:"profiles_table"`

	// Structure cache
	CachePath     string `yaml:"cache_path"`
	SchemaVersion string `yaml:"schema_version"`

	// Enrichment tuning
	ViewportMargin   float64       `yaml:"viewport_margin"`
	EnrichDebounce   time.Duration `yaml:"enrich_debounce"`
	EnrichBatchLimit int           `yaml:"enrich_batch_limit"`

	// Logging and features
	LogLevel      string `yaml:"log_level"`
	EnableCORS    bool   `yaml:"enable_cors"`
	EnableMetrics bool   `yaml:"enable_metrics"`
}

// LoadConfig loads configuration from environment variables, with an
// optional YAML overlay file named by CONFIG_FILE applied first so that
// environment variables always win.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		ProfilesTable:    "profiles",
		CachePath:        "shajara-cache.db",
		SchemaVersion:    "v4",
		ViewportMargin:   0.2,
		EnrichDebounce:   150 * time.Millisecond,
		EnrichBatchLimit: 200,
		LogLevel:         "info",
		EnableCORS:       true,
		EnableMetrics:    true,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.SupabaseURL = getEnv("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabaseKey = getEnv("SUPABASE_ANON_KEY", cfg.SupabaseKey)
	cfg.ProfilesTable = getEnv("PROFILES_TABLE", cfg.ProfilesTable)
	cfg.CachePath = getEnv("CACHE_PATH", cfg.CachePath)
	cfg.SchemaVersion = getEnv("SCHEMA_VERSION", cfg.SchemaVersion)
	cfg.ViewportMargin = getEnvFloat("VIEWPORT_MARGIN", cfg.ViewportMargin)
	cfg.EnrichDebounce = getEnvDuration("ENRICH_DEBOUNCE", cfg.EnrichDebounce)
	cfg.EnrichBatchLimit = getEnvInt("ENRICH_BATCH_LIMIT", cfg.EnrichBatchLimit)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required in production")
		}
		if c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY is required in production")
		}
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("SCHEMA_VERSION cannot be empty")
	}
	if c.ViewportMargin < 0 {
		return fmt.Errorf("VIEWPORT_MARGIN cannot be negative")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
