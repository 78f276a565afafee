package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quaderno/internal/core"
)

// FileEnv names the environment variable pointing at an optional YAML file
// whose keys override the environment.
const FileEnv = "QUADERNO_CONFIG"

type Config struct {
	// HTTP Server
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage
	DataBackend      string `yaml:"data_backend"`
	DataDir          string `yaml:"data_dir"`
	SQLiteDBPath     string `yaml:"sqlite_db_path"`
	StorageSlot      string `yaml:"storage_slot"`
	MemoryQuotaBytes int    `yaml:"memory_quota_bytes"`
	SeedFile         string `yaml:"seed_file"`

	// Presentation
	Timezone      string `yaml:"timezone"`
	DisplayLayout string `yaml:"display_layout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Summary cache
	SummaryCacheSize int           `yaml:"summary_cache_size"`
	SummaryCacheTTL  time.Duration `yaml:"summary_cache_ttl"`
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:      getEnv("DATA_BACKEND", "file"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/quaderno.db"),
		StorageSlot:      getEnv("STORAGE_SLOT", "expenses"),
		MemoryQuotaBytes: getEnvInt("MEMORY_QUOTA_BYTES", 5*1024*1024),
		SeedFile:         getEnv("SEED_FILE", ""),

		Timezone:      getEnv("TIMEZONE", "Local"),
		DisplayLayout: getEnv("DISPLAY_LAYOUT", core.DefaultDisplayLayout),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SummaryCacheSize: getEnvInt("SUMMARY_CACHE_SIZE", 64),
		SummaryCacheTTL:  getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
	}

	return cfg
}

// LoadWithFile loads the environment and then applies the YAML file named
// by QUADERNO_CONFIG, if set. Keys present in the file win.
func LoadWithFile() (*Config, error) {
	cfg := Load()
	path := os.Getenv(FileEnv)
	if path == "" {
		return cfg, nil
	}
	if err := cfg.ApplyFile(path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyFile overlays the YAML document at path onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Locale resolves the presentation settings.
func (c *Config) Locale() (core.Locale, error) {
	return core.NewLocale(c.Timezone, c.DisplayLayout)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "file", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "memory":
		if c.MemoryQuotaBytes < 0 {
			errors = append(errors, fmt.Sprintf("invalid memory quota %d: must not be negative", c.MemoryQuotaBytes))
		}
	}

	if strings.TrimSpace(c.StorageSlot) == "" {
		errors = append(errors, "storage slot name cannot be empty")
	}

	if _, err := c.Locale(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	// Validate cache configuration
	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	} else if c.SummaryCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at most 10000", c.SummaryCacheSize))
	}
	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache ttl %v: must be at least 1 second", c.SummaryCacheTTL))
	}

	if c.ShutdownTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
