package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:             "8081",
		DataBackend:      "file",
		DataDir:          "./data",
		SQLiteDBPath:     "./test.db",
		StorageSlot:      "expenses",
		Timezone:         "UTC",
		LogLevel:         "info",
		LogFormat:        "text",
		SummaryCacheSize: 10,
		SummaryCacheTTL:  time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid file backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid memory backend config",
			mutate:  func(c *Config) { c.DataBackend = "memory"; c.MemoryQuotaBytes = 1024 },
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets': must be one of [memory file sqlite]",
		},
		{
			name:        "sqlite backend missing database path",
			mutate:      func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "file backend missing directory",
			mutate:      func(c *Config) { c.DataDir = "" },
			wantErr:     true,
			errorString: "data directory cannot be empty when using file backend",
		},
		{
			name:        "negative memory quota",
			mutate:      func(c *Config) { c.DataBackend = "memory"; c.MemoryQuotaBytes = -1 },
			wantErr:     true,
			errorString: "invalid memory quota -1",
		},
		{
			name:        "blank slot",
			mutate:      func(c *Config) { c.StorageSlot = "  " },
			wantErr:     true,
			errorString: "storage slot name cannot be empty",
		},
		{
			name:        "unknown timezone",
			mutate:      func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr:     true,
			errorString: "invalid timezone 'Mars/Olympus_Mons'",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "cache too small",
			mutate:      func(c *Config) { c.SummaryCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid summary cache size 0: must be at least 1",
		},
		{
			name:        "cache ttl too short",
			mutate:      func(c *Config) { c.SummaryCacheTTL = time.Millisecond },
			wantErr:     true,
			errorString: "invalid summary cache ttl 1ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCreatesSQLiteDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	cfg := validConfig()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(dir, "quaderno.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
}

func TestConfig_ValidateCombinesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("expected two listed problems, got %q", err.Error())
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"PORT", "DATA_BACKEND", "STORAGE_SLOT", "SUMMARY_CACHE_TTL", "MEMORY_QUOTA_BYTES"} {
			t.Setenv(key, "")
		}
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.DataBackend != "file" {
			t.Errorf("Load() DataBackend = %v, want file", cfg.DataBackend)
		}
		if cfg.StorageSlot != "expenses" {
			t.Errorf("Load() StorageSlot = %v, want expenses", cfg.StorageSlot)
		}
		if cfg.SummaryCacheTTL != 5*time.Minute {
			t.Errorf("Load() SummaryCacheTTL = %v, want 5m", cfg.SummaryCacheTTL)
		}
		if cfg.MemoryQuotaBytes != 5*1024*1024 {
			t.Errorf("Load() MemoryQuotaBytes = %v", cfg.MemoryQuotaBytes)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_BACKEND", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("TIMEZONE", "Europe/Rome")
		t.Setenv("SUMMARY_CACHE_SIZE", "25")
		t.Setenv("SUMMARY_CACHE_TTL", "45s")

		cfg := Load()

		if cfg.Port != "9090" || cfg.DataBackend != "sqlite" || cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() = %+v", cfg)
		}
		if cfg.Timezone != "Europe/Rome" {
			t.Errorf("Load() Timezone = %v", cfg.Timezone)
		}
		if cfg.SummaryCacheSize != 25 || cfg.SummaryCacheTTL != 45*time.Second {
			t.Errorf("Load() cache = %d/%v", cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("SUMMARY_CACHE_SIZE", "invalid")
		t.Setenv("SUMMARY_CACHE_TTL", "invalid")

		cfg := Load()

		if cfg.SummaryCacheSize != 64 {
			t.Errorf("Load() SummaryCacheSize = %v, want 64 (default for invalid input)", cfg.SummaryCacheSize)
		}
		if cfg.SummaryCacheTTL != 5*time.Minute {
			t.Errorf("Load() SummaryCacheTTL = %v, want 5m (default for invalid input)", cfg.SummaryCacheTTL)
		}
	})
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quaderno.yaml")
	doc := "data_backend: memory\nstorage_slot: ledger\nsummary_cache_ttl: 90s\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv(FileEnv, path)

	cfg, err := LoadWithFile()
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.DataBackend != "memory" || cfg.StorageSlot != "ledger" {
		t.Errorf("file keys should win: %+v", cfg)
	}
	if cfg.SummaryCacheTTL != 90*time.Second {
		t.Errorf("SummaryCacheTTL = %v, want 90s", cfg.SummaryCacheTTL)
	}
	if cfg.Port != "7070" {
		t.Errorf("keys absent from the file keep env values, Port = %v", cfg.Port)
	}

	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadWithFile(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
