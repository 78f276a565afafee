package backend

import (
	"fmt"

	"quaderno/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	locale, err := appConfig.Locale()
	if err != nil {
		return Config{}, fmt.Errorf("resolve locale: %w", err)
	}

	return Config{
		Type:             backendType,
		SlotName:         appConfig.StorageSlot,
		Locale:           locale,
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		DataDirectory:    appConfig.DataDir,
		MemoryQuotaBytes: appConfig.MemoryQuotaBytes,
		SeedFile:         appConfig.SeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case MemoryBackend:
		if c.MemoryQuotaBytes < 0 {
			return fmt.Errorf("memory quota must not be negative")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
