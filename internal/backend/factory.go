package backend

import (
	"context"
	"fmt"

	"quaderno/internal/log"
	"quaderno/internal/storage"
	"quaderno/internal/store"
	"quaderno/internal/store/file"
	"quaderno/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStore),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case FileBackend:
		result, err = f.createFileBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	storeLogger := f.logger.With(log.FieldBackend, config.Type.String())
	result.Store = store.NewRecordStore(result.Slot, config.SlotName, config.Locale, storeLogger)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", repo.SchemaVersion())

	return &BackendResult{
		Slot:    repo,
		Cleanup: repo.Close,
		Health:  repo.Ping,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	fs, err := file.New(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{Slot: fs}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var (
		ms  *memory.Store
		err error
	)
	if config.SeedFile != "" {
		name := config.SlotName
		if name == "" {
			name = store.DefaultSlot
		}
		ms, err = memory.NewFromFile(config.MemoryQuotaBytes, name, config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
	} else {
		ms = memory.New(config.MemoryQuotaBytes)
	}

	f.logger.Info("Initialized memory backend",
		"quota_bytes", config.MemoryQuotaBytes,
		"seed_file", config.SeedFile)

	return &BackendResult{Slot: ms}, nil
}
