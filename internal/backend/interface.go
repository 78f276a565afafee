package backend

import (
	"context"

	"quaderno/internal/core"
	"quaderno/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// HealthFunc reports whether the backend can currently serve requests
type HealthFunc func(ctx context.Context) error

// BackendResult contains the record store and optional lifecycle hooks
type BackendResult struct {
	Store   store.Store
	Slot    store.Slot
	Cleanup CleanupFunc
	Health  HealthFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a record store based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Slot name and presentation locale shared by every backend
	SlotName string
	Locale   core.Locale

	// SQLite specific
	SQLiteDBPath string

	// File specific
	DataDirectory string

	// Memory specific
	MemoryQuotaBytes int
	SeedFile         string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	FileBackend   BackendType = "file"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, FileBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
