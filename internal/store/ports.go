// Package store persists the expense ledger as one serialized value in a
// named slot. Slot backends only move bytes; encoding and the fail-open
// load policy live in RecordStore.
package store

import (
	"context"

	"quaderno/internal/core"
)

// DefaultSlot is the slot name used when none is configured.
const DefaultSlot = "expenses"

// Slot reads and replaces a single named value.
type Slot interface {
	// ReadSlot returns the stored value. ok is false when nothing is stored.
	ReadSlot(ctx context.Context, name string) (value []byte, ok bool, err error)
	// WriteSlot replaces the stored value in one step.
	WriteSlot(ctx context.Context, name string, value []byte) error
	// DeleteSlot removes the value. Deleting an absent slot is not an error.
	DeleteSlot(ctx context.Context, name string) error
}

// Store is the record-level persistence contract used by the ledger.
type Store interface {
	// Load returns the saved sequence, or an empty one when nothing usable is stored.
	Load(ctx context.Context) []core.Record
	// Save replaces the persisted sequence with records.
	Save(ctx context.Context, records []core.Record) error
	// Clear removes the persisted sequence.
	Clear(ctx context.Context) error
}
