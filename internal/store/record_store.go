package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quaderno/internal/core"
	"quaderno/internal/log"
	"quaderno/internal/metrics"
)

// RecordStore implements Store on top of a Slot.
type RecordStore struct {
	slot   Slot
	name   string
	codec  Codec
	logger *log.Logger
}

// NewRecordStore creates a store writing to the named slot. An empty name
// selects DefaultSlot.
func NewRecordStore(slot Slot, name string, locale core.Locale, logger *log.Logger) *RecordStore {
	if name == "" {
		name = DefaultSlot
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordStore{
		slot:   slot,
		name:   name,
		codec:  Codec{Locale: locale},
		logger: logger.WithComponent(log.ComponentStore).With(log.FieldSlot, name),
	}
}

// Name returns the slot name.
func (s *RecordStore) Name() string { return s.name }

// Load never fails. Read errors and corrupt content are logged and
// reported as an empty ledger.
func (s *RecordStore) Load(ctx context.Context) []core.Record {
	data, ok, err := s.slot.ReadSlot(ctx, s.name)
	if err != nil {
		s.logger.WarnContext(ctx, "Reading stored expenses failed, starting empty",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		metrics.IncStoreLoad(metrics.ResultError)
		return []core.Record{}
	}
	if !ok {
		metrics.IncStoreLoad(metrics.LoadAbsent)
		return []core.Record{}
	}

	records, skipped, err := s.codec.Decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored expenses are unreadable, starting empty",
			log.FieldOperation, log.OpLoad, log.FieldBytes, len(data), log.FieldError, err)
		metrics.IncStoreLoad(metrics.LoadCorrupt)
		return []core.Record{}
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped unreadable stored expenses",
			log.FieldOperation, log.OpLoad, log.FieldSkipped, skipped, log.FieldRecords, len(records))
		metrics.AddSkippedRecords(skipped)
	}
	metrics.IncStoreLoad(metrics.LoadOK)
	s.logger.DebugContext(ctx, "Loaded stored expenses", log.FieldRecords, len(records))
	if records == nil {
		records = []core.Record{}
	}
	return records
}

// Save replaces the slot with the full sequence.
func (s *RecordStore) Save(ctx context.Context, records []core.Record) error {
	start := time.Now()
	data, err := s.codec.Encode(records)
	if err != nil {
		metrics.ObserveStoreSave(metrics.ResultError, time.Since(start))
		return fmt.Errorf("%w: encode %d records: %w", core.ErrStorageWriteFailure, len(records), err)
	}
	if err := s.slot.WriteSlot(ctx, s.name, data); err != nil {
		metrics.ObserveStoreSave(metrics.ResultError, time.Since(start))
		s.logger.ErrorContext(ctx, "Saving expenses failed",
			log.FieldOperation, log.OpSave, log.FieldRecords, len(records), log.FieldError, err)
		return wrapWrite("write slot "+s.name, err)
	}
	metrics.ObserveStoreSave(metrics.ResultSuccess, time.Since(start))
	s.logger.DebugContext(ctx, "Saved expenses", log.FieldRecords, len(records), log.FieldBytes, len(data))
	return nil
}

// Clear removes the slot.
func (s *RecordStore) Clear(ctx context.Context) error {
	if err := s.slot.DeleteSlot(ctx, s.name); err != nil {
		s.logger.ErrorContext(ctx, "Clearing expenses failed", log.FieldOperation, log.OpClear, log.FieldError, err)
		return wrapWrite("delete slot "+s.name, err)
	}
	s.logger.InfoContext(ctx, "Cleared stored expenses", log.FieldOperation, log.OpClear)
	return nil
}

func wrapWrite(op string, err error) error {
	if errors.Is(err, core.ErrStorageWriteFailure) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStorageWriteFailure, op, err)
}
