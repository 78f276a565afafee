package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"quaderno/internal/core"
	"quaderno/internal/log"
	"quaderno/internal/metrics"
	"quaderno/internal/store"
)

// Ledger is the ordered, append-only expense list. It is the only writer
// of its store; the mutex lets HTTP handlers share one instance.
type Ledger struct {
	mu       sync.Mutex
	store    store.Store
	locale   core.Locale
	records  []core.Record
	pending  bool
	revision uint64
	logger   *log.Logger
}

func NewLedger(st store.Store, locale core.Locale, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	return &Ledger{
		store:   st,
		locale:  locale,
		records: []core.Record{},
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

// Initialize replaces the in-memory list with whatever the store holds.
func (l *Ledger) Initialize(ctx context.Context) []core.Record {
	loaded := l.store.Load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append([]core.Record(nil), loaded...)
	l.pending = false
	l.revision++
	metrics.SetLedgerState(len(l.records), false)
	l.logger.InfoContext(ctx, "Ledger loaded", log.FieldRecords, len(l.records))
	return l.snapshot()
}

// Append records a new expense at now and persists the full list.
//
// A negative or oversized amount, or one that would overflow the all-time
// total, returns core.ErrInvalidAmount and changes nothing. When
// the save fails the record is kept in memory, the ledger is marked
// pending, and the returned error wraps core.ErrStorageWriteFailure.
func (l *Ledger) Append(ctx context.Context, amount core.Money, note string, now time.Time) (core.Record, error) {
	if err := amount.Validate(); err != nil {
		return core.Record{}, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	rec := core.Record{
		OccurredAt:  now.UTC(),
		DisplayTime: l.locale.Display(now),
		Amount:      amount,
		Note:        note,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.total().CheckedAdd(amount); !ok {
		return core.Record{}, fmt.Errorf("all-time total would overflow: %w", core.ErrInvalidAmount)
	}
	l.records = append(l.records, rec)
	l.revision++

	if err := l.store.Save(ctx, l.snapshot()); err != nil {
		l.pending = true
		metrics.SetLedgerState(len(l.records), true)
		l.logger.WarnContext(ctx, "Expense kept in memory only",
			log.FieldOperation, log.OpAppend, log.FieldPending, true, log.FieldError, err)
		return rec, fmt.Errorf("persist expense: %w", err)
	}
	l.pending = false
	metrics.SetLedgerState(len(l.records), false)
	l.logger.DebugContext(ctx, "Expense appended",
		log.FieldAmount, rec.Amount.Cents,
		log.FieldCategory, rec.Category(),
		log.FieldRecords, len(l.records))
	return rec, nil
}

// Resync saves the in-memory list if an earlier save failed.
func (l *Ledger) Resync(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pending {
		return nil
	}
	if err := l.save(ctx); err != nil {
		return fmt.Errorf("resync ledger: %w", err)
	}
	l.logger.InfoContext(ctx, "Ledger resynchronized", log.FieldOperation, log.OpResync, log.FieldRecords, len(l.records))
	return nil
}

// Rewrite saves the in-memory list unconditionally, replacing whatever the
// slot holds with the current encoding. Records skipped on load are dropped.
func (l *Ledger) Rewrite(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(ctx); err != nil {
		return fmt.Errorf("rewrite ledger: %w", err)
	}
	return nil
}

func (l *Ledger) save(ctx context.Context) error {
	if err := l.store.Save(ctx, l.snapshot()); err != nil {
		return err
	}
	l.pending = false
	metrics.SetLedgerState(len(l.records), false)
	return nil
}

// Reset removes every record from the store and from memory. If the store
// cannot be cleared nothing changes.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	removed := len(l.records)
	l.records = []core.Record{}
	l.pending = false
	l.revision++
	metrics.SetLedgerState(0, false)
	l.logger.InfoContext(ctx, "Ledger reset", log.FieldOperation, log.OpReset, log.FieldRecords, removed)
	return nil
}

// Records returns a copy of the list in insertion order.
func (l *Ledger) Records() []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Snapshot returns a copy of the list together with its revision. The
// revision changes on every mutation.
func (l *Ledger) Snapshot() ([]core.Record, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(), l.revision
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Pending reports whether the in-memory list is ahead of the store.
func (l *Ledger) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Locale returns the locale used for display strings and date grouping.
func (l *Ledger) Locale() core.Locale {
	return l.locale
}

// total sums the records, saturating at math.MaxInt64 so that an overflowing
// loaded list still blocks further appends.
func (l *Ledger) total() core.Money {
	var sum core.Money
	for _, r := range l.records {
		next, ok := sum.CheckedAdd(r.Amount)
		if !ok {
			return core.Money{Cents: math.MaxInt64}
		}
		sum = next
	}
	return sum
}

func (l *Ledger) snapshot() []core.Record {
	out := make([]core.Record, len(l.records))
	copy(out, l.records)
	return out
}
