package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quaderno/internal/aggregate"
	"quaderno/internal/core"
	"quaderno/internal/log"
	"quaderno/internal/metrics"
)

// ExpenseService turns user input into ledger entries and keeps the sink
// in step with the ledger.
type ExpenseService struct {
	ledger *Ledger
	sink   Sink
	now    func() time.Time
	logger *log.Logger
}

// NewExpenseService wires a ledger to an optional sink. A nil sink skips rendering.
func NewExpenseService(ledger *Ledger, sink Sink, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		ledger: ledger,
		sink:   sink,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// SetClock replaces the time source used to stamp new records.
func (s *ExpenseService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *ExpenseService) Ledger() *Ledger {
	return s.ledger
}

// Start loads the ledger and draws every entry followed by the summaries.
func (s *ExpenseService) Start(ctx context.Context) aggregate.Summary {
	s.ledger.Initialize(ctx)
	return s.Refresh(ctx)
}

// Refresh redraws the full view from the current ledger.
func (s *ExpenseService) Refresh(ctx context.Context) aggregate.Summary {
	records := s.ledger.Records()
	summary := aggregate.Compute(records, s.now(), s.ledger.Locale().Loc())
	if s.sink == nil {
		return summary
	}
	for _, r := range records {
		s.sink.RenderEntry(r)
	}
	RenderSummary(s.sink, summary)
	s.flush(ctx)
	return summary
}

// Submit parses amountText and appends a record with note.
//
// Unparseable or negative input returns an error wrapping
// core.ErrInvalidAmount and leaves the ledger untouched. A storage failure
// still returns the record, which stays visible, together with an error
// wrapping core.ErrStorageWriteFailure.
func (s *ExpenseService) Submit(ctx context.Context, amountText, note string) (core.Record, error) {
	amount, err := core.ParseMoney(amountText)
	if err != nil {
		metrics.IncAppend(metrics.ResultInvalid)
		s.logger.DebugContext(ctx, "Rejected amount", log.FieldOperation, log.OpParse, log.FieldError, err)
		return core.Record{}, fmt.Errorf("amount %q: %w", amountText, err)
	}

	now := s.now()
	rec, err := s.ledger.Append(ctx, amount, note, now)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		metrics.IncAppend(metrics.ResultInvalid)
		return core.Record{}, err
	case err != nil:
		metrics.IncAppend(metrics.ResultError)
	default:
		metrics.IncAppend(metrics.ResultSuccess)
	}

	if s.sink != nil {
		s.sink.RenderEntry(rec)
		RenderSummary(s.sink, aggregate.Compute(s.ledger.Records(), now, s.ledger.Locale().Loc()))
		s.flush(ctx)
	}
	return rec, err
}

// Summary computes the four summaries with ref as "today".
func (s *ExpenseService) Summary(ref time.Time) aggregate.Summary {
	if ref.IsZero() {
		ref = s.now()
	}
	return aggregate.Compute(s.ledger.Records(), ref, s.ledger.Locale().Loc())
}

// Reset clears the ledger. Callers confirm with the user first.
func (s *ExpenseService) Reset(ctx context.Context) error {
	if err := s.ledger.Reset(ctx); err != nil {
		return err
	}
	if s.sink != nil {
		RenderSummary(s.sink, aggregate.Compute(nil, s.now(), s.ledger.Locale().Loc()))
		s.flush(ctx)
	}
	return nil
}

// Resync retries the save after an earlier failure.
func (s *ExpenseService) Resync(ctx context.Context) error {
	return s.ledger.Resync(ctx)
}

func (s *ExpenseService) flush(ctx context.Context) {
	f, ok := s.sink.(Flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		s.logger.WarnContext(ctx, "Rendering failed", log.FieldError, err)
	}
}
