package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	// Uncategorized is the category assigned to records with a blank note.
	Uncategorized = "uncategorized"

	// MaxCents bounds a single amount (100 billion units). Totals of up to
	// about 900k such amounts still fit in an int64.
	MaxCents int64 = 1e13
)

type (
	// Date is a calendar date. The embedded time is midnight in the
	// location the date was derived in.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is one user-entered expense.
	Record struct {
		OccurredAt  time.Time
		DisplayTime string // derived from OccurredAt, never authoritative
		Amount      Money
		Note        string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrStorageWriteFailure = errors.New("storage write failure")
	ErrStorageReadCorrupt  = errors.New("storage read corrupt")
	ErrMissingTimestamp    = errors.New("missing timestamp")
)

// DateOf returns the calendar date of t as seen in loc.
// A nil loc means time.Local.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, loc)}
}

// SameDay reports whether both dates fall on the same year, month and day.
func (d Date) SameDay(other Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Validate rejects negative amounts and amounts above MaxCents.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of both amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// CheckedAdd returns the sum and false if it would overflow int64.
func (m Money) CheckedAdd(other Money) (Money, bool) {
	if other.Cents > 0 && m.Cents > math.MaxInt64-other.Cents {
		return Money{}, false
	}
	if other.Cents < 0 && m.Cents < math.MinInt64-other.Cents {
		return Money{}, false
	}
	return Money{Cents: m.Cents + other.Cents}, true
}

func (r Record) Validate() error {
	if r.OccurredAt.IsZero() {
		return ErrMissingTimestamp
	}
	return r.Amount.Validate()
}

// Category returns the grouping key of the record.
func (r Record) Category() string {
	return CategoryOf(r.Note)
}

// CategoryOf maps a note to its category. Case is preserved: "Food" and
// "food" are distinct categories.
func CategoryOf(note string) string {
	if c := strings.TrimSpace(note); c != "" {
		return c
	}
	return Uncategorized
}
