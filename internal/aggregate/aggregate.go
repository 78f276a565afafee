// Package aggregate turns a flat list of expense records into the totals
// and breakdowns shown to the user.
//
// Every function is pure: it reads the slice it is given and never
// modifies it. Sums are kept in integer cents; percentages are computed
// from cents and left unrounded.
package aggregate

import (
	"time"

	"quaderno/internal/core"
)

// DayTotal is one point of the daily series.
type DayTotal struct {
	Date  core.Date
	Total core.Money
}

// Label returns the calendar date as YYYY-MM-DD.
func (d DayTotal) Label() string {
	return d.Date.String()
}

// CategoryShare is the amount spent in one category and its share of the
// grand total, in percent.
type CategoryShare struct {
	Name       string
	Amount     core.Money
	Percentage float64
}

// Summary bundles the four summaries recomputed after every change.
type Summary struct {
	Date       core.Date
	DailyTotal core.Money
	AllTime    core.Money
	Series     []DayTotal
	Categories []CategoryShare
}

// DailyTotal sums the records whose calendar date in loc equals the
// calendar date of ref in loc.
func DailyTotal(records []core.Record, ref time.Time, loc *time.Location) core.Money {
	day := core.DateOf(ref, loc)
	var total core.Money
	for _, r := range records {
		if core.DateOf(r.OccurredAt, loc).SameDay(day) {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// AllTimeTotal sums every record.
func AllTimeTotal(records []core.Record) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// DailySeries groups records by calendar date. Days appear in the order
// they first occur in records.
func DailySeries(records []core.Record, loc *time.Location) []DayTotal {
	index := make(map[string]int)
	series := make([]DayTotal, 0)
	for _, r := range records {
		day := core.DateOf(r.OccurredAt, loc)
		key := day.String()
		i, ok := index[key]
		if !ok {
			i = len(series)
			index[key] = i
			series = append(series, DayTotal{Date: day})
		}
		series[i].Total = series[i].Total.Add(r.Amount)
	}
	return series
}

// CategoryShares groups records by category. Categories appear in the
// order they first occur in records. When the grand total is zero every
// percentage is zero.
func CategoryShares(records []core.Record) []CategoryShare {
	index := make(map[string]int)
	shares := make([]CategoryShare, 0)
	for _, r := range records {
		name := r.Category()
		i, ok := index[name]
		if !ok {
			i = len(shares)
			index[name] = i
			shares = append(shares, CategoryShare{Name: name})
		}
		shares[i].Amount = shares[i].Amount.Add(r.Amount)
	}

	total := AllTimeTotal(records)
	if total.Cents == 0 {
		return shares
	}
	for i := range shares {
		shares[i].Percentage = float64(shares[i].Amount.Cents) * 100 / float64(total.Cents)
	}
	return shares
}

// Compute recomputes all summaries for the calendar date of ref.
func Compute(records []core.Record, ref time.Time, loc *time.Location) Summary {
	return Summary{
		Date:       core.DateOf(ref, loc),
		DailyTotal: DailyTotal(records, ref, loc),
		AllTime:    AllTimeTotal(records),
		Series:     DailySeries(records, loc),
		Categories: CategoryShares(records),
	}
}

// Share looks up a category by name.
func (s Summary) Share(name string) (CategoryShare, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryShare{}, false
}
