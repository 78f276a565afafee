package core

import (
	"fmt"
	"time"
)

// DefaultDisplayLayout renders instants as "dd/mm/yyyy, hh:mm".
const DefaultDisplayLayout = "02/01/2006, 15:04"

// Locale decides how instants become calendar dates and display strings.
type Locale struct {
	Location *time.Location
	Layout   string
}

// NewLocale resolves an IANA zone name. An empty name or "Local" selects
// the process time zone.
func NewLocale(zone, layout string) (Locale, error) {
	loc := time.Local
	if zone != "" && zone != "Local" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return Locale{}, fmt.Errorf("load time zone %q: %w", zone, err)
		}
		loc = l
	}
	if layout == "" {
		layout = DefaultDisplayLayout
	}
	return Locale{Location: loc, Layout: layout}, nil
}

// Loc returns the configured location, falling back to time.Local.
func (l Locale) Loc() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

// Display formats t for humans.
func (l Locale) Display(t time.Time) string {
	layout := l.Layout
	if layout == "" {
		layout = DefaultDisplayLayout
	}
	return t.In(l.Loc()).Format(layout)
}

// DateOf returns the calendar date of t in this locale.
func (l Locale) DateOf(t time.Time) Date {
	return DateOf(t, l.Loc())
}
