// Package window resolves the calendar ranges used by history, totals and
// the activity and meal filters.
package window

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const DayLayout = "2006-01-02"

// Window is a closed range [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the closed window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// View selects the fallback used for an unrecognized period.
type View int

const (
	// HistoryView falls back to the whole current day.
	HistoryView View = iota
	// TotalsView falls back to the start of the day up to now.
	TotalsView
)

// Query is the raw window input read from a request.
type Query struct {
	Period string
	Start  string
	End    string
}

// Normalize trims and case-folds a query word such as a period or sort order.
func Normalize(s string) string {
	// Casers carry state and cannot be shared between requests.
	return cases.Fold().String(strings.TrimSpace(s))
}

// ParseDay parses a yyyy-MM-dd string as the start of that day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last second of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

// StartOfWeek returns the Monday starting t's ISO week.
func StartOfWeek(t time.Time) time.Time {
	sd := StartOfDay(t)
	offset := (int(sd.Weekday()) + 6) % 7
	return sd.AddDate(0, 0, -offset)
}

func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Second)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Second)
}

// Resolve turns a query into a window. now must already be in the
// application's location; explicit dates are parsed in that location.
//
// Both start and end must parse for the explicit range to apply. Otherwise the
// period decides, defaulting to the current week.
func Resolve(view View, q Query, now time.Time) Window {
	loc := now.Location()
	if s, ok := ParseDay(q.Start, loc); ok {
		if e, ok := ParseDay(q.End, loc); ok {
			return Window{Start: s, End: EndOfDay(e)}
		}
	}

	switch Normalize(q.Period) {
	case "", "week":
		return Window{Start: StartOfWeek(now), End: EndOfWeek(now)}
	case "month":
		return Window{Start: StartOfMonth(now), End: EndOfMonth(now)}
	case "day":
		return Window{Start: StartOfDay(now), End: EndOfDay(now)}
	}
	if view == TotalsView {
		return Window{Start: StartOfDay(now), End: now}
	}
	return Window{Start: StartOfDay(now), End: EndOfDay(now)}
}

// Range is a half-open range [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

// DayRange covers one calendar day.
func DayRange(day time.Time) Range {
	sd := StartOfDay(day)
	return Range{From: sd, To: sd.AddDate(0, 0, 1)}
}

// SpanRange covers every day from start through end.
func SpanRange(start, end time.Time) Range {
	return Range{From: StartOfDay(start), To: StartOfDay(end).AddDate(0, 0, 1)}
}

// PeriodStart returns the lower bound for the "week" and "month" filter
// periods. Other values report false.
func PeriodStart(period string, now time.Time) (time.Time, bool) {
	switch Normalize(period) {
	case "week":
		return StartOfWeek(now), true
	case "month":
		return StartOfMonth(now), true
	}
	return time.Time{}, false
}
