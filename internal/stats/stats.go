// Package stats reduces raw history and error streams into per-operator
// counts and a daily timeline, scoped by an adjustable time window.
package stats

import (
	"sort"
	"strings"
	"time"
)

// Event is any record carrying a timestamp and an operator name. A zero
// OccurredAt marks an unparseable timestamp.
type Event interface {
	OccurredAt() time.Time
	Operator() string
}

const (
	// UnknownUser labels records with a blank or absent operator name.
	UnknownUser = "Unknown user"
	// NoEntry is the sentinel name TopEntry yields for empty input.
	NoEntry = "—"
)

// Window scopes statistics to [Start, End], inclusive on each bound that
// is set. A zero bound is unbounded on that side.
type Window struct {
	Start time.Time
	End   time.Time
}

// Normalize swaps the bounds when both are set out of order.
func (w Window) Normalize() Window {
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		w.Start, w.End = w.End, w.Start
	}
	return w
}

// Contains reports whether t falls within the window. Zero timestamps
// never match.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// WindowFromDates builds a window from optional calendar dates in local
// time: the start bound opens at 00:00:00, the end bound closes at
// 23:59:59 of its day.
func WindowFromDates(start, end time.Time) Window {
	var w Window
	if !start.IsZero() {
		w.Start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	}
	if !end.IsZero() {
		w.End = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.Local)
	}
	return w.Normalize()
}

// FilterByWindow keeps events whose timestamp, in local time, falls
// within the window. Events without a parseable timestamp are dropped.
func FilterByWindow[T Event](events []T, w Window) []T {
	filtered := make([]T, 0, len(events))
	for _, event := range events {
		if w.Contains(event.OccurredAt().Local()) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// CountByUser maps operator name to occurrence count. Blank names fall
// back to the UnknownUser placeholder.
func CountByUser[T Event](events []T) map[string]int {
	counts := make(map[string]int)
	for _, event := range events {
		counts[operatorLabel(event)]++
	}
	return counts
}

// TopEntry returns the entry with the highest count. Ties resolve to the
// lexicographically smallest name so results are deterministic. Empty
// input yields the NoEntry sentinel with count 0.
func TopEntry(counts map[string]int) (string, int) {
	topName, topCount := NoEntry, 0
	for name, count := range counts {
		if count > topCount || (count == topCount && topCount > 0 && name < topName) {
			topName, topCount = name, count
		}
	}
	return topName, topCount
}

// DayStats aggregates one local calendar date.
type DayStats struct {
	Date             time.Time
	Scans            int
	Errors           int
	TopScanner       string
	TopScannerCount  int
	TopOffender      string
	TopOffenderCount int
}

// DailyTimeline groups both streams by the local calendar date of each
// timestamp and computes per-date counts and leaders. Events without a
// parseable timestamp are skipped. Dates come back most recent first.
func DailyTimeline[S Event, E Event](scans []S, errors []E) []DayStats {
	type bucket struct {
		scans      int
		errors     int
		scanUsers  map[string]int
		errorUsers map[string]int
	}
	days := make(map[time.Time]*bucket)
	ensure := func(day time.Time) *bucket {
		b, ok := days[day]
		if !ok {
			b = &bucket{scanUsers: make(map[string]int), errorUsers: make(map[string]int)}
			days[day] = b
		}
		return b
	}

	for _, event := range scans {
		when := event.OccurredAt()
		if when.IsZero() {
			continue
		}
		b := ensure(localDate(when))
		b.scans++
		b.scanUsers[operatorLabel(event)]++
	}
	for _, event := range errors {
		when := event.OccurredAt()
		if when.IsZero() {
			continue
		}
		b := ensure(localDate(when))
		b.errors++
		b.errorUsers[operatorLabel(event)]++
	}

	timeline := make([]DayStats, 0, len(days))
	for day, b := range days {
		topScanner, topScannerCount := TopEntry(b.scanUsers)
		topOffender, topOffenderCount := TopEntry(b.errorUsers)
		timeline = append(timeline, DayStats{
			Date:             day,
			Scans:            b.scans,
			Errors:           b.errors,
			TopScanner:       topScanner,
			TopScannerCount:  topScannerCount,
			TopOffender:      topOffender,
			TopOffenderCount: topOffenderCount,
		})
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Date.After(timeline[j].Date)
	})
	return timeline
}

// SortByTimeDesc orders events newest first. Events without a parseable
// timestamp sort last, keeping their relative order.
func SortByTimeDesc[T Event](events []T) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt().After(events[j].OccurredAt())
	})
}

// Totals summarizes the filtered view.
type Totals struct {
	Scans            int
	UniqueUsers      int
	Errors           int
	ErrorUsers       int
	TopOperator      string
	TopOperatorCount int
	TopOffender      string
	TopOffenderCount int
}

// Summarize derives totals from per-operator counts.
func Summarize(scanCounts, errorCounts map[string]int) Totals {
	totals := Totals{
		UniqueUsers: len(scanCounts),
		ErrorUsers:  len(errorCounts),
	}
	for _, count := range scanCounts {
		totals.Scans += count
	}
	for _, count := range errorCounts {
		totals.Errors += count
	}
	totals.TopOperator, totals.TopOperatorCount = TopEntry(scanCounts)
	totals.TopOffender, totals.TopOffenderCount = TopEntry(errorCounts)
	return totals
}

func localDate(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

func operatorLabel(event Event) string {
	if name := strings.TrimSpace(event.Operator()); name != "" {
		return name
	}
	return UnknownUser
}
