package stats

import (
	"testing"
	"time"
)

// event is a minimal Event for tests.
type event struct {
	when time.Time
	user string
}

func (e event) OccurredAt() time.Time { return e.when }
func (e event) Operator() string      { return e.user }

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.Local)
}

func TestFilterByWindow_InclusiveBounds(t *testing.T) {
	events := []event{
		{at(1, 8), "a"},
		{at(2, 8), "b"},
		{at(3, 8), "c"},
	}
	window := WindowFromDates(at(2, 0), at(2, 0))

	got := FilterByWindow(events, window)
	if len(got) != 1 || got[0].user != "b" {
		t.Fatalf("filtered = %+v, want only the middle record", got)
	}
}

func TestFilterByWindow_OpenBoundsAndUnparseable(t *testing.T) {
	events := []event{
		{at(1, 8), "a"},
		{time.Time{}, "broken"},
		{at(3, 8), "c"},
	}

	got := FilterByWindow(events, Window{Start: at(2, 0)})
	if len(got) != 1 || got[0].user != "c" {
		t.Fatalf("filtered = %+v, want only c", got)
	}

	got = FilterByWindow(events, Window{})
	if len(got) != 2 {
		t.Fatalf("filtered = %+v, want both parseable records", got)
	}
}

func TestWindow_NormalizeSwapsReversedBounds(t *testing.T) {
	w := Window{Start: at(5, 0), End: at(2, 0)}.Normalize()
	if !w.Start.Equal(at(2, 0)) || !w.End.Equal(at(5, 0)) {
		t.Fatalf("normalized = %+v, want swapped bounds", w)
	}
}

func TestCountByUser_BlankNamesUsePlaceholder(t *testing.T) {
	events := []event{
		{at(1, 8), "Koval"},
		{at(1, 9), "Koval"},
		{at(1, 10), "  "},
		{at(1, 11), ""},
	}

	counts := CountByUser(events)
	if counts["Koval"] != 2 {
		t.Fatalf("counts[Koval] = %d, want 2", counts["Koval"])
	}
	if counts[UnknownUser] != 2 {
		t.Fatalf("counts[%q] = %d, want 2", UnknownUser, counts[UnknownUser])
	}
}

func TestTopEntry(t *testing.T) {
	tests := []struct {
		name      string
		counts    map[string]int
		wantName  string
		wantCount int
	}{
		{"empty yields sentinel", map[string]int{}, NoEntry, 0},
		{"nil yields sentinel", nil, NoEntry, 0},
		{"single", map[string]int{"a": 3}, "a", 3},
		{"max wins", map[string]int{"a": 1, "b": 5, "c": 2}, "b", 5},
		{"tie resolves lexicographically", map[string]int{"zoe": 4, "amy": 4, "mid": 4}, "amy", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, count := TopEntry(tt.counts)
			if name != tt.wantName || count != tt.wantCount {
				t.Errorf("TopEntry = (%q, %d), want (%q, %d)", name, count, tt.wantName, tt.wantCount)
			}
		})
	}
}

func TestDailyTimeline_GroupsByLocalDateNewestFirst(t *testing.T) {
	scans := []event{
		{at(1, 8), "a"},
		{at(1, 9), "a"},
		{at(1, 10), "b"},
		{at(3, 8), "c"},
		{time.Time{}, "skipped"},
	}
	errs := []event{
		{at(1, 12), "b"},
		{at(2, 8), "b"},
	}

	timeline := DailyTimeline(scans, errs)
	if len(timeline) != 3 {
		t.Fatalf("timeline days = %d, want 3", len(timeline))
	}

	if !timeline[0].Date.Equal(at(3, 0)) || !timeline[1].Date.Equal(at(2, 0)) || !timeline[2].Date.Equal(at(1, 0)) {
		t.Fatalf("dates = %v %v %v, want descending", timeline[0].Date, timeline[1].Date, timeline[2].Date)
	}

	day1 := timeline[2]
	if day1.Scans != 3 || day1.Errors != 1 {
		t.Fatalf("day1 = %+v, want 3 scans 1 error", day1)
	}
	if day1.TopScanner != "a" || day1.TopScannerCount != 2 {
		t.Fatalf("day1 leader = %q (%d), want a (2)", day1.TopScanner, day1.TopScannerCount)
	}
	if day1.TopOffender != "b" || day1.TopOffenderCount != 1 {
		t.Fatalf("day1 offender = %q (%d), want b (1)", day1.TopOffender, day1.TopOffenderCount)
	}

	day2 := timeline[1]
	if day2.Scans != 0 || day2.Errors != 1 || day2.TopScanner != NoEntry {
		t.Fatalf("day2 = %+v, want error-only day with scan sentinel", day2)
	}
}

func TestSortByTimeDesc_UnparseableLast(t *testing.T) {
	events := []event{
		{time.Time{}, "x"},
		{at(1, 8), "old"},
		{at(3, 8), "new"},
		{time.Time{}, "y"},
	}

	SortByTimeDesc(events)

	wantOrder := []string{"new", "old", "x", "y"}
	for i, want := range wantOrder {
		if events[i].user != want {
			t.Fatalf("order = %+v, want %v", events, wantOrder)
		}
	}
}

func TestSummarize(t *testing.T) {
	totals := Summarize(
		map[string]int{"a": 3, "b": 1},
		map[string]int{"b": 2},
	)
	if totals.Scans != 4 || totals.UniqueUsers != 2 {
		t.Fatalf("totals = %+v, want 4 scans 2 users", totals)
	}
	if totals.Errors != 2 || totals.ErrorUsers != 1 {
		t.Fatalf("totals = %+v, want 2 errors 1 error user", totals)
	}
	if totals.TopOperator != "a" || totals.TopOperatorCount != 3 {
		t.Fatalf("top operator = %q (%d), want a (3)", totals.TopOperator, totals.TopOperatorCount)
	}
	if totals.TopOffender != "b" || totals.TopOffenderCount != 2 {
		t.Fatalf("top offender = %q (%d), want b (2)", totals.TopOffender, totals.TopOffenderCount)
	}

	empty := Summarize(nil, nil)
	if empty.TopOperator != NoEntry || empty.TopOperatorCount != 0 {
		t.Fatalf("empty totals = %+v, want sentinel leader", empty)
	}
}
