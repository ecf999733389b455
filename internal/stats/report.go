package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Report is the material behind an exported statistics view.
type Report struct {
	Period      string
	Updated     string
	Totals      Totals
	ScanCounts  map[string]int
	ErrorCounts map[string]int
	Daily       []DayStats
}

const reportDateLayout = "02.01.2006"

// WriteReport renders the statistics view as a semicolon-delimited report
// suitable for spreadsheet import: a summary block, per-operator scan and
// error breakdowns, and the daily activity table.
func WriteReport(w io.Writer, report Report) error {
	out := csv.NewWriter(w)
	out.Comma = ';'

	rows := [][]string{
		{"TrackBox analytics report"},
		{report.Period},
		{"Updated: " + report.Updated},
		{},
		{"Summary"},
		{"Total scans", strconv.Itoa(report.Totals.Scans)},
		{"Unique operators", strconv.Itoa(report.Totals.UniqueUsers)},
		{"Total errors", strconv.Itoa(report.Totals.Errors)},
		{"Operators with errors", strconv.Itoa(report.Totals.ErrorUsers)},
		{"Most active operator", report.Totals.TopOperator, strconv.Itoa(report.Totals.TopOperatorCount)},
		{"Most errors", report.Totals.TopOffender, strconv.Itoa(report.Totals.TopOffenderCount)},
		{},
		{"Scans by operator"},
		{"Operator", "Count"},
	}
	rows = append(rows, countRows(report.ScanCounts)...)
	rows = append(rows,
		[]string{},
		[]string{"Errors by operator"},
		[]string{"Operator", "Count"},
	)
	rows = append(rows, countRows(report.ErrorCounts)...)
	rows = append(rows,
		[]string{},
		[]string{"Daily activity"},
		[]string{"Date", "Scans", "Errors", "Leader", "Most errors"},
	)
	if len(report.Daily) == 0 {
		rows = append(rows, []string{"No data", "—", "—", "—", "—"})
	}
	for _, day := range report.Daily {
		rows = append(rows, []string{
			day.Date.Format(reportDateLayout),
			strconv.Itoa(day.Scans),
			strconv.Itoa(day.Errors),
			FormatTop(day.TopScanner, day.TopScannerCount),
			FormatTop(day.TopOffender, day.TopOffenderCount),
		})
	}

	for _, row := range rows {
		if err := out.Write(row); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// FormatTop renders a leader cell: "name (count)", or the empty sentinel.
func FormatTop(name string, count int) string {
	if count == 0 || name == NoEntry {
		return NoEntry
	}
	return fmt.Sprintf("%s (%d)", name, count)
}

// countRows orders operators by count descending, names ascending on
// ties, so exports are stable run to run.
func countRows(counts map[string]int) [][]string {
	if len(counts) == 0 {
		return [][]string{{"No data", "—"}}
	}
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.name, strconv.Itoa(e.count)})
	}
	return rows
}
