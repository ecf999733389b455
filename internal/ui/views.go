package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ostap/trackbox/internal/stats"
)

const tableTimeLayout = "02.01.2006 15:04:05"

func (m Model) renderHeader() string {
	title := "TrackBox"
	st := m.ctrl.State()
	if st.UserName != "" {
		title += "  |  " + st.UserName
		if st.LoggedIn() {
			title += " (" + string(m.ctrl.Role()) + ")"
		} else {
			title += " (signed out)"
		}
	}
	tabs := []struct {
		view  View
		label string
	}{
		{ViewScan, "Scan"},
		{ViewHistory, "History"},
		{ViewErrors, "Errors"},
		{ViewStats, "Statistics"},
	}
	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.view == m.currentView {
			parts = append(parts, m.theme.Accent.Render("["+tab.label+"]"))
		} else {
			parts = append(parts, tab.label)
		}
	}
	return m.theme.Header.Render(title) + "  " + strings.Join(parts, "  ")
}

func (m Model) renderCurrent() string {
	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewScan:
		return m.renderScan()
	case ViewHistory:
		return m.renderListing("Scan history", len(m.history))
	case ViewErrors:
		return m.renderListing("Error log", len(m.errLog))
	case ViewStats:
		return m.renderStats()
	}
	return ""
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.theme.Label.Render("enter: sign in  ctrl+r: register  esc: work offline"))
	return b.String()
}

func (m Model) renderScan() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("New scan"))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	if pending := m.ctrl.PendingCount(); pending > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.Offline.Render(fmt.Sprintf("%d record(s) pending sync", pending)))
	}
	return b.String()
}

func (m Model) renderListing(title string, total int) string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString(m.theme.Label.Render(fmt.Sprintf("  (%d)", total)))
	if !m.lastUpdated.IsZero() {
		b.WriteString(m.theme.Label.Render("  updated " + m.lastUpdated.Format(tableTimeLayout)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.body.View())
	return b.String()
}

func (m Model) renderStats() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Statistics"))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n\n")
	b.WriteString(m.body.View())
	return b.String()
}

func (m Model) renderForm() string {
	var b strings.Builder
	for i, in := range m.inputs {
		label := ""
		if i < len(m.labels) {
			label = m.labels[i]
		}
		b.WriteString(m.theme.Label.Render(fmt.Sprintf("%-20s", label)))
		b.WriteString(in.View())
		if i < len(m.inputs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	var parts []string
	switch {
	case !m.onlineKnown:
		parts = append(parts, m.theme.Label.Render("● checking connection"))
	case m.online:
		parts = append(parts, m.theme.Online.Render("● online"))
	default:
		parts = append(parts, m.theme.Offline.Render("● offline"))
	}
	if m.busy {
		parts = append(parts, m.theme.Label.Render("working..."))
	}
	if m.problem != "" {
		parts = append(parts, m.theme.Problem.Render(m.problem))
	} else if m.notice != "" {
		parts = append(parts, m.theme.Notice.Render(m.notice))
	}
	return strings.Join(parts, "  ")
}

func (m Model) helpLine() string {
	common := "ctrl+s scan • ctrl+h history • ctrl+e errors • ctrl+t stats • ctrl+l sign out • ctrl+c quit"
	switch m.currentView {
	case ViewLogin:
		return "enter sign in • ctrl+r register • esc offline • ctrl+c quit"
	case ViewHistory:
		return "r refresh • C clear • ↑/↓ scroll • " + common
	case ViewErrors:
		return "r refresh • ↑/↓ select • d delete • C clear • " + common
	case ViewStats:
		return "enter refresh • ctrl+x export CSV • " + common
	}
	return common
}

// refreshBody re-renders the viewport content for the current view.
func (m *Model) refreshBody() {
	if !m.ready {
		return
	}
	switch m.currentView {
	case ViewHistory:
		m.body.SetContent(m.renderHistoryTable())
		m.body.GotoTop()
	case ViewErrors:
		m.body.SetContent(m.renderErrorsTable())
		m.scrollCursorIntoView()
	case ViewStats:
		m.body.SetContent(m.renderStatsBody())
		m.body.GotoTop()
	}
}

func (m Model) renderHistoryTable() string {
	if len(m.history) == 0 {
		return m.theme.Label.Render("No records")
	}
	var b strings.Builder
	b.WriteString(m.theme.TableHdr.Render(fmt.Sprintf("%-6s %-20s %-14s %-18s %s", "ID", "Time", "Box", "TTN", "Operator")))
	b.WriteString("\n")
	for _, r := range m.history {
		b.WriteString(fmt.Sprintf("%-6d %-20s %-14s %-18s %s\n",
			r.ID, formatWhen(r.OccurredAt(), r.Datetime), r.BoxID, r.TTN, r.UserName))
	}
	return b.String()
}

func (m Model) renderErrorsTable() string {
	if len(m.errLog) == 0 {
		return m.theme.Label.Render("No errors")
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(m.theme.TableHdr.Render(fmt.Sprintf("%-6s %-20s %-14s %-18s %-16s %s", "ID", "Time", "Box", "TTN", "Operator", "Message")))
	b.WriteString("\n")
	for i, r := range m.errLog {
		marker := "  "
		if i == m.cursor {
			marker = m.theme.Accent.Render("▸ ")
		}
		b.WriteString(marker)
		b.WriteString(fmt.Sprintf("%-6d %-20s %-14s %-18s %-16s %s\n",
			r.ID, formatWhen(r.OccurredAt(), r.Datetime), r.BoxID, r.TTN, r.UserName, r.Message))
	}
	return b.String()
}

// scrollCursorIntoView keeps the selected error row inside the viewport.
func (m *Model) scrollCursorIntoView() {
	line := m.cursor + 1 // header row above the records
	switch {
	case line < m.body.YOffset:
		m.body.SetYOffset(line)
	case line >= m.body.YOffset+m.body.Height:
		m.body.SetYOffset(line - m.body.Height + 1)
	}
}

func (m Model) renderStatsBody() string {
	report := m.buildReport()

	var b strings.Builder
	b.WriteString(m.theme.Label.Render(report.Period))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Total scans: %d   Unique operators: %d\n", report.Totals.Scans, report.Totals.UniqueUsers))
	b.WriteString(fmt.Sprintf("Total errors: %d  Operators with errors: %d\n", report.Totals.Errors, report.Totals.ErrorUsers))
	b.WriteString("Most active: " + stats.FormatTop(report.Totals.TopOperator, report.Totals.TopOperatorCount) + "\n")
	b.WriteString("Most errors: " + stats.FormatTop(report.Totals.TopOffender, report.Totals.TopOffenderCount) + "\n")

	b.WriteString("\n")
	b.WriteString(m.theme.TableHdr.Render(fmt.Sprintf("%-12s %-7s %-7s %-22s %s", "Date", "Scans", "Errors", "Leader", "Most errors")))
	b.WriteString("\n")
	if len(report.Daily) == 0 {
		b.WriteString(m.theme.Label.Render("No data"))
		b.WriteString("\n")
	}
	for _, day := range report.Daily {
		b.WriteString(fmt.Sprintf("%-12s %-7d %-7d %-22s %s\n",
			day.Date.Format("02.01.2006"), day.Scans, day.Errors,
			stats.FormatTop(day.TopScanner, day.TopScannerCount),
			stats.FormatTop(day.TopOffender, day.TopOffenderCount)))
	}
	return b.String()
}

// buildReport reduces the fetched streams through the current window.
func (m Model) buildReport() stats.Report {
	window := m.statsWindow()
	scans := stats.FilterByWindow(m.statScans, window)
	errs := stats.FilterByWindow(m.statErrors, window)
	scanCounts := stats.CountByUser(scans)
	errorCounts := stats.CountByUser(errs)

	updated := m.lastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}
	return stats.Report{
		Period:      describeWindow(window),
		Updated:     updated.Format(tableTimeLayout),
		Totals:      stats.Summarize(scanCounts, errorCounts),
		ScanCounts:  scanCounts,
		ErrorCounts: errorCounts,
		Daily:       stats.DailyTimeline(scans, errs),
	}
}

func describeWindow(w stats.Window) string {
	const day = "02.01.2006"
	switch {
	case w.Start.IsZero() && w.End.IsZero():
		return "Period: all data"
	case w.Start.IsZero():
		return "Period: through " + w.End.Format(day)
	case w.End.IsZero():
		return "Period: from " + w.Start.Format(day)
	}
	return "Period: " + w.Start.Format(day) + " – " + w.End.Format(day)
}

func formatWhen(t time.Time, raw string) string {
	if t.IsZero() {
		if raw == "" {
			return "—"
		}
		return raw
	}
	return t.Local().Format(tableTimeLayout)
}
