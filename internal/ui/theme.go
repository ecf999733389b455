package ui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the lipgloss styles the views share.
type Theme struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Online   lipgloss.Style
	Offline  lipgloss.Style
	Notice   lipgloss.Style
	Problem  lipgloss.Style
	Help     lipgloss.Style
	TableHdr lipgloss.Style
	Accent   lipgloss.Style
}

// DefaultTheme returns the standard dark palette.
func DefaultTheme() Theme {
	return Theme{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8fafc")).Background(lipgloss.Color("#1c2640")).Padding(0, 1),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#cbd5f5")),
		Online:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
		Offline:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#facc15")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		Problem:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		Help:     lipgloss.NewStyle().Faint(true),
		TableHdr: lipgloss.NewStyle().Bold(true).Underline(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
	}
}
