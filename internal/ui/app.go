// Package ui provides the Bubble Tea terminal front-end.
//
// The Update loop is the interactive context: task outcomes arrive as
// DeliveryMsg values pumped from the runner's delivery channel and are
// dispatched here, never on a worker goroutine. Screen-initiated
// operations (login, submit, fetches) run as Bubble Tea commands, which
// likewise execute off the loop and report back as messages.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ostap/trackbox/internal/api"
	"github.com/ostap/trackbox/internal/stats"
	"github.com/ostap/trackbox/internal/tasks"
	"github.com/ostap/trackbox/internal/tracker"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewScan
	ViewHistory
	ViewErrors
	ViewStats
)

// Messages injected from outside the program.
type (
	// DeliveryMsg carries a finished background task for dispatch.
	DeliveryMsg struct{ Delivery tasks.Delivery }
	// SyncedMsg reports how many queued records a drain pass confirmed.
	SyncedMsg int
	// ConnectivityMsg reports a reachability transition.
	ConnectivityMsg bool
)

// Internal command results.
type (
	submissionMsg tracker.Submission
	loginMsg      struct{ reply *api.LoginReply }
	registeredMsg struct{}
	historyMsg    []api.TrackRecord
	errorsMsg     []api.ErrorRecord
	statsMsg      struct {
		scans  []api.TrackRecord
		errors []api.ErrorRecord
	}
	clearedMsg  string
	exportedMsg string
	errMsg      struct{ err error }
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller *tracker.Controller
}

// Model is the root application state for Bubble Tea.
type Model struct {
	appCtx context.Context
	ctrl   *tracker.Controller
	theme  Theme

	currentView View
	width       int
	height      int
	ready       bool
	busy        bool

	online      bool
	onlineKnown bool
	notice      string
	problem     string

	inputs []textinput.Model
	labels []string
	focus  int

	body        viewport.Model
	history     []api.TrackRecord
	errLog      []api.ErrorRecord
	cursor      int
	statScans   []api.TrackRecord
	statErrors  []api.ErrorRecord
	lastUpdated time.Time
}

// New creates the root model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		appCtx: ctx,
		ctrl:   opts.Controller,
		theme:  DefaultTheme(),
	}
	if opts.Controller != nil && opts.Controller.State().LoggedIn() {
		m.enterView(ViewScan)
	} else {
		m.enterView(ViewLogin)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, textinput.Blink)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.body = viewport.New(msg.Width, bodyHeight(msg.Height))
			m.ready = true
		} else {
			m.body.Width = msg.Width
			m.body.Height = bodyHeight(msg.Height)
		}
		m.refreshBody()
		return m, nil

	case DeliveryMsg:
		// Background task hooks run here, on the interactive loop.
		msg.Delivery.Dispatch()
		return m, nil

	case SyncedMsg:
		m.notice = fmt.Sprintf("Synced %d pending record(s)", int(msg))
		return m, nil

	case ConnectivityMsg:
		m.online = bool(msg)
		m.onlineKnown = true
		return m, nil

	case loginMsg:
		m.busy = false
		m.problem = ""
		m.notice = "Signed in as " + m.ctrl.State().UserName
		m.enterView(ViewScan)
		return m, nil

	case registeredMsg:
		m.busy = false
		m.problem = ""
		m.notice = "Registration submitted, waiting for approval"
		return m, nil

	case submissionMsg:
		m.busy = false
		m.problem = ""
		m.notice = msg.Message
		if msg.Status == tracker.StatusOffline {
			m.notice = fmt.Sprintf("%s (%d pending)", msg.Message, m.ctrl.PendingCount())
		}
		m.clearFormValues()
		return m, nil

	case historyMsg:
		m.busy = false
		m.problem = ""
		m.history = msg
		m.lastUpdated = time.Now()
		m.refreshBody()
		return m, nil

	case errorsMsg:
		m.busy = false
		m.problem = ""
		m.errLog = msg
		if m.cursor >= len(m.errLog) {
			m.cursor = 0
		}
		m.lastUpdated = time.Now()
		m.refreshBody()
		return m, nil

	case statsMsg:
		m.busy = false
		m.problem = ""
		m.statScans = msg.scans
		m.statErrors = msg.errors
		m.lastUpdated = time.Now()
		m.refreshBody()
		return m, nil

	case clearedMsg:
		m.busy = false
		m.notice = string(msg)
		return m, m.refreshCurrent()

	case exportedMsg:
		m.busy = false
		m.notice = "Report written to " + string(msg)
		return m, nil

	case errMsg:
		m.busy = false
		m.problem = msg.err.Error()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderCurrent())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+s":
		m.enterView(ViewScan)
		return m, nil

	case "ctrl+h":
		m.enterView(ViewHistory)
		return m.startBusy(), m.fetchHistoryCmd()

	case "ctrl+e":
		m.enterView(ViewErrors)
		return m.startBusy(), m.fetchErrorsCmd()

	case "ctrl+t":
		m.enterView(ViewStats)
		return m.startBusy(), m.fetchStatsCmd()

	case "ctrl+l":
		if m.ctrl.State().LoggedIn() {
			if err := m.ctrl.Logout(); err != nil {
				m.problem = err.Error()
				return m, nil
			}
			m.notice = "Signed out"
		}
		m.enterView(ViewLogin)
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if len(m.inputs) > 0 {
			m.cycleFocus(msg.String() == "shift+tab" || msg.String() == "up")
			return m, nil
		}
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewScan:
		return m.handleScanKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	case ViewErrors:
		return m.handleErrorsKey(msg)
	case ViewStats:
		return m.handleStatsKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		surname := strings.TrimSpace(m.inputs[0].Value())
		password := m.inputs[1].Value()
		if surname == "" || password == "" {
			m.problem = "Enter surname and password"
			return m, nil
		}
		return m.startBusy(), m.loginCmd(surname, password)

	case "ctrl+r":
		surname := strings.TrimSpace(m.inputs[0].Value())
		password := m.inputs[1].Value()
		if surname == "" || password == "" {
			m.problem = "Enter surname and password to register"
			return m, nil
		}
		return m.startBusy(), m.registerCmd(surname, password)

	case "esc":
		// Offline use without a credential: scans queue locally.
		m.enterView(ViewScan)
		return m, nil
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleScanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		boxID := strings.TrimSpace(m.inputs[0].Value())
		ttn := strings.TrimSpace(m.inputs[1].Value())
		if boxID == "" || ttn == "" {
			m.problem = "Enter box ID and tracking number"
			return m, nil
		}
		return m.startBusy(), m.submitCmd(boxID, ttn)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m.startBusy(), m.fetchHistoryCmd()
	case "C":
		return m.startBusy(), m.clearHistoryCmd()
	}
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) handleErrorsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m.startBusy(), m.fetchErrorsCmd()
	case "C":
		return m.startBusy(), m.clearErrorsCmd()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.refreshBody()
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.errLog)-1 {
			m.cursor++
			m.refreshBody()
		}
		return m, nil
	case "d":
		if m.cursor < len(m.errLog) {
			return m.startBusy(), m.deleteErrorCmd(m.errLog[m.cursor].ID)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) handleStatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "ctrl+r":
		return m.startBusy(), m.fetchStatsCmd()
	case "ctrl+x":
		return m.startBusy(), m.exportCmd()
	}
	return m.updateFocusedInput(msg)
}

func (m *Model) cycleFocus(backwards bool) {
	if backwards {
		m.focus--
	} else {
		m.focus++
	}
	if m.focus < 0 {
		m.focus = len(m.inputs) - 1
	}
	if m.focus >= len(m.inputs) {
		m.focus = 0
	}
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) updateFocusedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) startBusy() Model {
	m.busy = true
	m.problem = ""
	return m
}

func (m *Model) clearFormValues() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	if len(m.inputs) > 0 {
		m.focus = 0
		m.inputs[0].Focus()
		for i := 1; i < len(m.inputs); i++ {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) enterView(v View) {
	m.currentView = v
	m.focus = 0
	m.cursor = 0
	switch v {
	case ViewLogin:
		m.inputs = newInputs("surname", "password")
		m.inputs[1].EchoMode = textinput.EchoPassword
		m.labels = []string{"Surname", "Password"}
	case ViewScan:
		m.inputs = newInputs("box id", "tracking number")
		m.labels = []string{"Box ID", "TTN"}
	case ViewStats:
		m.inputs = newInputs("2024-01-31", "2024-01-31", "tracking_report.csv")
		m.labels = []string{"From (YYYY-MM-DD)", "To (YYYY-MM-DD)", "Export path"}
	default:
		m.inputs = nil
		m.labels = nil
	}
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
	m.refreshBody()
}

func newInputs(placeholders ...string) []textinput.Model {
	inputs := make([]textinput.Model, len(placeholders))
	for i, placeholder := range placeholders {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 64
		in.Width = 32
		inputs[i] = in
	}
	return inputs
}

func (m Model) refreshCurrent() tea.Cmd {
	switch m.currentView {
	case ViewHistory:
		return m.fetchHistoryCmd()
	case ViewErrors:
		return m.fetchErrorsCmd()
	case ViewStats:
		return m.fetchStatsCmd()
	}
	return nil
}

// statsWindow parses the date inputs into a normalized window.
func (m Model) statsWindow() stats.Window {
	parse := func(value string) time.Time {
		value = strings.TrimSpace(value)
		if value == "" {
			return time.Time{}
		}
		t, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	if len(m.inputs) < 2 {
		return stats.Window{}
	}
	return stats.WindowFromDates(parse(m.inputs[0].Value()), parse(m.inputs[1].Value()))
}

func bodyHeight(total int) int {
	h := total - 8
	if h < 3 {
		h = 3
	}
	return h
}

// Commands: each runs off the interactive loop and reports back as a message.

func (m Model) loginCmd(surname, password string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		reply, err := ctrl.Login(ctx, surname, password)
		if err != nil {
			return errMsg{err}
		}
		return loginMsg{reply}
	}
}

func (m Model) registerCmd(surname, password string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		if err := ctrl.Register(ctx, surname, password); err != nil {
			return errMsg{err}
		}
		return registeredMsg{}
	}
}

func (m Model) submitCmd(boxID, ttn string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		sub, err := ctrl.SubmitRecord(ctx, boxID, ttn)
		if err != nil {
			return errMsg{err}
		}
		return submissionMsg(sub)
	}
}

func (m Model) fetchHistoryCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		records, err := ctrl.FetchHistory(ctx)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(records)
	}
}

func (m Model) fetchErrorsCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		records, err := ctrl.FetchErrors(ctx)
		if err != nil {
			return errMsg{err}
		}
		return errorsMsg(records)
	}
}

func (m Model) fetchStatsCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		scans, errs, err := ctrl.FetchStatistics(ctx)
		if err != nil {
			return errMsg{err}
		}
		return statsMsg{scans: scans, errors: errs}
	}
}

func (m Model) clearHistoryCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		if err := ctrl.ClearHistory(ctx); err != nil {
			return errMsg{err}
		}
		return clearedMsg("History cleared")
	}
}

func (m Model) deleteErrorCmd(id int64) tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		if err := ctrl.DeleteError(ctx, id); err != nil {
			return errMsg{err}
		}
		return clearedMsg("Error entry deleted")
	}
}

func (m Model) clearErrorsCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.appCtx
	return func() tea.Msg {
		if err := ctrl.ClearErrors(ctx); err != nil {
			return errMsg{err}
		}
		return clearedMsg("Error log cleared")
	}
}

func (m Model) exportCmd() tea.Cmd {
	report := m.buildReport()
	path := "tracking_report.csv"
	if len(m.inputs) >= 3 {
		if v := strings.TrimSpace(m.inputs[2].Value()); v != "" {
			path = v
		}
	}
	return func() tea.Msg {
		file, err := os.Create(path)
		if err != nil {
			return errMsg{fmt.Errorf("create report: %w", err)}
		}
		defer file.Close()
		if err := stats.WriteReport(file, report); err != nil {
			return errMsg{err}
		}
		return exportedMsg(path)
	}
}

// Run starts the Bubble Tea program and wires external event sources.
func Run(ctx context.Context, opts Options, runner *tasks.Runner, bind func(send func(tea.Msg))) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if bind != nil {
		bind(p.Send)
	}

	// Pump background task deliveries into the interactive loop.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-runner.Deliveries():
				p.Send(DeliveryMsg{Delivery: d})
			}
		}
	}()

	_, err := p.Run()
	return err
}
