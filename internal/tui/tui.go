// Package tui is the interactive control panel: type the cards as they
// appear and the sidebar keeps the current advice up to date.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/shoe"
)

// Model is the Bubble Tea model for the control panel
type Model struct {
	tracker *shoe.Tracker
	advisor shoe.Advisor
	logger  *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	snapshot    shoe.Snapshot
	advice      shoe.Advice
	updates     <-chan shoe.Snapshot
	unsubscribe func()
	history     []string
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

// snapshotMsg carries a tracker change made outside the panel, such as a
// watched observation file.
type snapshotMsg shoe.Snapshot

// NewModel creates the control panel
func NewModel(tracker *shoe.Tracker, advisor shoe.Advisor, logger *log.Logger) *Model {
	return NewModelWithOptions(tracker, advisor, logger, false)
}

// NewModelWithOptions creates the control panel with test mode option. In
// test mode log entries are captured and the viewport is never touched.
func NewModelWithOptions(tracker *shoe.Tracker, advisor shoe.Advisor, logger *log.Logger, testMode bool) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Cards as they appear (7, x2, +4, sc), or help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		tracker:     tracker,
		advisor:     advisor,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
		testMode:    testMode,
	}
	m.setSnapshot(tracker.Snapshot())
	return m
}

// Init subscribes to tracker changes
func (m *Model) Init() tea.Cmd {
	m.updates, m.unsubscribe = m.tracker.Subscribe()
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case snapshotMsg:
		m.setSnapshot(shoe.Snapshot(msg))
		return m, m.waitForUpdate()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				m.processAction(strings.TrimSpace(m.actionInput.Value()))
				m.actionInput.SetValue("")
				if m.quitting {
					return m, m.quit()
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	return tea.Sequence(tea.ClearScreen, tea.Quit)
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(1)).
		Width(max(1, m.width-2)).
		Height(max(1, actionHeight)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(30, lipgloss.Width(sidebarContent))
	paneHeight := max(1, m.height-actionHeight-4)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(1, m.width-sidebarWidth-4)
	m.logViewport.SetContent(strings.Join(m.history, "\n"))
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(0)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return lipgloss.Color("#04B575")
	}
	return lipgloss.Color("#626262")
}

// renderSidebarPane shows the advice for the current line
func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	state := m.snapshot.State
	out := m.advice.Output

	b.WriteString(HeaderStyle.Render(" Flip 7 Helper "))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Round %d · shoe %s", m.snapshot.Round, shortID(m.snapshot.ID))))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Numbers: %s\n", NumberStyle.Render(state.Numbers.String()))
	fmt.Fprintf(&b, "Bank (stay now): %d\n", out.CurrentBank)
	var mods []string
	if state.MultiplierX2 {
		mods = append(mods, "x2")
	}
	if state.AddPoints != 0 {
		mods = append(mods, fmt.Sprintf("%+d", state.AddPoints))
	}
	if state.HasSecondChance {
		mods = append(mods, "SC")
	}
	if len(mods) > 0 {
		b.WriteString(InfoStyle.Render("  " + strings.Join(mods, " ")))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Bust next: %s\n", report.Percent(out.BustProbabilityNext))
	fmt.Fprintf(&b, "EV (take 1 then stay): %.2f\n", out.ExpectedValueNext)
	if state.FlipThreeActive {
		fmt.Fprintf(&b, "Flip Three: bust=%s, EV≈%.2f\n", report.Percent(out.BustProbabilityFlipThree), out.ExpectedValueFlipThree)
	} else {
		b.WriteString("Flip Three: not active\n")
	}
	fmt.Fprintf(&b, "Threshold: %s\n", report.Percent(out.Threshold))
	fmt.Fprintf(&b, "Remaining: %d cards\n\n", out.RemainingCards)

	b.WriteString(recommendationStyle(m.advice.Recommendation).Render("Recommendation: " + m.advice.Recommendation.String()))
	b.WriteString("\n\n")

	if len(out.Notes) == 0 {
		b.WriteString(InfoStyle.Render(report.StandardDeckNote))
		b.WriteString("\n")
	}
	for _, n := range out.Notes {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	return b.String()
}

func recommendationStyle(r decision.Recommendation) lipgloss.Style {
	switch r {
	case decision.Take:
		return TakeStyle
	case decision.Stay:
		return StayStyle
	default:
		return NeutralStyle
	}
}

// renderActionPane renders the action input pane
func (m *Model) renderActionPane() string {
	var b strings.Builder
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	if m.focusedPane == 0 {
		b.WriteString(helpStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(helpStyle.Render("Enter to submit • help for commands • Tab to scroll log • Ctrl+C to quit"))
	}
	return b.String()
}

func (m *Model) setSnapshot(snap shoe.Snapshot) {
	m.snapshot = snap
	m.advice = m.advisor.Advise(snap)
}

// AddLogEntry appends a line to the log pane
func (m *Model) AddLogEntry(entry string) {
	m.history = append(m.history, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(strings.Join(m.history, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) addError(entry string) {
	m.AddLogEntry(ErrorStyle.Render(entry))
}

// Advice returns the advice currently shown in the sidebar
func (m *Model) Advice() shoe.Advice {
	return m.advice
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the TUI is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}
