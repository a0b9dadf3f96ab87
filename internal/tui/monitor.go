// Package tui implements the live monitor view over a running daemon's
// diagnostics socket.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vivekchamoli/legionaid/internal/bus"
	"github.com/vivekchamoli/legionaid/internal/diag"
	"github.com/vivekchamoli/legionaid/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type statusMsg struct {
	status  engine.Status
	signals []bus.Signal
	err     error
}

type tickMsg time.Time

// Model is the monitor's bubbletea model.
type Model struct {
	addr      string
	spin      spinner.Model
	status    engine.Status
	signals   []bus.Signal
	err       error
	connected bool
}

// NewModel creates a monitor pointed at the daemon's diagnostics
// address.
func NewModel(addr string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	return Model{addr: addr, spin: sp}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, fetch(m.addr))
}

// fetch queries the daemon off the UI goroutine.
func fetch(addr string) tea.Cmd {
	return func() tea.Msg {
		st, err := diag.FetchStatus(addr)
		if err != nil {
			return statusMsg{err: err}
		}
		sigs, _ := diag.FetchSignals(addr)
		return statusMsg{status: st, signals: sigs}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.connected = true
			m.status = msg.status
			m.signals = msg.signals
		}
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case tickMsg:
		return m, fetch(m.addr)

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("legionaid monitor"))
	b.WriteString("\n\n")

	if !m.connected {
		b.WriteString(m.spin.View())
		b.WriteString(" connecting to ")
		b.WriteString(m.addr)
		if m.err != nil {
			b.WriteString("\n" + alertStyle.Render(m.err.Error()))
		}
		b.WriteString("\n\n" + helpStyle.Render("q to quit"))
		return b.String()
	}

	st := m.status
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	mode := okStyle.Render(string(st.Mode))
	if st.Mode != bus.ModeNormal {
		mode = alertStyle.Render(string(st.Mode))
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", "mode")))
	b.WriteString(mode)
	if st.Emergency {
		b.WriteString(" " + alertStyle.Render("EMERGENCY"))
	}
	if st.Paused {
		b.WriteString(" " + alertStyle.Render("(paused)"))
	}
	b.WriteString("\n")

	row("agents", strings.Join(st.Agents, ", "))
	row("cycles", fmt.Sprintf("%d (%d skipped, %d rejected)",
		st.Counters.Cycles, st.Counters.Skipped, st.Counters.Rejected))
	row("actions", fmt.Sprintf("%d (%d conflicts resolved)",
		st.Counters.Actions, st.Counters.Conflicts))
	row("priority", fmt.Sprintf("batt %.1f  perf %.1f  therm %.1f  ux %.1f",
		st.Priority.BatteryConservation, st.Priority.Performance,
		st.Priority.ThermalManagement, st.Priority.UserExperience))
	if !st.LastCycleAt.IsZero() {
		row("last cycle", st.LastCycleAt.Format(time.TimeOnly))
	}

	if len(m.signals) > 0 {
		b.WriteString("\n" + titleStyle.Render("active signals") + "\n")
		for _, s := range m.signals {
			line := fmt.Sprintf("%-24s %-10s %s", s.Type, s.Source,
				s.Time.Format(time.TimeOnly))
			if s.Type == bus.SignalEmergency || s.Type == bus.SignalBatteryCritical {
				b.WriteString(alertStyle.Render(line))
			} else {
				b.WriteString(valueStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("q to quit"))
	return b.String()
}

// Run starts the monitor program.
func Run(addr string) error {
	_, err := tea.NewProgram(NewModel(addr), tea.WithAltScreen()).Run()
	return err
}
