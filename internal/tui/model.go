package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/proctrack/proctrack/internal/reporter"
	"github.com/proctrack/proctrack/internal/tracker"
	"github.com/proctrack/proctrack/pkg/utils"
)

// Runner performs one poll cycle and records its failures.
type Runner interface {
	RunCycle(ctx context.Context) (*tracker.CycleResult, error)
}

// Model represents the Bubble Tea state. The next cycle is only scheduled
// once the previous one has returned, so cycles never overlap.
type Model struct {
	runner   Runner
	interval time.Duration

	table  table.Model
	result *tracker.CycleResult

	err   error
	fatal error

	running bool
	width   int
	height  int
}

// New constructs a TUI model with default styles.
func New(runner Runner, interval time.Duration) *Model {
	columns := []table.Column{
		{Title: "Process", Width: 32},
		{Title: "Instances", Width: 10},
		{Title: "Running Time", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Model{
		runner:   runner,
		interval: interval,
		table:    t,
		running:  true,
	}
}

// Run spins up the Bubble Tea program and returns the fatal error, if any,
// that ended it.
func Run(runner Runner, interval time.Duration) error {
	m := New(runner, interval)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*Model); ok && fm.fatal != nil {
		return fm.fatal
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return runCycleCmd(m.runner)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 6 {
			m.table.SetHeight(msg.Height - 6)
		}

	case cycleMsg:
		m.running = false
		m.err = nil
		m.result = msg.result
		m.table.SetRows(rowsFor(msg.result))
		return m, tickCmd(m.interval)

	case errMsg:
		m.running = false
		if tracker.IsFatal(msg.err) {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.err = msg.err
		return m, tickCmd(m.interval)

	case tickMsg:
		m.running = true
		return m, runCycleCmd(m.runner)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	switch {
	case m.result != nil:
		b.WriteString(headerStyle.Render(reporter.CycleHeader(m.result)))
	case m.running:
		b.WriteString(headerStyle.Render("Taking first snapshot…"))
	}
	b.WriteByte('\n')

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Cycle skipped: %v", m.err)))
		b.WriteByte('\n')
	}

	b.WriteString(m.table.View())
	b.WriteByte('\n')

	help := "q quit • ↑/↓ scroll"
	if m.result != nil {
		help += fmt.Sprintf(" • %s provider • last update %s", m.result.Provider, m.result.At.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func rowsFor(result *tracker.CycleResult) []table.Row {
	rows := make([]table.Row, 0, len(result.Rows))
	for _, r := range result.Rows {
		rows = append(rows, table.Row{
			r.DisplayName,
			strconv.FormatUint(uint64(r.InstanceCount), 10),
			utils.FormatDuration(r.CumulativeSeconds),
		})
	}
	return rows
}

type cycleMsg struct {
	result *tracker.CycleResult
}

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func runCycleCmd(runner Runner) tea.Cmd {
	return func() tea.Msg {
		result, err := runner.RunCycle(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return cycleMsg{result: result}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
