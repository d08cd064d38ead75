package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/proctrack/proctrack/internal/ledger"
	"github.com/proctrack/proctrack/internal/tracker"
	"github.com/proctrack/proctrack/pkg/snapshot"
)

type fakeRunner struct {
	results []*tracker.CycleResult
	errs    []error
	calls   int
}

func (f *fakeRunner) RunCycle(ctx context.Context) (*tracker.CycleResult, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.results[i], nil
}

func result(cumulative uint64) *tracker.CycleResult {
	return &tracker.CycleResult{
		At:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Interval: 10 * time.Second,
		Provider: "fake",
		Rows: []tracker.Row{
			{DisplayName: "Chrome", InstanceCount: 2, CumulativeSeconds: cumulative},
		},
	}
}

func TestCycleUpdatesTable(t *testing.T) {
	runner := &fakeRunner{results: []*tracker.CycleResult{result(0)}}
	m := New(runner, 10*time.Second)

	msg := m.Init()()
	if _, ok := msg.(cycleMsg); !ok {
		t.Fatalf("Init() produced %T, want cycleMsg", msg)
	}

	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("Update(cycleMsg) did not schedule the next tick")
	}

	rows := m.table.Rows()
	if len(rows) != 1 || rows[0][0] != "Chrome" || rows[0][1] != "2" || rows[0][2] != "0s" {
		t.Errorf("table rows = %v", rows)
	}
	if !strings.Contains(m.View(), "Found 1 processes. Updating in 10s") {
		t.Errorf("View() missing header:\n%s", m.View())
	}
}

func TestTickRunsNextCycle(t *testing.T) {
	runner := &fakeRunner{results: []*tracker.CycleResult{result(0), result(10)}}
	m := New(runner, 10*time.Second)

	m.Update(m.Init()())
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("Update(tickMsg) returned no command")
	}

	m.Update(cmd())
	if runner.calls != 2 {
		t.Errorf("runner called %d times, want 2", runner.calls)
	}
	if got := m.table.Rows()[0][2]; got != "10s" {
		t.Errorf("cumulative cell = %s, want 10s", got)
	}
}

func TestProviderErrorKeepsPolling(t *testing.T) {
	runner := &fakeRunner{errs: []error{fmt.Errorf("failed to take snapshot: %w", snapshot.Unavailable(nil, "no display"))}}
	m := New(runner, 10*time.Second)

	_, cmd := m.Update(m.Init()())
	if cmd == nil {
		t.Fatal("non-fatal error stopped polling")
	}
	if m.fatal != nil {
		t.Errorf("fatal = %v, want nil", m.fatal)
	}
	if !strings.Contains(m.View(), "Cycle skipped") {
		t.Errorf("View() missing error line:\n%s", m.View())
	}
}

func TestCorruptionQuits(t *testing.T) {
	runner := &fakeRunner{errs: []error{fmt.Errorf("failed to accrue running time: %w", ledger.ErrCorruption)}}
	m := New(runner, 10*time.Second)

	_, cmd := m.Update(m.Init()())
	if cmd == nil {
		t.Fatal("corruption did not return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("corruption did not quit the program")
	}
	if m.fatal == nil {
		t.Error("fatal error not recorded")
	}
}

func TestQuitKey(t *testing.T) {
	m := New(&fakeRunner{}, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
