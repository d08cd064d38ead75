package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/proctrack/proctrack/pkg/snapshot"
)

type stubProvider struct {
	name      string
	obs       []snapshot.Observation
	err       error
	available bool
	calls     int
}

func (s *stubProvider) Snapshot(ctx context.Context) ([]snapshot.Observation, error) {
	s.calls++
	return s.obs, s.err
}

func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) Close() error      { return nil }

func TestSnapshotPrefersWindowProvider(t *testing.T) {
	window := &stubProvider{name: "x11", available: true, obs: []snapshot.Observation{{Identity: "code"}}}
	proc := &stubProvider{name: "process", available: true, obs: []snapshot.Observation{{Identity: "bash"}}}
	p := newWithProviders(window, proc)

	obs, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(obs) != 1 || obs[0].Identity != "code" {
		t.Errorf("Snapshot() = %+v, want window observations", obs)
	}
	if proc.calls != 0 {
		t.Errorf("process provider called %d times, want 0", proc.calls)
	}
	if p.LastMethod() != "x11" {
		t.Errorf("LastMethod() = %s, want x11", p.LastMethod())
	}
}

func TestSnapshotFallsBackToProcess(t *testing.T) {
	window := &stubProvider{name: "x11", available: true, err: snapshot.Unavailable(nil, "bad window")}
	proc := &stubProvider{name: "process", available: true, obs: []snapshot.Observation{{Identity: "bash"}}}
	p := newWithProviders(window, proc)

	obs, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(obs) != 1 || obs[0].Identity != "bash" {
		t.Errorf("Snapshot() = %+v, want process observations", obs)
	}
	if p.LastMethod() != "process" {
		t.Errorf("LastMethod() = %s, want process", p.LastMethod())
	}
}

func TestSnapshotAllFail(t *testing.T) {
	window := &stubProvider{name: "x11", available: true, err: snapshot.Unavailable(nil, "bad window")}
	proc := &stubProvider{name: "process", available: true, err: snapshot.Unavailable(nil, "no proc")}
	p := newWithProviders(window, proc)

	_, err := p.Snapshot(context.Background())
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("Snapshot() error = %v, want ErrUnavailable", err)
	}
}

func TestSnapshotWithoutProviders(t *testing.T) {
	p := newWithProviders(nil, nil)
	if p.IsAvailable() {
		t.Error("IsAvailable() = true with no providers")
	}
	_, err := p.Snapshot(context.Background())
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("Snapshot() error = %v, want ErrUnavailable", err)
	}
}

func TestGetStatus(t *testing.T) {
	p := newWithProviders(nil, &stubProvider{name: "process", available: true})
	status := p.GetStatus()
	if !strings.Contains(status, "Window Provider: unavailable") {
		t.Errorf("GetStatus() = %q", status)
	}
	if p.Name() != "hybrid" {
		t.Errorf("Name() = %s, want hybrid", p.Name())
	}
}
