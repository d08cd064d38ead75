package process

import (
	"context"
	"strings"
	"time"

	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/shirou/gopsutil/v4/process"
)

// Options tunes the process scan.
type Options struct {
	// GUIOnly keeps only processes whose environment carries a display
	// (DISPLAY or WAYLAND_DISPLAY), approximating "has a window".
	GUIOnly bool
}

// Provider implements snapshot.Provider by scanning the process table with
// gopsutil.
type Provider struct {
	opts Options
	now  func() time.Time
}

func NewProvider(opts Options) *Provider {
	return &Provider{
		opts: opts,
		now:  time.Now,
	}
}

func (p *Provider) Name() string {
	return "process"
}

func (p *Provider) IsAvailable() bool {
	_, err := process.PidsWithContext(context.Background())
	return err == nil
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) Snapshot(ctx context.Context) ([]snapshot.Observation, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, snapshot.Unavailable(err, "failed to list processes")
	}

	now := p.now()
	observations := make([]snapshot.Observation, 0, len(procs))

	for _, proc := range procs {
		if ctx.Err() != nil {
			return nil, snapshot.Unavailable(ctx.Err(), "process scan interrupted")
		}
		if p.opts.GUIOnly && !hasDisplay(ctx, proc) {
			continue
		}
		if obs, ok := Observe(ctx, proc, now); ok {
			observations = append(observations, obs)
		}
	}

	return observations, nil
}

// Observe reads one process into an Observation. It returns false when the
// process vanished or its name is unreadable. An unreadable executable path
// is left empty so the relevance filter can drop it.
func Observe(ctx context.Context, proc *process.Process, now time.Time) (snapshot.Observation, bool) {
	name, err := proc.NameWithContext(ctx)
	if err != nil || name == "" {
		return snapshot.Observation{}, false
	}

	obs := snapshot.Observation{Identity: name}

	if exe, err := proc.ExeWithContext(ctx); err == nil {
		obs.Path = exe
	}

	if statuses, err := proc.StatusWithContext(ctx); err == nil {
		obs.IsRunning = IsRunningStatus(statuses)
	} else if running, err := proc.IsRunningWithContext(ctx); err == nil {
		obs.IsRunning = running
	}

	if created, err := proc.CreateTimeWithContext(ctx); err == nil {
		obs.RunTimeSeconds = snapshot.RunTime(time.UnixMilli(created), now)
	}

	return obs, true
}

// ObservePIDs observes each distinct pid once, in order, skipping processes
// that have exited. Window-based providers use it to turn window owners into
// observations.
func ObservePIDs(ctx context.Context, pids []int32, now time.Time) []snapshot.Observation {
	seen := make(map[int32]struct{}, len(pids))
	observations := make([]snapshot.Observation, 0, len(pids))

	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}

		proc, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}
		if obs, ok := Observe(ctx, proc, now); ok {
			observations = append(observations, obs)
		}
	}
	return observations
}

// IsRunningStatus reports whether a gopsutil status list describes a live
// process. Sleeping and waiting count as running: desktop applications
// spend most of their time blocked on input.
func IsRunningStatus(statuses []string) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		switch status {
		case process.Zombie, process.Stop, process.UnknownState:
			return false
		}
	}
	return true
}

func hasDisplay(ctx context.Context, proc *process.Process) bool {
	environ, err := proc.EnvironWithContext(ctx)
	if err != nil {
		return false
	}
	for _, kv := range environ {
		if strings.HasPrefix(kv, "DISPLAY=") || strings.HasPrefix(kv, "WAYLAND_DISPLAY=") {
			return true
		}
	}
	return false
}
