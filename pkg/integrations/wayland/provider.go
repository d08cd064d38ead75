package wayland

import (
	"context"
	"encoding/json"
	"os/exec"
	"time"

	procscan "github.com/proctrack/proctrack/pkg/integrations/process"
	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

// Supported compositors.
const (
	CompositorSway     = "sway"
	CompositorHyprland = "hyprland"
)

// compositorProcesses maps compositor process names to compositor kinds.
var compositorProcesses = map[string]string{
	"sway":     CompositorSway,
	"Hyprland": CompositorHyprland,
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Provider implements snapshot.Provider for wlroots compositors that expose
// their window list over IPC.
type Provider struct {
	compositor string
	run        runFunc
	now        func() time.Time
}

// NewProvider detects a running sway or Hyprland compositor.
func NewProvider(ctx context.Context) (*Provider, error) {
	compositor := detectCompositor(ctx)
	if compositor == "" {
		return nil, snapshot.Unavailable(nil, "no supported wayland compositor running")
	}

	tool := "swaymsg"
	if compositor == CompositorHyprland {
		tool = "hyprctl"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return nil, snapshot.Unavailable(err, tool+" not found")
	}

	return newWithRunner(compositor, runCommand), nil
}

func newWithRunner(compositor string, run runFunc) *Provider {
	return &Provider{
		compositor: compositor,
		run:        run,
		now:        time.Now,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func detectCompositor(ctx context.Context) string {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return ""
	}
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if kind, ok := compositorProcesses[name]; ok {
			return kind
		}
	}
	return ""
}

func (p *Provider) Name() string {
	return "wayland"
}

// Compositor returns the detected compositor kind
func (p *Provider) Compositor() string {
	return p.compositor
}

func (p *Provider) IsAvailable() bool {
	return p.compositor == CompositorSway || p.compositor == CompositorHyprland
}

func (p *Provider) Close() error {
	return nil
}

// Snapshot asks the compositor for its visible windows and observes their
// owning processes.
func (p *Provider) Snapshot(ctx context.Context) ([]snapshot.Observation, error) {
	var (
		pids []int32
		err  error
	)

	switch p.compositor {
	case CompositorSway:
		var out []byte
		out, err = p.run(ctx, "swaymsg", "-t", "get_tree", "-r")
		if err == nil {
			pids, err = parseSwayTree(out)
		}
	case CompositorHyprland:
		var out []byte
		out, err = p.run(ctx, "hyprctl", "clients", "-j")
		if err == nil {
			pids, err = parseHyprlandClients(out)
		}
	default:
		return nil, snapshot.Unavailable(nil, "unsupported wayland compositor: "+p.compositor)
	}
	if err != nil {
		return nil, snapshot.Unavailable(err, "failed to list "+p.compositor+" windows")
	}

	return procscan.ObservePIDs(ctx, pids, p.now()), nil
}

type swayNode struct {
	PID           int32      `json:"pid"`
	Name          *string    `json:"name"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// parseSwayTree collects the pids of named application windows in a sway
// layout tree. Windows sway reports as not visible are kept: they are still
// mapped on another workspace.
func parseSwayTree(data []byte) ([]int32, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "invalid sway tree")
	}

	var pids []int32
	var walk func(n *swayNode)
	walk = func(n *swayNode) {
		if n.PID > 0 && n.Name != nil && *n.Name != "" {
			pids = append(pids, n.PID)
		}
		for i := range n.Nodes {
			walk(&n.Nodes[i])
		}
		for i := range n.FloatingNodes {
			walk(&n.FloatingNodes[i])
		}
	}
	walk(&root)
	return pids, nil
}

type hyprlandClient struct {
	PID    int32  `json:"pid"`
	Title  string `json:"title"`
	Mapped bool   `json:"mapped"`
	Hidden bool   `json:"hidden"`
}

// parseHyprlandClients collects the pids of mapped, non-hidden, titled
// clients.
func parseHyprlandClients(data []byte) ([]int32, error) {
	var clients []hyprlandClient
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, errors.Wrap(err, "invalid hyprland client list")
	}

	pids := make([]int32, 0, len(clients))
	for _, c := range clients {
		if c.PID > 0 && c.Mapped && !c.Hidden && c.Title != "" {
			pids = append(pids, c.PID)
		}
	}
	return pids, nil
}
