package hybrid

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/proctrack/proctrack/pkg/integrations/process"
	"github.com/proctrack/proctrack/pkg/integrations/wayland"
	"github.com/proctrack/proctrack/pkg/integrations/x11"
	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/pkg/errors"
)

// Provider prefers the window list of the display server (X11, sway or
// Hyprland) and falls back to a process-table scan limited to processes
// attached to a display.
type Provider struct {
	windowProvider snapshot.Provider

	processProvider snapshot.Provider

	lastSuccessfulMethod string
}

func NewProvider() (*Provider, error) {
	p := &Provider{}

	if windowProv := detectWindowProvider(); windowProv != nil {
		p.windowProvider = windowProv
		log.Printf("Window provider initialized: %s", windowProv.Name())
	} else {
		log.Printf("Window provider unavailable, using process-based snapshots only")
	}

	p.processProvider = process.NewProvider(process.Options{GUIOnly: true})
	if !p.processProvider.IsAvailable() && p.windowProvider == nil {
		return nil, snapshot.Unavailable(nil, "no snapshot method available")
	}

	return p, nil
}

// newWithProviders builds a hybrid provider from explicit parts.
func newWithProviders(window, proc snapshot.Provider) *Provider {
	return &Provider{windowProvider: window, processProvider: proc}
}

func detectWindowProvider() snapshot.Provider {
	if os.Getenv("XDG_SESSION_TYPE") == "wayland" || os.Getenv("WAYLAND_DISPLAY") != "" {
		prov, err := wayland.NewProvider(context.Background())
		if err != nil {
			log.Printf("Wayland provider unavailable: %v", err)
			return nil
		}
		return prov
	}
	if os.Getenv("DISPLAY") == "" {
		return nil
	}

	prov, err := x11.NewProvider()
	if err != nil {
		log.Printf("X11 provider unavailable: %v", err)
		return nil
	}
	return prov
}

func (p *Provider) Name() string {
	return "hybrid"
}

func (p *Provider) Snapshot(ctx context.Context) ([]snapshot.Observation, error) {
	var windowErr error

	if p.windowProvider != nil && p.windowProvider.IsAvailable() {
		observations, err := p.windowProvider.Snapshot(ctx)
		if err == nil {
			p.lastSuccessfulMethod = p.windowProvider.Name()
			return observations, nil
		}
		windowErr = err
	}

	if p.processProvider == nil {
		if windowErr != nil {
			return nil, windowErr
		}
		return nil, snapshot.Unavailable(nil, "no snapshot method available")
	}

	observations, err := p.processProvider.Snapshot(ctx)
	if err != nil {
		if windowErr != nil {
			log.Printf("All snapshot methods failed - Window: %v, Process: %v", windowErr, err)
		}
		return nil, errors.Wrap(err, "hybrid snapshot failed")
	}

	p.lastSuccessfulMethod = p.processProvider.Name()
	return observations, nil
}

func (p *Provider) IsAvailable() bool {
	if p.windowProvider != nil && p.windowProvider.IsAvailable() {
		return true
	}
	return p.processProvider != nil && p.processProvider.IsAvailable()
}

func (p *Provider) Close() error {
	if p.windowProvider != nil {
		if err := p.windowProvider.Close(); err != nil {
			log.Printf("Error closing window provider: %v", err)
		}
	}
	if p.processProvider != nil {
		if err := p.processProvider.Close(); err != nil {
			log.Printf("Error closing process provider: %v", err)
		}
	}
	return nil
}

// LastMethod names the provider that served the most recent snapshot.
func (p *Provider) LastMethod() string {
	return p.lastSuccessfulMethod
}

func (p *Provider) GetStatus() string {
	status := "Hybrid Provider Status:\n"

	if p.windowProvider != nil {
		status += fmt.Sprintf("  Window Provider: %s (available: %v)\n",
			p.windowProvider.Name(),
			p.windowProvider.IsAvailable())
	} else {
		status += "  Window Provider: unavailable\n"
	}

	if p.processProvider != nil {
		status += fmt.Sprintf("  Process Provider: available: %v\n", p.processProvider.IsAvailable())
	} else {
		status += "  Process Provider: unavailable\n"
	}

	status += fmt.Sprintf("  Last successful method: %s\n", p.lastSuccessfulMethod)

	return status
}
