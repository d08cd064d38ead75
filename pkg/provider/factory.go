package provider

import (
	"context"
	"os"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/pkg/integrations/hybrid"
	"github.com/proctrack/proctrack/pkg/integrations/process"
	"github.com/proctrack/proctrack/pkg/integrations/wayland"
	"github.com/proctrack/proctrack/pkg/integrations/x11"
	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/pkg/errors"
)

// New builds the snapshot provider named by kind: "auto", "x11", "wayland"
// or "process".
func New(kind string) (snapshot.Provider, error) {
	switch kind {
	case config.ProviderAuto, "":
		p, err := hybrid.NewProvider()
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderX11:
		p, err := x11.NewProvider()
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderWayland:
		p, err := wayland.NewProvider(context.Background())
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderProcess:
		return process.NewProvider(process.Options{}), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalid, "unknown provider %q", kind)
	}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
