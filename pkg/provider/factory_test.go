package provider

import (
	"errors"
	"testing"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/pkg/snapshot"
)

func TestNewProcess(t *testing.T) {
	p, err := New(config.ProviderProcess)
	if err != nil {
		t.Fatalf("New(process) error: %v", err)
	}
	defer p.Close()

	if p.Name() != "process" {
		t.Errorf("Name() = %s, want process", p.Name())
	}
}

func TestNewUnknown(t *testing.T) {
	p, err := New("carrier-pigeon")
	if p != nil {
		t.Errorf("New(unknown) returned provider %s", p.Name())
	}
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New(unknown) error = %v, want ErrInvalid", err)
	}
}

func TestNewX11WithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	_, err := New(config.ProviderX11)
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("New(x11) error = %v, want ErrUnavailable", err)
	}
}

func TestNewWaylandWithoutCompositor(t *testing.T) {
	p, err := New(config.ProviderWayland)
	if err == nil {
		defer p.Close()
		t.Skip("a wayland compositor is running")
	}
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("New(wayland) error = %v, want ErrUnavailable", err)
	}
}

func TestNewAutoWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("XDG_SESSION_TYPE", "")

	p, err := New(config.ProviderAuto)
	if err != nil {
		t.Skipf("process table not readable: %v", err)
	}
	defer p.Close()

	if p.Name() != "hybrid" {
		t.Errorf("Name() = %s, want hybrid", p.Name())
	}
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{
			name:           "Wayland session",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			expected:       "wayland",
		},
		{
			name:        "X11 session",
			sessionType: "x11",
			x11Display:  ":0",
			expected:    "x11",
		},
		{
			name:     "Unknown session",
			expected: "unknown",
		},
		{
			name:           "Wayland display set",
			waylandDisplay: "wayland-1",
			expected:       "wayland",
		},
		{
			name:       "X11 display set",
			x11Display: ":1",
			expected:   "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			if result := DetectDisplayServer(); result != tt.expected {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expected)
			}
		})
	}
}
