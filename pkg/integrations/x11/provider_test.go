package x11

import (
	"context"
	"errors"
	"testing"

	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/jezek/xgb/xproto"
)

func TestDecodeWindows(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []xproto.Window
	}{
		{"empty", nil, []xproto.Window{}},
		{"single", []byte{0x01, 0x00, 0x60, 0x03}, []xproto.Window{0x03600001}},
		{"two", []byte{0x01, 0, 0, 0, 0x02, 0, 0, 0}, []xproto.Window{1, 2}},
		{"zero skipped", []byte{0, 0, 0, 0, 0x05, 0, 0, 0}, []xproto.Window{5}},
		{"trailing bytes", []byte{0x07, 0, 0, 0, 0xff, 0xff}, []xproto.Window{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeWindows(tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("decodeWindows() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("decodeWindows()[%d] = %#x, want %#x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestContainsAtom(t *testing.T) {
	state := []byte{0x10, 0, 0, 0, 0x2a, 0x01, 0, 0}

	if !containsAtom(state, xproto.Atom(0x012a)) {
		t.Error("containsAtom() = false for present atom")
	}
	if containsAtom(state, xproto.Atom(0x11)) {
		t.Error("containsAtom() = true for absent atom")
	}
	if containsAtom(nil, xproto.Atom(0x10)) {
		t.Error("containsAtom() = true for empty state")
	}
}

func TestNewProviderWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	p, err := NewProvider()
	if p != nil {
		p.Close()
		t.Fatal("NewProvider() returned a provider without DISPLAY")
	}
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("NewProvider() error = %v, want ErrUnavailable", err)
	}
}

func TestClosedProviderIsUnavailable(t *testing.T) {
	var _ snapshot.Provider = (*Provider)(nil)

	p := &Provider{}
	if p.IsAvailable() {
		t.Error("IsAvailable() = true for provider without connection")
	}
	if p.Name() != "x11" {
		t.Errorf("Name() = %s, want x11", p.Name())
	}

	_, err := p.Snapshot(context.Background())
	if !errors.Is(err, snapshot.ErrUnavailable) {
		t.Errorf("Snapshot() error = %v, want ErrUnavailable", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
