package x11

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	procscan "github.com/proctrack/proctrack/pkg/integrations/process"
	"github.com/proctrack/proctrack/pkg/snapshot"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_WM_PID",
	"_NET_WM_NAME",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"WM_NAME",
	"UTF8_STRING",
}

// Provider implements snapshot.Provider for X11. It observes the processes
// that own a titled, non-hidden top-level client window.
type Provider struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
	now   func() time.Time
}

// NewProvider connects to the X server named by $DISPLAY.
func NewProvider() (*Provider, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, snapshot.Unavailable(nil, "DISPLAY is not set")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, snapshot.Unavailable(err, "failed to connect to X server")
	}

	p := &Provider{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
		now:   time.Now,
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, snapshot.Unavailable(err, fmt.Sprintf("failed to intern atom %s", name))
		}
		p.atoms[name] = reply.Atom
	}

	return p, nil
}

// Name returns "x11"
func (p *Provider) Name() string {
	return "x11"
}

// IsAvailable reports whether the X connection is open
func (p *Provider) IsAvailable() bool {
	return p != nil && p.conn != nil
}

// Close closes the X connection
func (p *Provider) Close() error {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	return nil
}

// Snapshot lists the client windows managed by the window manager and
// resolves each window's owning process. A process with several windows is
// observed once.
func (p *Provider) Snapshot(ctx context.Context) ([]snapshot.Observation, error) {
	if !p.IsAvailable() {
		return nil, snapshot.Unavailable(nil, "x11 connection closed")
	}

	windows, err := p.clientList()
	if err != nil {
		return nil, snapshot.Unavailable(err, "failed to read _NET_CLIENT_LIST")
	}

	pids := make([]int32, 0, len(windows))
	for _, window := range windows {
		if !p.hasValidName(window) || p.isHidden(window) {
			continue
		}
		if pid := p.windowPID(window); pid != 0 {
			pids = append(pids, int32(pid))
		}
	}

	return procscan.ObservePIDs(ctx, pids, p.now()), nil
}

func (p *Provider) getProperty(window xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(p.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (p *Provider) clientList() ([]xproto.Window, error) {
	data, err := p.getProperty(p.root, p.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1<<16)
	if err != nil {
		return nil, err
	}
	return decodeWindows(data), nil
}

func (p *Provider) hasValidName(window xproto.Window) bool {
	data, _ := p.getProperty(window, p.atoms["_NET_WM_NAME"], p.atoms["UTF8_STRING"], 64)
	if len(strings.TrimRight(string(data), "\x00")) > 0 {
		return true
	}
	data, _ = p.getProperty(window, p.atoms["WM_NAME"], xproto.AtomString, 64)
	return len(strings.TrimRight(string(data), "\x00")) > 0
}

func (p *Provider) isHidden(window xproto.Window) bool {
	data, err := p.getProperty(window, p.atoms["_NET_WM_STATE"], xproto.AtomAtom, 32)
	if err != nil {
		return false
	}
	return containsAtom(data, p.atoms["_NET_WM_STATE_HIDDEN"])
}

func (p *Provider) windowPID(window xproto.Window) uint32 {
	data, err := p.getProperty(window, p.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return xgb.Get32(data)
}

// decodeWindows splits a 32-bit format property value into window IDs.
// Trailing bytes that do not form a full ID are ignored.
func decodeWindows(data []byte) []xproto.Window {
	windows := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		if id := xgb.Get32(data[i:]); id != 0 {
			windows = append(windows, xproto.Window(id))
		}
	}
	return windows
}

func containsAtom(data []byte, atom xproto.Atom) bool {
	for i := 0; i+4 <= len(data); i += 4 {
		if xproto.Atom(xgb.Get32(data[i:])) == atom {
			return true
		}
	}
	return false
}
