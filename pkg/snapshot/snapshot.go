// Package snapshot defines the raw process observations gathered once per
// poll cycle and the Provider interface every enumeration backend satisfies.
package snapshot

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned (wrapped) by providers when a snapshot could not
// be taken. The poll loop skips the cycle and tries again on the next tick.
var ErrUnavailable = errors.New("snapshot provider unavailable")

// Observation is one observed process record. Identity is the process name
// used as the grouping key.
type Observation struct {
	Identity       string
	Path           string
	IsRunning      bool
	RunTimeSeconds uint64
}

// Provider is the interface that all snapshot backends must satisfy
type Provider interface {
	// Snapshot returns the processes observed right now. The returned slice
	// is owned by the caller.
	Snapshot(ctx context.Context) ([]Observation, error)

	// IsAvailable checks if this provider can run on the current system
	IsAvailable() bool

	// Name returns the backend name ("x11", "process", "hybrid")
	Name() string

	// Close cleans up any resources used by the provider
	Close() error
}

// Unavailable wraps cause so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(cause error, message string) error {
	if cause == nil {
		return errors.Wrap(ErrUnavailable, message)
	}
	return errors.Wrapf(ErrUnavailable, "%s: %v", message, cause)
}

// RunTime returns the whole seconds elapsed between start and now, clamped at
// zero for start times in the future.
func RunTime(start, now time.Time) uint64 {
	if start.IsZero() || now.Before(start) {
		return 0
	}
	return uint64(now.Sub(start) / time.Second)
}
