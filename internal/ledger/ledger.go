// Package ledger accrues cumulative running time per process identity from
// periodic, possibly gappy, observations.
package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/proctrack/proctrack/internal/aggregator"
)

// ErrCorruption is returned (wrapped) when persisted ledger state cannot be
// parsed. It is fatal to the poll loop.
var ErrCorruption = errors.New("ledger corruption")

// Entry is the persisted running-time state of one identity.
type Entry struct {
	Identity          string
	DisplayName       string
	Path              string
	InstanceCount     uint32
	CumulativeSeconds uint64
	LastUpdatedAt     time.Time
}

// Store persists ledger entries. LoadEntry returns (nil, nil) for an identity
// that has never been seen.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error
	LoadEntry(ctx context.Context, identity string) (*Entry, error)
	InsertEntry(ctx context.Context, entry *Entry) error
	UpdateEntry(ctx context.Context, entry *Entry) error
}

// State is the lifecycle position of an identity relative to now.
type State int

const (
	Unseen State = iota
	Active
	Stale
)

func (s State) String() string {
	switch s {
	case Unseen:
		return "unseen"
	case Active:
		return "active"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Ledger applies accrual rules against a Store.
type Ledger struct {
	store    Store
	interval time.Duration
}

func New(store Store, interval time.Duration) *Ledger {
	return &Ledger{store: store, interval: interval}
}

// Interval returns the polling interval the ledger credits against.
func (l *Ledger) Interval() time.Duration {
	return l.interval
}

// Credit returns the whole seconds to add for a gap of elapsed since the
// last confirmed observation. Gaps longer than twice the interval are
// treated as a relaunch and credit exactly one interval. Config rejects
// intervals that are not whole seconds, so the cap is never rounded.
func Credit(elapsed, interval time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	if elapsed > 2*interval {
		return wholeSeconds(interval)
	}
	return wholeSeconds(elapsed)
}

func wholeSeconds(d time.Duration) uint64 {
	return uint64(d.Round(time.Second) / time.Second)
}

// StateOf classifies entry at now. A nil entry is Unseen.
func (l *Ledger) StateOf(entry *Entry, now time.Time) State {
	if entry == nil {
		return Unseen
	}
	if now.Sub(entry.LastUpdatedAt) > 2*l.interval {
		return Stale
	}
	return Active
}

// Accrue folds one aggregated process into the ledger and returns its updated
// cumulative running time in seconds. The read and write happen in one
// store transaction.
func (l *Ledger) Accrue(ctx context.Context, p aggregator.Process, now time.Time) (uint64, error) {
	var total uint64
	err := l.store.Transact(ctx, func(tx Store) error {
		entry, err := l.accrue(ctx, tx, p, now)
		if err != nil {
			return err
		}
		total = entry.CumulativeSeconds
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// AccrueAll folds a whole snapshot into the ledger in a single transaction.
// Either every entry is written or none is. Identities absent from processes
// are left untouched.
func (l *Ledger) AccrueAll(ctx context.Context, processes []aggregator.Process, now time.Time) ([]Entry, error) {
	entries := make([]Entry, 0, len(processes))
	err := l.store.Transact(ctx, func(tx Store) error {
		for _, p := range processes {
			entry, err := l.accrue(ctx, tx, p, now)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Ledger) accrue(ctx context.Context, tx Store, p aggregator.Process, now time.Time) (*Entry, error) {
	entry, err := tx.LoadEntry(ctx, p.Identity)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		entry = &Entry{
			Identity:      p.Identity,
			DisplayName:   p.DisplayName,
			Path:          p.Path,
			InstanceCount: p.InstanceCount,
			LastUpdatedAt: now,
		}
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	entry.CumulativeSeconds += Credit(now.Sub(entry.LastUpdatedAt), l.interval)
	entry.InstanceCount = p.InstanceCount
	entry.LastUpdatedAt = now
	if err := tx.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
