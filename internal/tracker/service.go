package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/proctrack/proctrack/internal/aggregator"
	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/database"
	"github.com/proctrack/proctrack/internal/filter"
	"github.com/proctrack/proctrack/internal/ledger"
	"github.com/proctrack/proctrack/internal/models"
	"github.com/proctrack/proctrack/internal/naming"
	"github.com/proctrack/proctrack/pkg/snapshot"
)

// Store is the persistence the tracker needs: ledger accrual plus the error
// log.
type Store interface {
	ledger.Store
	CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error
}

// Row is one line of a cycle listing.
type Row struct {
	Identity          string `json:"identity"`
	DisplayName       string `json:"display_name"`
	Path              string `json:"path"`
	InstanceCount     uint32 `json:"instance_count"`
	CumulativeSeconds uint64 `json:"cumulative_seconds"`
}

// CycleResult is the outcome of one completed poll cycle. Rows are sorted by
// display name.
type CycleResult struct {
	At       time.Time     `json:"at"`
	Interval time.Duration `json:"interval"`
	Provider string        `json:"provider"`
	Observed int           `json:"observed"`
	Relevant int           `json:"relevant"`
	Rows     []Row         `json:"rows"`
}

type Service struct {
	config   *config.Config
	store    Store
	provider snapshot.Provider
	filter   *filter.Filter
	namer    *naming.Namer
	ledger   *ledger.Ledger
	now      func() time.Time
	stopChan chan struct{}
	running  bool

	// OnCycle, when set, receives every completed cycle.
	OnCycle func(*CycleResult)
}

func NewService(cfg *config.Config, store Store, provider snapshot.Provider) *Service {
	return &Service{
		config:   cfg,
		store:    store,
		provider: provider,
		filter:   filter.New(cfg.Filter),
		namer:    naming.NewNamer(cfg.Filter.DisplayNames),
		ledger:   ledger.New(store, cfg.Tracker.PollInterval),
		now:      time.Now,
		stopChan: make(chan struct{}),
		running:  false,
	}
}

// Start runs a cycle immediately and then one per poll interval until ctx is
// cancelled, Stop is called, or the ledger reports corruption.
func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("tracker is already running")
	}

	s.running = true
	defer func() { s.running = false }()
	log.Printf("Starting tracker with %v poll interval using %s provider", s.config.Tracker.PollInterval, s.provider.Name())

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	if err := s.tick(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Tracker stopped")
			return nil

		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Service) Stop() {
	if s.running {
		close(s.stopChan)
	}
}

func (s *Service) IsRunning() bool {
	return s.running
}

// tick runs one cycle and decides whether its failure ends the loop.
func (s *Service) tick(ctx context.Context) error {
	result, err := s.RunCycle(ctx)
	if err != nil {
		if IsFatal(err) {
			log.Printf("Tracker aborted: %v", err)
			return err
		}
		return nil
	}

	if s.OnCycle != nil {
		s.OnCycle(result)
	}
	return nil
}

// RunCycle runs one cycle like RunOnce and records non-fatal failures in
// the error log. The error is still returned to the caller.
func (s *Service) RunCycle(ctx context.Context) (*CycleResult, error) {
	result, err := s.RunOnce(ctx)
	if err != nil && !IsFatal(err) {
		s.storeError(ctx, err)
	}
	return result, err
}

// RunOnce performs snapshot, filter, aggregate and accrue for a single cycle.
// A provider or storage failure discards the whole cycle.
func (s *Service) RunOnce(ctx context.Context) (*CycleResult, error) {
	now := s.now()

	observations, err := s.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to take snapshot: %w", err)
	}

	relevant := s.filter.Apply(observations)
	processes := aggregator.Aggregate(relevant, s.namer.DisplayName)
	aggregator.SortByDisplayName(processes)

	entries, err := s.ledger.AccrueAll(ctx, processes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to accrue running time: %w", err)
	}

	result := &CycleResult{
		At:       now,
		Interval: s.config.Tracker.PollInterval,
		Provider: s.provider.Name(),
		Observed: len(observations),
		Relevant: len(relevant),
		Rows:     make([]Row, 0, len(entries)),
	}
	for _, entry := range entries {
		result.Rows = append(result.Rows, Row{
			Identity:          entry.Identity,
			DisplayName:       entry.DisplayName,
			Path:              entry.Path,
			InstanceCount:     entry.InstanceCount,
			CumulativeSeconds: entry.CumulativeSeconds,
		})
	}
	return result, nil
}

// IsFatal reports whether err must stop the poll loop.
func IsFatal(err error) bool {
	return errors.Is(err, ledger.ErrCorruption)
}

// ErrorKind classifies a cycle error for the error log.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ledger.ErrCorruption):
		return "corruption"
	case errors.Is(err, snapshot.ErrUnavailable):
		return "provider"
	case errors.Is(err, database.ErrStorageUnavailable):
		return "storage"
	default:
		return "unknown"
	}
}

func (s *Service) storeError(ctx context.Context, err error) {
	errorLog := &models.ErrorLog{
		Timestamp: s.now(),
		Kind:      ErrorKind(err),
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.store.CreateErrorLog(ctx, errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}
