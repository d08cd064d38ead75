package database

import (
	"context"
	"strconv"
	"time"

	"github.com/proctrack/proctrack/internal/ledger"
	"github.com/proctrack/proctrack/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// timeLayout is fixed width so stored timestamps sort lexically in time
// order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository handles all database operations for processes and running times
type Repository struct {
	db *DB
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

type entryRow struct {
	Name              string
	DisplayName       string
	Path              string
	InstanceCount     string
	CumulativeSeconds string
	LastUpdatedAt     string
}

type totalRow struct {
	Name              string
	DisplayName       string
	Path              string
	InstanceCount     int64
	CumulativeSeconds int64
	FirstSeenAt       time.Time
	LastUpdatedAt     string
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(identity, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(ledger.ErrCorruption, "process %q: unparseable last_updated_at %q", identity, raw)
	}
	return t, nil
}

// Transact runs fn inside a database transaction. Errors returned by fn are
// passed through unchanged; commit failures are storage errors.
func (r *Repository) Transact(ctx context.Context, fn func(tx ledger.Store) error) error {
	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&Repository{db: &DB{tx}})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return wrap(err, "failed to commit ledger transaction")
	}
	return nil
}

// entryColumns reads numeric fields as text so malformed values surface as
// corruption instead of scan errors.
const entryColumns = `processes.name, processes.display_name, processes.path,
	CAST(running_times.instance_count AS TEXT) AS instance_count,
	CAST(running_times.cumulative_seconds AS TEXT) AS cumulative_seconds,
	running_times.last_updated_at`

// LoadEntry returns the ledger entry for identity, or nil if it has none.
func (r *Repository) LoadEntry(ctx context.Context, identity string) (*ledger.Entry, error) {
	var rows []entryRow
	result := r.db.WithContext(ctx).
		Table("processes").
		Select(entryColumns).
		Joins("JOIN running_times ON running_times.process_id = processes.id").
		Where("processes.name = ?", identity).
		Limit(1).
		Scan(&rows)
	if result.Error != nil {
		return nil, wrapf(result.Error, "failed to load ledger entry for %q", identity)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	cumulative, err := strconv.ParseUint(row.CumulativeSeconds, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ledger.ErrCorruption, "process %q: unparseable cumulative_seconds %q", identity, row.CumulativeSeconds)
	}
	instances, err := strconv.ParseUint(row.InstanceCount, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(ledger.ErrCorruption, "process %q: unparseable instance_count %q", identity, row.InstanceCount)
	}
	lastUpdated, err := parseTime(identity, row.LastUpdatedAt)
	if err != nil {
		return nil, err
	}

	return &ledger.Entry{
		Identity:          row.Name,
		DisplayName:       row.DisplayName,
		Path:              row.Path,
		InstanceCount:     uint32(instances),
		CumulativeSeconds: cumulative,
		LastUpdatedAt:     lastUpdated,
	}, nil
}

// InsertEntry records a first-seen identity and its running-time row. An
// existing identity record without a running-time row is reused.
func (r *Repository) InsertEntry(ctx context.Context, entry *ledger.Entry) error {
	db := r.db.WithContext(ctx)

	proc := models.Process{}
	result := db.Where(models.Process{Name: entry.Identity}).
		Attrs(models.Process{
			DisplayName: entry.DisplayName,
			Path:        entry.Path,
			FirstSeenAt: entry.LastUpdatedAt,
		}).
		FirstOrCreate(&proc)
	if result.Error != nil {
		return wrapf(result.Error, "failed to insert process %q", entry.Identity)
	}

	rt := models.RunningTime{
		ProcessID:         proc.ID,
		InstanceCount:     int64(entry.InstanceCount),
		CumulativeSeconds: int64(entry.CumulativeSeconds),
		LastUpdatedAt:     formatTime(entry.LastUpdatedAt),
	}
	if err := db.Create(&rt).Error; err != nil {
		return wrapf(err, "failed to insert running time for %q", entry.Identity)
	}
	return nil
}

// UpdateEntry upserts the running-time row of an existing identity.
func (r *Repository) UpdateEntry(ctx context.Context, entry *ledger.Entry) error {
	db := r.db.WithContext(ctx)
	processID := db.Model(&models.Process{}).Select("id").Where("name = ?", entry.Identity)

	result := db.Model(&models.RunningTime{}).
		Where("process_id = (?)", processID).
		Updates(map[string]interface{}{
			"instance_count":     int64(entry.InstanceCount),
			"cumulative_seconds": int64(entry.CumulativeSeconds),
			"last_updated_at":    formatTime(entry.LastUpdatedAt),
		})
	if result.Error != nil {
		return wrapf(result.Error, "failed to update running time for %q", entry.Identity)
	}
	if result.RowsAffected == 0 {
		return wrapf(gorm.ErrRecordNotFound, "failed to update running time for %q", entry.Identity)
	}
	return nil
}

// GetTotalsSince returns every process whose running time was updated at or
// after since, largest cumulative time first. A zero since returns all.
func (r *Repository) GetTotalsSince(ctx context.Context, since time.Time) ([]models.ProcessTotal, error) {
	var rows []totalRow
	query := r.db.WithContext(ctx).
		Table("processes").
		Select("processes.name, processes.display_name, processes.path, processes.first_seen_at, " +
			"running_times.instance_count, running_times.cumulative_seconds, running_times.last_updated_at").
		Joins("JOIN running_times ON running_times.process_id = processes.id")
	if !since.IsZero() {
		query = query.Where("running_times.last_updated_at >= ?", formatTime(since))
	}

	result := query.Order("running_times.cumulative_seconds DESC, processes.name ASC").Scan(&rows)
	if result.Error != nil {
		return nil, wrap(result.Error, "failed to query process totals")
	}

	totals := make([]models.ProcessTotal, 0, len(rows))
	for _, row := range rows {
		lastSeen, err := parseTime(row.Name, row.LastUpdatedAt)
		if err != nil {
			return nil, err
		}
		totals = append(totals, models.ProcessTotal{
			Name:              row.Name,
			DisplayName:       row.DisplayName,
			Path:              row.Path,
			InstanceCount:     row.InstanceCount,
			CumulativeSeconds: row.CumulativeSeconds,
			FirstSeenAt:       row.FirstSeenAt,
			LastSeenAt:        lastSeen,
			TotalHours:        float64(row.CumulativeSeconds) / 3600.0,
		})
	}
	return totals, nil
}

// GetLatest returns the most recently updated process, or nil if none.
func (r *Repository) GetLatest(ctx context.Context) (*models.ProcessTotal, error) {
	totals, err := r.GetTotalsSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	var latest *models.ProcessTotal
	for i := range totals {
		if latest == nil || totals[i].LastSeenAt.After(latest.LastSeenAt) {
			latest = &totals[i]
		}
	}
	return latest, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(ctx context.Context, errorLog *models.ErrorLog) error {
	result := r.db.WithContext(ctx).Create(errorLog)
	if result.Error != nil {
		return wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetRecentErrors returns up to limit error logs, newest first.
func (r *Repository) GetRecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	result := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all tracked processes, running times and error logs
func (r *Repository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"running_times", "processes", "error_logs"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return wrapf(err, "failed to clear %s", table)
			}
		}
		return nil
	})
}
