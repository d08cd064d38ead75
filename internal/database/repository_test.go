package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/proctrack/proctrack/internal/aggregator"
	"github.com/proctrack/proctrack/internal/ledger"
	"github.com/proctrack/proctrack/internal/models"
)

var t0 = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	db, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return db
}

func newTestRepo(t *testing.T) (*Repository, *DB) {
	t.Helper()
	db := openTestDB(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), db
}

func chrome() aggregator.Process {
	return aggregator.Process{
		Identity:           "chrome.exe",
		DisplayName:        "Chrome",
		Path:               `C:\Program Files\Google\Chrome\chrome.exe`,
		InstanceCount:      2,
		MaxObservedRunTime: 150,
	}
}

func TestLedgerAccrualEndToEnd(t *testing.T) {
	repo, _ := newTestRepo(t)
	l := ledger.New(repo, 10*time.Second)
	ctx := context.Background()

	total, err := l.Accrue(ctx, chrome(), t0)
	if err != nil {
		t.Fatalf("first Accrue() error: %v", err)
	}
	if total != 0 {
		t.Errorf("first cycle total = %d, want 0", total)
	}

	total, err = l.Accrue(ctx, chrome(), t0.Add(10*time.Second))
	if err != nil {
		t.Fatalf("second Accrue() error: %v", err)
	}
	if total != 10 {
		t.Errorf("second cycle total = %d, want 10", total)
	}

	entry, err := repo.LoadEntry(ctx, "chrome.exe")
	if err != nil {
		t.Fatalf("LoadEntry() error: %v", err)
	}
	if entry == nil {
		t.Fatal("LoadEntry() = nil, want entry")
	}
	if entry.CumulativeSeconds != 10 || !entry.LastUpdatedAt.Equal(t0.Add(10*time.Second)) {
		t.Errorf("LoadEntry() = %+v", entry)
	}
	if entry.DisplayName != "Chrome" || entry.InstanceCount != 2 {
		t.Errorf("LoadEntry() = %+v", entry)
	}
}

func TestLoadEntryUnseen(t *testing.T) {
	repo, _ := newTestRepo(t)

	entry, err := repo.LoadEntry(context.Background(), "never.exe")
	if err != nil {
		t.Fatalf("LoadEntry() error: %v", err)
	}
	if entry != nil {
		t.Errorf("LoadEntry() = %+v, want nil", entry)
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restart.db")
	ctx := context.Background()

	db := openTestDB(t, path)
	if _, err := ledger.New(NewRepository(db), 10*time.Second).Accrue(ctx, chrome(), t0); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.New(NewRepository(db), 10*time.Second).Accrue(ctx, chrome(), t0.Add(10*time.Second)); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db = openTestDB(t, path)
	defer db.Close()

	// Monitor was down for an hour: only one interval is credited.
	total, err := ledger.New(NewRepository(db), 10*time.Second).Accrue(ctx, chrome(), t0.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if total != 20 {
		t.Errorf("total after restart = %d, want 20", total)
	}
}

func TestLoadEntryCorruption(t *testing.T) {
	tests := []struct {
		name   string
		update string
	}{
		{"timestamp", "UPDATE running_times SET last_updated_at = 'last tuesday'"},
		{"cumulative text", "UPDATE running_times SET cumulative_seconds = 'lots'"},
		{"cumulative negative", "UPDATE running_times SET cumulative_seconds = -5"},
		{"instance count", "UPDATE running_times SET instance_count = 'two'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, db := newTestRepo(t)
			ctx := context.Background()
			l := ledger.New(repo, 10*time.Second)

			if _, err := l.Accrue(ctx, chrome(), t0); err != nil {
				t.Fatal(err)
			}
			if err := db.Exec(tt.update).Error; err != nil {
				t.Fatal(err)
			}

			_, err := l.Accrue(ctx, chrome(), t0.Add(10*time.Second))
			if !errors.Is(err, ledger.ErrCorruption) {
				t.Errorf("Accrue() error = %v, want ErrCorruption", err)
			}
			if errors.Is(err, ErrStorageUnavailable) {
				t.Errorf("corruption misclassified as storage failure: %v", err)
			}
		})
	}
}

func TestTransactRollsBack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transact(ctx, func(tx ledger.Store) error {
		if err := tx.InsertEntry(ctx, &ledger.Entry{Identity: "code", DisplayName: "Code", Path: "/usr/bin/code", LastUpdatedAt: t0}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact() error = %v, want boom", err)
	}

	entry, err := repo.LoadEntry(ctx, "code")
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Errorf("rolled back insert is visible: %+v", entry)
	}
}

func TestStorageUnavailable(t *testing.T) {
	repo, db := newTestRepo(t)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := repo.LoadEntry(context.Background(), "chrome.exe")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("LoadEntry() on closed db error = %v, want ErrStorageUnavailable", err)
	}
}

func TestGetTotalsSince(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	l := ledger.New(repo, 10*time.Second)

	code := aggregator.Process{Identity: "code", DisplayName: "Code", Path: "/usr/bin/code", InstanceCount: 1}

	if _, err := l.AccrueAll(ctx, []aggregator.Process{chrome(), code}, t0); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AccrueAll(ctx, []aggregator.Process{chrome()}, t0.Add(10*time.Second)); err != nil {
		t.Fatal(err)
	}

	all, err := repo.GetTotalsSince(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("GetTotalsSince(zero) returned %d rows, want 2", len(all))
	}
	if all[0].Name != "chrome.exe" || all[0].CumulativeSeconds != 10 {
		t.Errorf("first total = %+v, want chrome.exe with 10s", all[0])
	}
	if !all[0].FirstSeenAt.Equal(t0) {
		t.Errorf("FirstSeenAt = %v, want %v", all[0].FirstSeenAt, t0)
	}

	recent, err := repo.GetTotalsSince(ctx, t0.Add(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Name != "chrome.exe" {
		t.Errorf("GetTotalsSince(t0+5s) = %+v, want only chrome.exe", recent)
	}

	latest, err := repo.GetLatest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Name != "chrome.exe" {
		t.Errorf("GetLatest() = %+v, want chrome.exe", latest)
	}
}

func TestClear(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := ledger.New(repo, 10*time.Second).Accrue(ctx, chrome(), t0); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateErrorLog(ctx, &models.ErrorLog{Timestamp: t0, Kind: "provider", ErrorMsg: "no display"}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	totals, err := repo.GetTotalsSince(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 0 {
		t.Errorf("totals after Clear() = %+v", totals)
	}
	logs, err := repo.GetRecentErrors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("error logs after Clear() = %+v", logs)
	}
}
