package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/models"
	"github.com/proctrack/proctrack/pkg/utils"
)

// ErrInvalidPeriod is returned for an unknown report period.
var ErrInvalidPeriod = errors.New("invalid period type")

// TotalsSource is the query side of the running-time store.
type TotalsSource interface {
	GetTotalsSince(ctx context.Context, since time.Time) ([]models.ProcessTotal, error)
}

// Reporter handles report generation
type Reporter struct {
	config *config.Config
	repo   TotalsSource
	now    func() time.Time
}

// New creates a new reporter
func New(cfg *config.Config, repo TotalsSource) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
		now:    time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(ctx context.Context, periodType string) (*models.Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	// Cumulative totals of every process seen since the period started
	totals, err := r.repo.GetTotalsSince(ctx, period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get process totals: %w", err)
	}

	var totalSeconds int64
	for i := range totals {
		totalSeconds += totals[i].CumulativeSeconds
	}

	if totalSeconds > 0 {
		for i := range totals {
			totals[i].Percentage = (float64(totals[i].CumulativeSeconds) / float64(totalSeconds)) * 100.0
		}
	}

	report := &models.Report{
		Period:       *period,
		Processes:    totals,
		TotalSeconds: totalSeconds,
		TotalHours:   float64(totalSeconds) / 3600.0,
		GeneratedAt:  r.now(),
	}

	return report, nil
}

// getPeriod calculates the time range for the report
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := r.now().In(r.config.Location())
	var start, end time.Time

	switch periodType {
	case "all", "":
		periodType = "all"
		end = now

	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.Add(24 * time.Hour)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("%w: %s (valid: all, day, week, month)", ErrInvalidPeriod, periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	output := fmt.Sprintf("Running Time Report - %s\n", report.Period.Type)
	if report.Period.Start.IsZero() {
		output += fmt.Sprintf("Period: all time to %s\n", report.Period.End.Format("2006-01-02 15:04"))
	} else {
		output += fmt.Sprintf("Period: %s to %s\n",
			report.Period.Start.Format("2006-01-02 15:04"),
			report.Period.End.Format("2006-01-02 15:04"))
	}
	output += fmt.Sprintf("Total Time: %.2fh (%s)\n\n", report.TotalHours, utils.FormatDuration(uint64(report.TotalSeconds)))

	if len(report.Processes) == 0 {
		output += "No running time recorded for this period.\n"
		return output
	}

	output += fmt.Sprintf("%-30s %9s %16s %10s\n", "Process", "Instances", "Running Time", "Percent")
	output += fmt.Sprintf("%s\n", "--------------------------------------------------------------------")

	for _, p := range report.Processes {
		output += fmt.Sprintf("%-30s %9d %16s %9.1f%%\n",
			truncate(p.DisplayName, 30),
			p.InstanceCount,
			utils.FormatDuration(uint64(p.CumulativeSeconds)),
			p.Percentage)
	}

	return output
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
