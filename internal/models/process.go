package models

import (
	"time"
)

// Process is the identity record of a tracked executable.
type Process struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Path        string    `gorm:"not null" json:"path"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
}

// RunningTime is the single accrual row kept per process.
type RunningTime struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ProcessID         uint      `gorm:"not null;uniqueIndex" json:"process_id"`
	Process           *Process  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	InstanceCount     int64     `gorm:"not null;default:0" json:"instance_count"`
	CumulativeSeconds int64     `gorm:"not null;default:0" json:"cumulative_seconds"`
	LastUpdatedAt     string    `gorm:"not null;index" json:"last_updated_at"` // RFC 3339, UTC
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProcessTotal is a joined, report friendly view of a process and its
// running time.
type ProcessTotal struct {
	Name              string    `json:"name"`
	DisplayName       string    `json:"display_name"`
	Path              string    `json:"path"`
	InstanceCount     int64     `json:"instance_count"`
	CumulativeSeconds int64     `json:"cumulative_seconds"`
	FirstSeenAt       time.Time `json:"first_seen_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
	TotalHours        float64   `json:"total_hours"`
	Percentage        float64   `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "all", "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod   `json:"period"`
	Processes    []ProcessTotal `json:"processes"`
	TotalSeconds int64          `json:"total_seconds"`
	TotalHours   float64        `json:"total_hours"`
	GeneratedAt  time.Time      `json:"generated_at"`
}
