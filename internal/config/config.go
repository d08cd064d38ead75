package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrInvalid marks configuration that must abort startup.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Tracker configuration
	Tracker TrackerConfig

	// Relevance filter and naming configuration
	Filter FilterConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Report configuration
	Report ReportConfig

	// Web server configuration
	Web WebConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// TrackerConfig holds polling behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration // Delay between snapshot cycles
	MinPollInterval time.Duration // Minimum allowed poll interval
	MaxPollInterval time.Duration // Maximum allowed poll interval
	Provider        string        // Snapshot provider: auto, x11, wayland or process
}

// FilterConfig holds the static exclusion sets and display name overrides
type FilterConfig struct {
	IgnoredNames        []string          // Exact process names to drop
	IgnoredPathPrefixes []string          // Executable path prefixes to drop
	DisplayNames        map[string]string // Executable path suffix -> display name
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TimeZone string
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// Provider kinds accepted by TrackerConfig.Provider.
const (
	ProviderAuto    = "auto"
	ProviderX11     = "x11"
	ProviderWayland = "wayland"
	ProviderProcess = "process"
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/proctrack/proctrack.db
		},
		Tracker: TrackerConfig{
			PollInterval:    10 * time.Second,
			MinPollInterval: 1 * time.Second,
			MaxPollInterval: 3600 * time.Second,
			Provider:        ProviderAuto,
		},
		Filter: FilterConfig{
			IgnoredNames: []string{
				"mbamtray.exe",
				"NVIDIA Share.exe",
				"bash", "zsh", "fish", "sh", "dash",
				"systemd", "dbus-daemon", "pulseaudio", "pipewire", "wireplumber",
				"ssh-agent", "gpg-agent", "dconf-service",
			},
			IgnoredPathPrefixes: []string{
				`C:\Windows`,
				"/usr/lib/systemd",
				"/usr/libexec",
			},
			DisplayNames: map[string]string{
				"Spotify.exe":    "Spotify",
				"datagrip64.exe": "DataGrip",
			},
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/proctrack-%d.pid", os.Getuid()),
		},
		Report: ReportConfig{
			TimeZone: "Local",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(), // Default port based on user ID
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validatePollInterval(c.Tracker.PollInterval); err != nil {
		return err
	}

	switch c.Tracker.Provider {
	case ProviderAuto, ProviderX11, ProviderWayland, ProviderProcess:
	default:
		return fmt.Errorf("%w: unknown provider %q (valid: auto, x11, wayland, process)", ErrInvalid, c.Tracker.Provider)
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("%w: web port must be between 1 and 65535, got %d", ErrInvalid, c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("%w: web host cannot be empty", ErrInvalid)
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("%w: PID file path cannot be empty", ErrInvalid)
	}

	if _, err := time.LoadLocation(c.Report.TimeZone); err != nil {
		return fmt.Errorf("%w: time zone %q: %v", ErrInvalid, c.Report.TimeZone, err)
	}

	return nil
}

func (c *Config) validatePollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("%w: poll interval (%v) cannot be less than minimum (%v)",
			ErrInvalid, interval, c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("%w: poll interval (%v) cannot be greater than maximum (%v)",
			ErrInvalid, interval, c.Tracker.MaxPollInterval)
	}
	// Accrual credits whole seconds, so the gap cap must be one too.
	if interval%time.Second != 0 {
		return fmt.Errorf("%w: poll interval (%v) must be a whole number of seconds", ErrInvalid, interval)
	}
	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if err := c.validatePollInterval(interval); err != nil {
		return err
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalid, port)
	}
	c.Web.Port = port
	return nil
}

// GetPollIntervalSeconds returns the poll interval in seconds
func (c *Config) GetPollIntervalSeconds() int64 {
	return int64(c.Tracker.PollInterval.Seconds())
}

// Location returns the report time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Provider: %s
  Filter:
    Ignored Names: %s
    Ignored Paths: %s
    Display Names: %d overrides
  Daemon:
    PID File: %s
  Report:
    Time Zone: %s
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.Provider,
		strings.Join(c.Filter.IgnoredNames, ", "),
		strings.Join(c.Filter.IgnoredPathPrefixes, ", "),
		len(c.Filter.DisplayNames),
		c.Daemon.PIDFile,
		c.Report.TimeZone,
		c.Web.Host,
		c.Web.Port,
	)
}
