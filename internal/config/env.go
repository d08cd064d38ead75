package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envDBPath      = "PROCTRACK_DB_PATH"
	envInterval    = "PROCTRACK_INTERVAL"
	envProvider    = "PROCTRACK_PROVIDER"
	envIgnoreNames = "PROCTRACK_IGNORE_NAMES"
	envIgnorePaths = "PROCTRACK_IGNORE_PATHS"
	envPIDFile     = "PROCTRACK_PID_FILE"
	envTimeZone    = "PROCTRACK_TIMEZONE"
	envWebHost     = "PROCTRACK_WEB_HOST"
	envWebPort     = "PROCTRACK_WEB_PORT"
	envConfigFile  = "PROCTRACK_CONFIG"
)

// LoadFromEnv loads configuration from environment variables.
// Environment variables override default values. A malformed or out of
// range poll interval is returned as an ErrInvalid error.
func LoadFromEnv(cfg *Config) error {
	// Database configuration
	if dbPath := os.Getenv(envDBPath); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Tracker configuration
	if raw := os.Getenv(envInterval); raw != "" {
		interval, err := ParseInterval(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", envInterval, err)
		}
		if err := cfg.SetPollInterval(interval); err != nil {
			return fmt.Errorf("%s: %w", envInterval, err)
		}
	}

	if provider := os.Getenv(envProvider); provider != "" {
		cfg.Tracker.Provider = strings.ToLower(strings.TrimSpace(provider))
	}

	// Filter configuration
	if names := os.Getenv(envIgnoreNames); names != "" {
		cfg.Filter.IgnoredNames = splitList(names)
	}

	if paths := os.Getenv(envIgnorePaths); paths != "" {
		cfg.Filter.IgnoredPathPrefixes = splitList(paths)
	}

	// Daemon configuration
	if pidFile := os.Getenv(envPIDFile); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Report configuration
	if timeZone := os.Getenv(envTimeZone); timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}

	// Web configuration
	if webHost := os.Getenv(envWebHost); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv(envWebPort); webPort != "" {
		port, err := strconv.Atoi(webPort)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, envWebPort, err)
		}
		if err := cfg.SetWebPort(port); err != nil {
			return err
		}
	}

	return nil
}

// ParseInterval accepts a Go duration ("30s", "1m30s") or a bare number of
// seconds ("30").
func ParseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if seconds < 0 || seconds > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("%w: %q seconds is out of range", ErrInvalid, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid duration", ErrInvalid, raw)
	}
	return interval, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// New creates a Config from defaults, the optional file named by
// PROCTRACK_CONFIG, and environment overrides.
func New() (*Config, error) {
	return Load(os.Getenv(envConfigFile))
}
