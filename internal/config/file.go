package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type fileConfig struct {
	DatabasePath        string            `json:"database_path"`
	PollInterval        string            `json:"poll_interval"`
	Provider            string            `json:"provider"`
	IgnoredNames        []string          `json:"ignored_names"`
	IgnoredPathPrefixes []string          `json:"ignored_path_prefixes"`
	DisplayNames        map[string]string `json:"display_names"`
}

// Load builds a Config from defaults, an optional JSON file and environment
// overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if raw.DatabasePath != "" {
		cfg.Database.Path = raw.DatabasePath
	}
	if raw.PollInterval != "" {
		interval, err := ParseInterval(raw.PollInterval)
		if err != nil {
			return fmt.Errorf("parse poll_interval: %w", err)
		}
		if err := cfg.SetPollInterval(interval); err != nil {
			return err
		}
	}
	if raw.Provider != "" {
		cfg.Tracker.Provider = raw.Provider
	}
	if raw.IgnoredNames != nil {
		cfg.Filter.IgnoredNames = raw.IgnoredNames
	}
	if raw.IgnoredPathPrefixes != nil {
		cfg.Filter.IgnoredPathPrefixes = raw.IgnoredPathPrefixes
	}
	for suffix, name := range raw.DisplayNames {
		if cfg.Filter.DisplayNames == nil {
			cfg.Filter.DisplayNames = make(map[string]string)
		}
		cfg.Filter.DisplayNames[suffix] = name
	}

	return nil
}
