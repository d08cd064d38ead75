// Package filter drops process observations that are not user relevant.
package filter

import (
	"strings"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/pkg/snapshot"
)

// Filter holds the static exclusion sets.
type Filter struct {
	names    map[string]struct{}
	prefixes []string
}

// New builds a Filter from the configured block-lists.
func New(cfg config.FilterConfig) *Filter {
	f := &Filter{
		names:    make(map[string]struct{}, len(cfg.IgnoredNames)),
		prefixes: make([]string, 0, len(cfg.IgnoredPathPrefixes)),
	}
	for _, name := range cfg.IgnoredNames {
		f.names[name] = struct{}{}
	}
	for _, prefix := range cfg.IgnoredPathPrefixes {
		if prefix != "" {
			f.prefixes = append(f.prefixes, prefix)
		}
	}
	return f
}

// IsRelevant reports whether obs should be tracked.
func (f *Filter) IsRelevant(obs snapshot.Observation) bool {
	if obs.Path == "" || !obs.IsRunning {
		return false
	}
	if _, blocked := f.names[obs.Identity]; blocked {
		return false
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(obs.Path, prefix) {
			return false
		}
	}
	return true
}

// Apply returns the relevant observations in their original order.
func (f *Filter) Apply(observations []snapshot.Observation) []snapshot.Observation {
	relevant := make([]snapshot.Observation, 0, len(observations))
	for _, obs := range observations {
		if f.IsRelevant(obs) {
			relevant = append(relevant, obs)
		}
	}
	return relevant
}
