// Package aggregator merges the observations of one snapshot into a single
// entry per process identity.
package aggregator

import (
	"sort"
	"strings"

	"github.com/proctrack/proctrack/internal/naming"
	"github.com/proctrack/proctrack/pkg/snapshot"
)

// Process is the aggregated view of every observation sharing one identity
// within a single cycle.
type Process struct {
	Identity           string `json:"identity"`
	DisplayName        string `json:"display_name"`
	Path               string `json:"path"`
	InstanceCount      uint32 `json:"instance_count"`
	MaxObservedRunTime uint64 `json:"max_observed_run_time"`
}

// NameFunc resolves the display name for an identity.
type NameFunc func(identity, path string) string

// Aggregate groups observations by identity (exact, case-sensitive match).
//
// Path and display name come from the first observation seen for an
// identity; later observations with a different path do not split the group.
// The result is ordered by first appearance. A nil name func falls back to
// naming.Normalize.
func Aggregate(observations []snapshot.Observation, name NameFunc) []Process {
	if name == nil {
		name = func(identity, _ string) string { return naming.Normalize(identity) }
	}

	index := make(map[string]int, len(observations))
	processes := make([]Process, 0, len(observations))

	for _, obs := range observations {
		if i, ok := index[obs.Identity]; ok {
			p := &processes[i]
			p.InstanceCount++
			if obs.RunTimeSeconds > p.MaxObservedRunTime {
				p.MaxObservedRunTime = obs.RunTimeSeconds
			}
			continue
		}

		index[obs.Identity] = len(processes)
		processes = append(processes, Process{
			Identity:           obs.Identity,
			DisplayName:        name(obs.Identity, obs.Path),
			Path:               obs.Path,
			InstanceCount:      1,
			MaxObservedRunTime: obs.RunTimeSeconds,
		})
	}

	return processes
}

// SortByDisplayName orders processes by display name, case-insensitively,
// breaking ties by identity so the order is stable across cycles.
func SortByDisplayName(processes []Process) {
	sort.SliceStable(processes, func(i, j int) bool {
		a, b := strings.ToLower(processes[i].DisplayName), strings.ToLower(processes[j].DisplayName)
		if a != b {
			return a < b
		}
		return processes[i].Identity < processes[j].Identity
	})
}

// TotalInstances sums InstanceCount across processes.
func TotalInstances(processes []Process) int {
	total := 0
	for _, p := range processes {
		total += int(p.InstanceCount)
	}
	return total
}
