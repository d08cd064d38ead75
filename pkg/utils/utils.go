package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatRoundedUnit renders seconds in its single largest whole unit.
func FormatRoundedUnit(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds > 3600 {
		return fmt.Sprintf("%dh", int64(seconds/3600))
	}
	return fmt.Sprintf("%dm", int64(seconds/60))
}

// FormatDuration renders seconds as space separated units, largest first,
// omitting zero units: 3725 -> "1h 2m 5s", 0 -> "0s".
func FormatDuration(seconds uint64) string {
	if seconds == 0 {
		return "0s"
	}

	units := []struct {
		suffix string
		size   uint64
	}{
		{"d", 86400},
		{"h", 3600},
		{"m", 60},
		{"s", 1},
	}

	parts := make([]string, 0, len(units))
	for _, unit := range units {
		if n := seconds / unit.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit.suffix))
			seconds -= n * unit.size
		}
	}
	return strings.Join(parts, " ")
}

// FormatInterval renders a poll interval the way FormatDuration does, after
// rounding to whole seconds.
func FormatInterval(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	return FormatDuration(uint64(d.Round(time.Second) / time.Second))
}
