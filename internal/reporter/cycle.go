package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/proctrack/proctrack/internal/tracker"
	"github.com/proctrack/proctrack/pkg/utils"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// CycleHeader is the first line printed for every cycle.
func CycleHeader(result *tracker.CycleResult) string {
	return fmt.Sprintf("Found %d processes. Updating in %s", len(result.Rows), utils.FormatInterval(result.Interval))
}

// FormatCycle renders one cycle as a header followed by one line per process:
// display name, instance count and cumulative running time.
func FormatCycle(result *tracker.CycleResult) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(CycleHeader(result)))
	b.WriteByte('\n')

	for _, row := range result.Rows {
		b.WriteString("- ")
		b.WriteString(nameStyle.Render(row.DisplayName))
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" x%d", row.InstanceCount)))
		b.WriteString(" ")
		b.WriteString(utils.FormatDuration(row.CumulativeSeconds))
		b.WriteByte('\n')
	}

	return b.String()
}
