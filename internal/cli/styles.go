package cli

import (
	"charm.land/lipgloss/v2"

	"github.com/najah-ai/learner-service/internal/estimator"
)

var (
	primary = lipgloss.Color("#8B5CF6")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#F43F5E")
	dim     = lipgloss.Color("#94A3B8")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(dim).
			Width(22)

	correctStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	wrongStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(dim).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1)
)

func trendStyle(trend estimator.Trend) lipgloss.Style {
	switch trend {
	case estimator.TrendImproving:
		return correctStyle
	case estimator.TrendDeclining:
		return wrongStyle
	default:
		return lipgloss.NewStyle().Bold(true)
	}
}

// bar draws level out of estimator.MaxLevel as a fixed-width gauge.
func bar(level int) string {
	filled := lipgloss.NewStyle().Foreground(primary)
	empty := lipgloss.NewStyle().Foreground(dim)

	out := ""
	for i := 0; i < estimator.MaxLevel; i++ {
		if i < level {
			out += filled.Render("█")
		} else {
			out += empty.Render("░")
		}
	}
	return out
}
