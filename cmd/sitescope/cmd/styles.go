package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/service"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	styleGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	styleBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	styleBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 2)
)

// paint applies a style unless --no-color is set.
func paint(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

func scoreStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 70:
		return styleGood
	case pct >= 50:
		return styleWarn
	default:
		return styleBad
	}
}

// renderRunSummary formats the completed run for the terminal.
func renderRunSummary(res *service.RunResult) string {
	r := res.Report
	var b strings.Builder

	pct := r.OverallPercentage()
	b.WriteString(paint(styleHeading, fmt.Sprintf("%s audit", r.Subject)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s\n",
		paint(scoreStyle(pct), fmt.Sprintf("%.1f%%", pct)),
		string(r.OverallOutcome())))
	b.WriteString(paint(styleMuted, fmt.Sprintf("%d pages, %d screenshots, %d revision cycles\n",
		r.PagesSeen, r.Screenshots, r.Cycles)))
	b.WriteString("\n")

	for _, m := range r.Modules {
		if m.MaxPoints() == 0 {
			continue
		}
		mpct := m.Percentage()
		line := fmt.Sprintf("%-28s %3d/%-3d %s",
			m.Title, m.ActualPoints(), m.MaxPoints(),
			paint(scoreStyle(mpct), fmt.Sprintf("%5.1f%%", mpct)))
		if m.Degraded {
			line += paint(styleMuted, "  (heuristic)")
		}
		b.WriteString(line + "\n")
	}

	friction := r.Synthesize()
	b.WriteString("\n")
	b.WriteString(paint(styleHeading, "Primary friction point: "))
	b.WriteString(friction.Title + "\n")
	b.WriteString(paint(styleMuted, friction.Description) + "\n")

	if wins := r.QuickWins(3); len(wins) > 0 {
		b.WriteString("\n" + paint(styleHeading, "Quick wins") + "\n")
		for _, w := range wins {
			b.WriteString(fmt.Sprintf("  - %s: %s\n", w.Issue, w.Action))
		}
	}

	if len(r.Caveats) > 0 {
		b.WriteString("\n" + paint(styleWarn, "Caveats") + "\n")
		for _, c := range r.Caveats {
			b.WriteString(fmt.Sprintf("  - %s (%s): %s\n", c.AgentName, c.Kind, c.Detail))
		}
	}

	if res.ArtifactPath != "" {
		b.WriteString("\n" + paint(styleMuted, "Report: "+res.ArtifactPath) + "\n")
	}

	if noColor {
		return b.String()
	}
	return styleBox.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func statusGlyph(status core.RunStatus) string {
	switch status {
	case core.RunStatusCompleted:
		return paint(styleGood, "ok")
	case core.RunStatusFailed:
		return paint(styleBad, "failed")
	default:
		return paint(styleWarn, string(status))
	}
}
