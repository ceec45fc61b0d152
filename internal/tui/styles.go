package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the ROSTER logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "R O S T E R" as a slow wave of green light.
// Deep forest green (#1a3a24) -> bright emerald (#4ade80).
func renderShimmerLogo(frame int) string {
	const text = "ROSTER"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		b = math.Min(1, math.Max(0.05, b))

		color := fmt.Sprintf("#%02X%02X%02X",
			clampByte(26+b*(74-26)),
			clampByte(58+b*(222-58)),
			clampByte(36+b*(128-36)))

		out.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(text[i])))
		if i < n-1 {
			out.WriteString("  ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	deletingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#606878")).
			Bold(true)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	formBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1e1e2a")).
			Padding(0, 1)
)

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins key/label pairs into one help line.
func helpBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(parts, "  ")
}
