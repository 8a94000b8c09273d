package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barCells = 20

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	safeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	toxicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	metaStyle  = lipgloss.NewStyle().Faint(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("9")).
			Bold(true).
			Padding(0, 2)
	barFill  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// scoreBar 将 pct（0~100）绘制为固定宽度的进度条
func scoreBar(pct float64) string {
	filled := int(pct/100*barCells + 0.5)
	if filled > barCells {
		filled = barCells
	}
	if filled < 0 {
		filled = 0
	}
	return barFill.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", barCells-filled))
}
