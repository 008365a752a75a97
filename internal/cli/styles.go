package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bodhibot/bodhibot-go/internal/models"
	"github.com/bodhibot/bodhibot-go/internal/service"
)

// Theme holds the color scheme for CLI output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Accent  lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Accent:  lipgloss.Color("#D7AF5F"), // gold
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

// strategyLabels render the four-attraction strategies with their Chinese
// names for display.
var strategyLabels = map[models.Strategy]string{
	models.StrategyGiving:           "布施 (giving)",
	models.StrategyKindSpeech:       "愛語 (kind speech)",
	models.StrategyBeneficialAction: "利行 (beneficial action)",
	models.StrategyIdentification:   "同事 (identification)",
}

// renderTurn formats a composed turn for the terminal.
func renderTurn(result *service.TurnResult, theme Theme) string {
	var b strings.Builder

	label := strategyLabels[result.Strategy]
	if label == "" {
		label = string(result.Strategy)
	}
	b.WriteString(theme.accentStyle().Render(label))
	b.WriteString(theme.hintStyle().Render(fmt.Sprintf("  [%s / %s]", result.Level, result.Type)))
	b.WriteString("\n")

	if result.Degraded {
		b.WriteString(theme.errorStyle().Render("! scripture retrieval unavailable, answering without excerpts"))
		b.WriteString("\n")
	}

	for _, e := range result.Excerpts {
		b.WriteString("\n")
		b.WriteString(theme.statusStyle().Render(fmt.Sprintf("%d. %s (%s)", e.Rank, e.SourceTitle, e.CanonicalRef)))
		b.WriteString("\n   ")
		b.WriteString(e.Text)
		b.WriteString("\n")
		if verbose {
			b.WriteString(theme.hintStyle().Render(fmt.Sprintf("   score %.4f", e.Score)))
			b.WriteString("\n")
		}
	}

	if len(result.QuickReplies) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.hintStyle().Render("You could ask next:"))
		b.WriteString("\n")
		for _, q := range result.QuickReplies {
			b.WriteString(theme.hintStyle().Render("  - " + q.Text))
			b.WriteString("\n")
		}
	}

	return b.String()
}
