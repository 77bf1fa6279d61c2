package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#6366f1")
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#94a3b8")
	colorFg     = lipgloss.Color("#e2e8f0")
)

var (
	styleTitle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleBold     = lipgloss.NewStyle().Foreground(colorFg).Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleTag      = lipgloss.NewStyle().Foreground(colorAccent)
	styleSelected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleLabel    = lipgloss.NewStyle().Foreground(colorDim).Bold(true)
	styleFocused  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleCard     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "Active":
		return lipgloss.NewStyle().Foreground(colorGreen)
	case "Lead":
		return lipgloss.NewStyle().Foreground(colorAccent)
	case "Prospect":
		return lipgloss.NewStyle().Foreground(colorYellow)
	case "Churned":
		return lipgloss.NewStyle().Foreground(colorRed)
	default:
		return styleDim
	}
}

// header renders a section header with an underline.
func header(text string) string {
	return fmt.Sprintf("%s\n%s", styleTitle.Render(text), styleDim.Render(strings.Repeat("─", lipgloss.Width(text))))
}

func clientLensHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(colorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(colorAccent)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(colorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(colorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(colorFg).Background(colorAccent).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(colorAccent)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(colorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(colorDim)

	return t
}
