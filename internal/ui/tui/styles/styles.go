package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Text styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#DEDEDE"))

	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Italic(true)

	Url = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#43BF6D")).
		Underline(true)

	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#43BF6D")).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F5A623"))

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F87")).
		Bold(true)

	Spinner = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9D86FF")).
		Bold(true)
)

// Layout helpers
func Header(width int, title string) string {
	return Title.
		Width(width).
		Align(lipgloss.Center).
		Render(title)
}

func ContentBox(width int, content string, padding int) string {
	return lipgloss.NewStyle().
		Width(width).
		Padding(padding).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Render(content)
}

// KeyValue renders an aligned "key: value" line as used by the status listing
func KeyValue(keyWidth int, key, value string) string {
	return Muted.Width(keyWidth).Render(key+":") + " " + Info.Render(value)
}
