package components

import (
	"strings"

	"github.com/PizzaHomicide/gcal/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// keyStyle is used to highlight keyboard shortcuts in UI
var keyStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4")).
	Bold(true)

// KeyBindingsBar creates a styled footer listing the bindings of a context
func KeyBindingsBar(bindings []keybindings.Binding) string {
	var parts []string
	for _, b := range bindings {
		key := b.KeyMap.Primary
		if b.KeyMap.Secondary != "" {
			key += "/" + b.KeyMap.Secondary
		}
		parts = append(parts, keyStyle.Render(key)+": "+b.KeyMap.Help)
	}

	return styles.Info.Render(strings.Join(parts, " • "))
}
