package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit Action = "quit"

	// Waiting view actions
	ActionOpenBrowser Action = "open_browser"
	ActionCancel      Action = "cancel"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal ContextName = "global"
	ContextWait   ContextName = "wait"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal: globalBindings,
	ContextWait:   withGlobal(waitBindings),
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit",
		},
	},
}

// waitBindings contains key bindings for the "waiting for authorization" view
var waitBindings = []Binding{
	{
		Action: ActionOpenBrowser,
		KeyMap: KeyMap{
			Primary: "o",
			Help:    "open browser again",
		},
	},
	{
		Action: ActionCancel,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "q",
			Help:      "cancel",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return binding.KeyMap.Primary + "/" + binding.KeyMap.Secondary + ": " + binding.KeyMap.Help
	}
	return binding.KeyMap.Primary + ": " + binding.KeyMap.Help
}

// withGlobal appends the global bindings to a view's own bindings
func withGlobal(bindings []Binding) []Binding {
	return append(append([]Binding{}, bindings...), globalBindings...)
}
