package tui

// Action is what a key press asks the widget to do.
type Action string

const (
	ActionNone        Action = ""
	ActionDown        Action = "down"
	ActionUp          Action = "up"
	ActionActivate    Action = "activate"
	ActionToggle      Action = "toggle"
	ActionSelectAll   Action = "select_all"
	ActionDeselectAll Action = "deselect_all"
	ActionCaseToggle  Action = "case_toggle"
	ActionClose       Action = "close"
	ActionQuit        Action = "quit"
)

// DefaultKeyBindings maps key strings, as reported by tea.KeyPressMsg, to
// actions. Keys not listed go to the search input.
var DefaultKeyBindings = map[string]Action{
	"down":   ActionDown,
	"ctrl+n": ActionDown,
	"up":     ActionUp,
	"ctrl+p": ActionUp,
	"enter":  ActionActivate,
	"space":  ActionToggle,
	"ctrl+a": ActionSelectAll,
	"ctrl+d": ActionDeselectAll,
	"ctrl+t": ActionCaseToggle,
	"esc":    ActionClose,
	"ctrl+c": ActionQuit,
}

// lookupAction resolves key. Space only toggles while the list has focus;
// in the search input it is text.
func lookupAction(bindings map[string]Action, key string, searchFocused bool) Action {
	a, ok := bindings[key]
	if !ok {
		return ActionNone
	}
	if a == ActionToggle && searchFocused {
		return ActionNone
	}
	return a
}

type helpEntry struct {
	key  string
	desc string
}

func helpLine(multiple bool) []helpEntry {
	h := []helpEntry{
		{"↑/↓", "move"},
		{"enter", "select"},
	}
	if multiple {
		h = append(h,
			helpEntry{"space", "toggle"},
			helpEntry{"ctrl+a", "all"},
			helpEntry{"ctrl+d", "none"},
		)
	}
	return append(h,
		helpEntry{"ctrl+t", "case"},
		helpEntry{"esc", "done"},
	)
}
