// Package tui is an interactive terminal picker driving a combo widget.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/combo/pkg/combo"
	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/virtual"
)

// Widget is the part of combo.Combo and combo.SimpleCombo the picker
// drives.
type Widget interface {
	Open() bool
	Close() bool
	State() combo.State
	SearchText() string
	HandleInputChange(text string) bool
	SearchFocused() bool
	AddItemFocused() bool
	IsAddItemVisible() bool
	Focused() (int, bool)
	NavigateNext() navigation.Signal
	NavigatePrev() navigation.Signal
	ActivateFocused() (bool, error)
	Display() []grouping.Entry[any]
	KeyOf(item any) combo.Key
	DisplayOf(item any) string
	IsSelected(key combo.Key) bool
	DisplayText() string
	HeaderState() combo.CheckState
	CaseSensitive() bool
	ToggleCaseSensitive()
}

// multiSelector is implemented by multi-select widgets.
type multiSelector interface {
	SelectAll(ignoreFilter bool) (bool, error)
	DeselectAll(ignoreFilter bool) (bool, error)
}

var (
	_ Widget        = (*combo.Combo[any])(nil)
	_ Widget        = (*combo.SimpleCombo[any])(nil)
	_ multiSelector = (*combo.Combo[any])(nil)
)

// rows taken by everything but the list: title, input, two scroll hints,
// add-item, status and help.
const chromeLines = 7

// Config configures a Model.
type Config struct {
	Title string
	// Window must be the provider the widget was built with; the list is
	// rendered through it and resized with the terminal.
	Window      *virtual.Window
	Theme       *Theme
	NoColor     bool
	KeyBindings map[string]Action
	Logger      logr.Logger
}

// Model is the bubbletea model of the picker.
type Model struct {
	widget Widget
	multi  multiSelector
	window *virtual.Window
	input  textinput.Model
	keys   map[string]Action
	styles styles
	title  string
	log    logr.Logger

	width    int
	height   int
	err      error
	quitting bool
	canceled bool
}

// New opens w and returns a model driving it.
func New(w Widget, cfg Config) *Model {
	theme := DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	keys := cfg.KeyBindings
	if keys == nil {
		keys = DefaultKeyBindings
	}
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search"
	ti.CharLimit = 200
	ti.SetWidth(40)

	m := &Model{
		widget: w,
		window: cfg.Window,
		input:  ti,
		keys:   keys,
		styles: newStyles(theme, cfg.NoColor),
		title:  cfg.Title,
		log:    log,
	}
	m.multi, _ = w.(multiSelector)
	w.Open()
	m.input.SetValue(w.SearchText())
	m.syncInputFocus()
	return m
}

// Err returns the last error reported by the widget.
func (m *Model) Err() error { return m.err }

// Canceled reports whether the user quit with ctrl+c.
func (m *Model) Canceled() bool { return m.canceled }

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(10, msg.Width-runewidth.StringWidth(m.input.Prompt)-1))
		if m.window != nil {
			m.window.Resize(max(1, msg.Height-chromeLines))
		}
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	action := lookupAction(m.keys, keyStr, m.widget.SearchFocused())
	m.log.V(2).Info("key", "key", keyStr, "action", string(action))

	switch action {
	case ActionQuit:
		m.quitting, m.canceled = true, true
		return m, tea.Quit
	case ActionClose:
		if !m.widget.Close() {
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case ActionDown:
		m.widget.NavigateNext()
	case ActionUp:
		m.widget.NavigatePrev()
	case ActionActivate:
		if m.widget.SearchFocused() {
			m.widget.NavigateNext()
			if m.widget.SearchFocused() {
				break
			}
		}
		changed := m.report(m.widget.ActivateFocused())
		if m.multi == nil && m.err == nil && (changed || m.focusedSelected()) && m.widget.Close() {
			m.quitting = true
			m.syncInputFocus()
			return m, tea.Quit
		}
	case ActionToggle:
		m.report(m.widget.ActivateFocused())
	case ActionSelectAll:
		if m.multi != nil {
			m.report(m.multi.SelectAll(false))
		}
	case ActionDeselectAll:
		if m.multi != nil {
			m.report(m.multi.DeselectAll(false))
		}
	case ActionCaseToggle:
		m.widget.ToggleCaseSensitive()
	default:
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != before && !m.widget.HandleInputChange(v) {
			m.input.SetValue(m.widget.SearchText())
		}
		m.syncInputFocus()
		return m, cmd
	}
	m.syncInputFocus()
	return m, nil
}

func (m *Model) report(changed bool, err error) bool {
	m.err = err
	if err != nil {
		m.log.Error(err, "selection failed")
	}
	return changed
}

func (m *Model) focusedSelected() bool {
	i, ok := m.widget.Focused()
	display := m.widget.Display()
	if !ok || i >= len(display) || display[i].IsHeader() {
		return false
	}
	return m.widget.IsSelected(m.widget.KeyOf(display[i].Value()))
}

func (m *Model) syncInputFocus() {
	if m.widget.SearchFocused() && !m.quitting {
		m.input.Focus()
		return
	}
	m.input.Blur()
}

func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')

	display := m.widget.Display()
	start, end := 0, len(display)
	if m.window != nil {
		win := m.window.VisibleWindow()
		start, end = min(win.Start, len(display)), min(win.End, len(display))
	}
	focused, hasFocus := m.widget.Focused()

	if start > 0 {
		b.WriteString(m.styles.help.Render(fmt.Sprintf("  ↑ %d more", start)))
		b.WriteByte('\n')
	}
	for i := start; i < end; i++ {
		b.WriteString(m.row(display[i], hasFocus && i == focused))
		b.WriteByte('\n')
	}
	if end < len(display) {
		b.WriteString(m.styles.help.Render(fmt.Sprintf("  ↓ %d more", len(display)-end)))
		b.WriteByte('\n')
	}

	switch {
	case m.widget.IsAddItemVisible():
		label := fmt.Sprintf("  + Add %q", strings.TrimSpace(m.widget.SearchText()))
		if m.widget.AddItemFocused() {
			b.WriteString(m.styles.focused.Render(label))
		} else {
			b.WriteString(m.styles.addItem.Render(label))
		}
		b.WriteByte('\n')
	case len(display) == 0:
		b.WriteString(m.styles.help.Render("  no matches"))
		b.WriteByte('\n')
	}

	if m.err != nil {
		b.WriteString(m.styles.errorMsg.Render("error: " + m.err.Error()))
		b.WriteByte('\n')
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m *Model) titleLine() string {
	var parts []string
	if m.multi != nil {
		parts = append(parts, checkMark(m.widget.HeaderState()))
	}
	if m.title != "" {
		parts = append(parts, m.styles.title.Render(m.title))
	}
	text := m.widget.DisplayText()
	if text == "" {
		text = m.styles.help.Render("(nothing selected)")
	}
	parts = append(parts, text)
	if m.widget.CaseSensitive() {
		parts = append(parts, m.styles.help.Render("[Aa]"))
	}
	return strings.Join(parts, " ")
}

func checkMark(s combo.CheckState) string {
	switch s {
	case combo.Checked:
		return "[x]"
	case combo.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

func (m *Model) row(e grouping.Entry[any], focused bool) string {
	if e.IsHeader() {
		label := filtering.Stringify(e.GroupValue())
		if label == "" {
			label = "(none)"
		}
		return m.styles.header.Render(m.truncate(label, 0))
	}
	item := e.Value()
	selected := m.widget.IsSelected(m.widget.KeyOf(item))
	mark := "( )"
	if selected {
		mark = "(•)"
	}
	if m.multi != nil {
		mark = checkMark(combo.Unchecked)
		if selected {
			mark = checkMark(combo.Checked)
		}
	}
	prefix := "  " + mark + " "
	label := m.truncate(m.widget.DisplayOf(item), runewidth.StringWidth(prefix))
	if focused {
		return m.styles.focused.Render(prefix + label)
	}
	if selected {
		return m.styles.check.Render(prefix) + m.styles.item.Render(label)
	}
	return m.styles.item.Render(prefix + label)
}

// truncate cuts s so that it fits the terminal after indent columns.
func (m *Model) truncate(s string, indent int) string {
	if m.width <= 0 {
		return s
	}
	avail := m.width - indent
	if avail <= 1 {
		return ""
	}
	if runewidth.StringWidth(s) <= avail {
		return s
	}
	return runewidth.Truncate(s, avail, "…")
}

func (m *Model) helpView() string {
	entries := helpLine(m.multi != nil)
	parts := make([]string, 0, len(entries))
	for _, h := range entries {
		parts = append(parts, m.styles.helpKey.Render(h.key)+" "+m.styles.help.Render(h.desc))
	}
	return strings.Join(parts, m.styles.help.Render(" • "))
}

// Run starts the picker and blocks until it exits.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	return m.err
}
