package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme holds the colors of the picker.
type Theme struct {
	Accent    color.Color // title and group headers
	Muted     color.Color // help text and placeholders
	Selected  color.Color // check marks of selected items
	FocusFG   color.Color // focused row foreground
	FocusBG   color.Color // focused row background
	AddItem   color.Color // the add-item row
	ErrorText color.Color
}

// DefaultTheme is the 256-color palette used unless a theme is given.
func DefaultTheme() Theme {
	return Theme{
		Accent:    lipgloss.Color("81"),
		Muted:     lipgloss.Color("244"),
		Selected:  lipgloss.Color("114"),
		FocusFG:   lipgloss.Color("250"),
		FocusBG:   lipgloss.Color("24"),
		AddItem:   lipgloss.Color("179"),
		ErrorText: lipgloss.Color("203"),
	}
}

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	item     lipgloss.Style
	focused  lipgloss.Style
	check    lipgloss.Style
	addItem  lipgloss.Style
	help     lipgloss.Style
	helpKey  lipgloss.Style
	errorMsg lipgloss.Style
}

func newStyles(t Theme, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			title:    plain.Bold(true),
			header:   plain.Bold(true),
			item:     plain,
			focused:  plain.Reverse(true),
			check:    plain,
			addItem:  plain,
			help:     plain,
			helpKey:  plain,
			errorMsg: plain,
		}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		header:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		item:     lipgloss.NewStyle(),
		focused:  lipgloss.NewStyle().Foreground(t.FocusFG).Background(t.FocusBG),
		check:    lipgloss.NewStyle().Foreground(t.Selected),
		addItem:  lipgloss.NewStyle().Italic(true).Foreground(t.AddItem),
		help:     lipgloss.NewStyle().Foreground(t.Muted),
		helpKey:  lipgloss.NewStyle().Foreground(t.Accent),
		errorMsg: lipgloss.NewStyle().Foreground(t.ErrorText),
	}
}
