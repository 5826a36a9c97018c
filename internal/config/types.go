// Package config reads the widget options file used by the CLI.
//
// The file is YAML. Unset values keep their defaults:
//
//	widget:
//	  id: states
//	  value_key: f
//	  display_key: f
//	  filtering_key: f
//	  group_key: r
//	  sort: asc
//	  allow_custom_values: true
//	filters:
//	  - field: r
//	    condition: equals
//	    value: New England
//	    ignore_case: true
//	  - cel: 'record.f.startsWith("N")'
//	window:
//	  size: 20
package config

import (
	"github.com/oakwood-commons/combo/pkg/combo"
	"github.com/oakwood-commons/combo/pkg/grouping"
)

// DefaultWidgetID names the widget when the file does not.
const DefaultWidgetID = "combo"

// DefaultWindowSize is the number of list rows realized at once.
const DefaultWindowSize = 20

// Config is the decoded options file.
type Config struct {
	Widget  Widget   `yaml:"widget"`
	Filters []Filter `yaml:"filters,omitempty"`
	Window  Window   `yaml:"window"`
}

// Widget maps onto combo.Options. Booleans are pointers so an absent key
// keeps the default.
type Widget struct {
	ID                string `yaml:"id"`
	ValueKey          string `yaml:"value_key,omitempty"`
	DisplayKey        string `yaml:"display_key,omitempty"`
	FilteringKey      string `yaml:"filtering_key,omitempty"`
	GroupKey          string `yaml:"group_key,omitempty"`
	Sort              string `yaml:"sort,omitempty"`
	FallbackGroup     string `yaml:"fallback_group,omitempty"`
	AllowCustomValues *bool  `yaml:"allow_custom_values,omitempty"`
	AutoFocusSearch   *bool  `yaml:"auto_focus_search,omitempty"`
	Filterable        *bool  `yaml:"filterable,omitempty"`
	CaseSensitive     *bool  `yaml:"case_sensitive,omitempty"`
	Multiple          *bool  `yaml:"multiple,omitempty"`
}

// Filter is one expression. Either Condition (with Field and Value) or
// CEL is set. An empty Field targets the whole record.
type Filter struct {
	Field      string `yaml:"field,omitempty"`
	Condition  string `yaml:"condition,omitempty"`
	Value      any    `yaml:"value,omitempty"`
	IgnoreCase bool   `yaml:"ignore_case,omitempty"`
	CEL        string `yaml:"cel,omitempty"`
}

// Window configures list virtualization.
type Window struct {
	Size int `yaml:"size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	opts := combo.DefaultOptions()
	return Config{
		Widget: Widget{
			ID:                DefaultWidgetID,
			Sort:              string(grouping.Ascending),
			FallbackGroup:     opts.FallbackGroup,
			AllowCustomValues: boolPtr(opts.AllowCustomValues),
			AutoFocusSearch:   boolPtr(opts.AutoFocusSearch),
			Filterable:        boolPtr(opts.Filterable),
			CaseSensitive:     boolPtr(opts.CaseSensitive),
			Multiple:          boolPtr(true),
		},
		Window: Window{Size: DefaultWindowSize},
	}
}

func boolPtr(b bool) *bool { return &b }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
