package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/combo/pkg/combo"
	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
)

func TestDefaultMatchesComboDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, combo.DefaultOptions(), cfg.Options())
	assert.True(t, cfg.Multiple())
	assert.Equal(t, DefaultWindowSize, cfg.WindowConfig().Size)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseMergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
widget:
  id: states
  value_key: f
  filtering_key: r
  group_key: r
  sort: desc
  allow_custom_values: true
  filterable: false
filters:
  - field: r
    condition: equals
    value: New England
    ignore_case: true
  - cel: 'record.f.startsWith("N")'
window:
  size: 5
`))
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, "f", opts.ValueKey)
	assert.Equal(t, "r", opts.FilteringKey)
	assert.Equal(t, "r", opts.GroupKey)
	assert.Equal(t, grouping.Descending, opts.GroupSortDirection)
	assert.True(t, opts.AllowCustomValues)
	assert.False(t, opts.Filterable)
	assert.True(t, opts.AutoFocusSearch, "absent key keeps the default")
	assert.Equal(t, combo.DefaultFallbackGroup, opts.FallbackGroup)
	assert.Equal(t, 5, cfg.WindowConfig().Size)

	exprs, err := cfg.Expressions()
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	assert.Equal(t, "r", exprs[0].FieldName)
	assert.Equal(t, "equals", exprs[0].Condition.Name())
	assert.True(t, exprs[0].IgnoreCase)
	assert.True(t, exprs[1].Whole())
	assert.Equal(t, "cel", exprs[1].Condition.Name())
}

func TestParseExpressionsFilter(t *testing.T) {
	cfg, err := Parse([]byte(`
filters:
  - field: r
    condition: equals
    value: new england
    ignore_case: true
`))
	require.NoError(t, err)
	exprs, err := cfg.Expressions()
	require.NoError(t, err)

	data := []map[string]any{
		{"f": "Maine", "r": "New England"},
		{"f": "Ohio", "r": "Midwest"},
	}
	got := filtering.Filter(data, filtering.NewTree(exprs...), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Maine", got[0]["f"])
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "unknown key", yaml: "widget:\n  colour: red", want: "colour"},
		{name: "bad sort", yaml: "widget:\n  sort: sideways", want: "widget.sort"},
		{name: "empty id", yaml: "widget:\n  id: ''", want: "widget.id"},
		{name: "negative window", yaml: "window:\n  size: -1", want: "window"},
		{name: "unknown condition", yaml: "filters:\n  - field: a\n    condition: near", want: "filters[0]"},
		{name: "both condition and cel", yaml: "filters:\n  - condition: empty\n    cel: 'true'", want: "not both"},
		{name: "neither", yaml: "filters:\n  - field: a", want: "required"},
		{name: "bad cel", yaml: "filters:\n  - cel: '_ +'", want: "cel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Widget.ID = ""
	cfg.Widget.Sort = "up"
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "widget.id")
	assert.Contains(t, err.Error(), "widget.sort")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("widget:\n  multiple: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Multiple())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{in: "name:contains:oh", want: Filter{Field: "name", Condition: "contains", Value: "oh"}},
		{in: "name:empty", want: Filter{Field: "name", Condition: "empty"}},
		{in: ":contains:a:b", want: Filter{Condition: "contains", Value: "a:b"}},
		{in: `cel:record.r == "NE"`, want: Filter{CEL: `record.r == "NE"`}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	for _, bad := range []string{"name", "name:", "name:near:x", "cel:", "cel: "} {
		_, err := ParseFilter(bad)
		assert.Error(t, err, bad)
	}
}
