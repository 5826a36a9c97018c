package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/combo/pkg/combo"
	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
	"github.com/oakwood-commons/combo/pkg/virtual"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads and validates the options file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Widget.ID) == "" {
		errs = append(errs, errors.New("widget.id must not be empty"))
	}
	if _, err := grouping.ParseDirection(c.Widget.Sort); err != nil {
		errs = append(errs, fmt.Errorf("widget.sort: %w", err))
	}
	if err := c.WindowConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("window: %w", err))
	}
	for i, f := range c.Filters {
		if err := f.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("filters[%d]: %w", i, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Options converts the widget section into combo.Options.
func (c Config) Options() combo.Options {
	w := c.Widget
	dir, err := grouping.ParseDirection(w.Sort)
	if err != nil {
		dir = grouping.Ascending
	}
	def := combo.DefaultOptions()
	opts := combo.Options{
		ValueKey:           w.ValueKey,
		DisplayKey:         w.DisplayKey,
		FilteringKey:       w.FilteringKey,
		GroupKey:           w.GroupKey,
		GroupSortDirection: dir,
		FallbackGroup:      w.FallbackGroup,
		AllowCustomValues:  boolOr(w.AllowCustomValues, def.AllowCustomValues),
		AutoFocusSearch:    boolOr(w.AutoFocusSearch, def.AutoFocusSearch),
		Filterable:         boolOr(w.Filterable, def.Filterable),
		CaseSensitive:      boolOr(w.CaseSensitive, def.CaseSensitive),
	}
	if opts.FallbackGroup == "" {
		opts.FallbackGroup = def.FallbackGroup
	}
	return opts
}

// Multiple reports whether the widget allows several selected items.
func (c Config) Multiple() bool { return boolOr(c.Widget.Multiple, true) }

// Expressions converts the filters in order.
func (c Config) Expressions() ([]filtering.Expression, error) {
	out := make([]filtering.Expression, 0, len(c.Filters))
	for i, f := range c.Filters {
		e, err := f.Expression()
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// WindowConfig returns the virtualization window settings.
func (c Config) WindowConfig() virtual.Config {
	return virtual.Config{Size: c.Window.Size}
}

// Validate checks that exactly one of Condition and CEL is set and that
// it resolves.
func (f Filter) Validate() error {
	_, err := f.Expression()
	return err
}

// Expression converts f into a filtering.Expression.
func (f Filter) Expression() (filtering.Expression, error) {
	switch {
	case f.CEL != "" && f.Condition != "":
		return filtering.Expression{}, errors.New("set either condition or cel, not both")
	case f.CEL != "":
		cond := filtering.CEL(f.CEL)
		if err := cond.Err(); err != nil {
			return filtering.Expression{}, fmt.Errorf("cel %q: %w", f.CEL, err)
		}
		return filtering.Expression{FieldName: f.Field, Condition: cond, SearchValue: f.Value}, nil
	case f.Condition == "":
		return filtering.Expression{}, errors.New("condition or cel is required")
	}
	cond, ok := filtering.Lookup(f.Condition)
	if !ok {
		return filtering.Expression{}, fmt.Errorf("unknown condition %q (want one of %s)", f.Condition, strings.Join(filtering.Names(), ", "))
	}
	return filtering.Expression{
		FieldName:   f.Field,
		Condition:   cond,
		SearchValue: f.Value,
		IgnoreCase:  f.IgnoreCase,
	}, nil
}

// String renders f in the ParseFilter syntax.
func (f Filter) String() string {
	if f.CEL != "" {
		return "cel:" + f.CEL
	}
	if f.Value == nil {
		return f.Field + ":" + f.Condition
	}
	return fmt.Sprintf("%s:%s:%v", f.Field, f.Condition, f.Value)
}

// ParseFilter parses field:condition[:value] or cel:<expression>. An empty
// field targets the whole record.
func ParseFilter(s string) (Filter, error) {
	if expr, ok := strings.CutPrefix(s, "cel:"); ok {
		if strings.TrimSpace(expr) == "" {
			return Filter{}, fmt.Errorf("filter %q: empty cel expression", s)
		}
		return Filter{CEL: expr}, nil
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return Filter{}, fmt.Errorf("filter %q: want field:condition[:value] or cel:<expression>", s)
	}
	f := Filter{Field: parts[0], Condition: parts[1]}
	if len(parts) == 3 {
		f.Value = parts[2]
	}
	if _, err := f.Expression(); err != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", s, err)
	}
	return f, nil
}
