package filtering

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oakwood-commons/combo/pkg/selection"
)

// Condition is a unary predicate applied to a resolved value.
type Condition interface {
	Name() string
	Apply(value, search any, ignoreCase bool) bool
}

// RecordCondition is a condition that also sees the whole record and may
// fail. Failures are reported as malformed expressions.
type RecordCondition interface {
	Condition
	Match(value, search, record any) (bool, error)
}

type funcCondition struct {
	name string
	fn   func(value, search any, ignoreCase bool) bool
}

func (c funcCondition) Name() string { return c.name }

func (c funcCondition) Apply(value, search any, ignoreCase bool) bool {
	return c.fn(value, search, ignoreCase)
}

// NewCondition wraps fn as a named condition.
func NewCondition(name string, fn func(value, search any, ignoreCase bool) bool) Condition {
	return funcCondition{name: name, fn: fn}
}

// Stringify renders a value the way string conditions see it. Nil renders
// as the empty string.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		if isNull(v) {
			return ""
		}
		return fmt.Sprint(v)
	}
}

func isNull(v any) bool {
	return v == nil || v == selection.Null
}

func fold(v any, ignoreCase bool) string {
	s := Stringify(v)
	if ignoreCase {
		return strings.ToLower(s)
	}
	return s
}

func stringCondition(name string, fn func(value, search string) bool) Condition {
	return NewCondition(name, func(value, search any, ignoreCase bool) bool {
		if isNull(value) {
			return false
		}
		return fn(fold(value, ignoreCase), fold(search, ignoreCase))
	})
}

// Built-in conditions.
var (
	Contains       = stringCondition("contains", strings.Contains)
	DoesNotContain = stringCondition("doesNotContain", func(v, s string) bool { return !strings.Contains(v, s) })
	StartsWith     = stringCondition("startsWith", strings.HasPrefix)
	EndsWith       = stringCondition("endsWith", strings.HasSuffix)
	Equals         = stringCondition("equals", func(v, s string) bool { return v == s })
	DoesNotEqual   = stringCondition("doesNotEqual", func(v, s string) bool { return v != s })

	Empty = NewCondition("empty", func(value, _ any, _ bool) bool {
		return isNull(value) || Stringify(value) == ""
	})
	NotEmpty = NewCondition("notEmpty", func(value, _ any, _ bool) bool {
		return !isNull(value) && Stringify(value) != ""
	})
	True = NewCondition("true", func(value, _ any, _ bool) bool {
		b, ok := value.(bool)
		return ok && b
	})
	False = NewCondition("false", func(value, _ any, _ bool) bool {
		b, ok := value.(bool)
		return ok && !b
	})
	All = NewCondition("all", func(_, _ any, _ bool) bool { return true })

	// DefaultContains is the search box predicate: substring match where
	// nil, null and empty display values always match.
	DefaultContains = NewCondition("default", func(value, search any, ignoreCase bool) bool {
		if isNull(value) || Stringify(value) == "" {
			return true
		}
		return strings.Contains(fold(value, ignoreCase), fold(search, ignoreCase))
	})
)

var registry = map[string]Condition{}

func init() {
	for _, c := range []Condition{
		Contains, DoesNotContain, StartsWith, EndsWith, Equals, DoesNotEqual,
		Empty, NotEmpty, True, False, All, DefaultContains,
	} {
		registry[c.Name()] = c
	}
}

// Lookup returns the built-in condition registered under name. Names are
// matched case-insensitively.
func Lookup(name string) (Condition, bool) {
	if c, ok := registry[name]; ok {
		return c, true
	}
	for k, c := range registry {
		if strings.EqualFold(k, name) {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in condition names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
