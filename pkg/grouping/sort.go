package grouping

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the group sorting direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
	None       Direction = "none"
)

// ParseDirection accepts asc|ascending|desc|descending|none; empty means
// Ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	case "none":
		return None, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (want asc|desc|none)", s)
	}
}

// Sort returns a copy of collection stably ordered by the value of groupKey,
// compared case-insensitively with locale collation. Numbers compare
// numerically; records without the key sort first. Direction None or an
// empty groupKey return the collection unchanged.
func Sort[T any](collection []T, groupKey string, dir Direction, access Accessor[T]) []T {
	if groupKey == "" || dir == None || len(collection) < 2 || access == nil {
		return collection
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	out := slices.Clone(collection)
	slices.SortStableFunc(out, func(a, b T) int {
		va, _ := access(a, groupKey)
		vb, _ := access(b, groupKey)
		c := compareValues(col, va, vb)
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

func compareValues(col *collate.Collator, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return col.CompareString(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
