// Package limiter trims a loaded collection to a window of records before
// it reaches the widget.
package limiter

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when both Limit and Tail are set.
var ErrConflict = errors.New("--limit and --tail are mutually exclusive")

// Config holds the record-limiting parameters. Zero values disable each
// bound. Offset is ignored when Tail is set.
type Config struct {
	Limit  int
	Offset int
	Tail   int
}

// Validate rejects negative bounds and Limit combined with Tail.
func (c Config) Validate() error {
	for _, b := range []struct {
		flag string
		v    int
	}{{"--limit", c.Limit}, {"--offset", c.Offset}, {"--tail", c.Tail}} {
		if b.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", b.flag, b.v)
		}
	}
	if c.Limit > 0 && c.Tail > 0 {
		return ErrConflict
	}
	return nil
}

// IsActive reports whether any bound is set.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open range of a collection of n records that
// survives the limits.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(0, n-c.Tail), n
	}
	start = min(max(c.Offset, 0), n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the records of items inside the bounds. The result shares
// the backing array of items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}
