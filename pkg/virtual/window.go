// Package virtual provides an in-memory windowing provider: a fixed-size
// window over a conceptually larger sequence that can be scrolled and
// reports every content change to its subscribers.
package virtual

import (
	"fmt"

	"github.com/oakwood-commons/combo/pkg/navigation"
)

// Config holds the windowing parameters.
type Config struct {
	Size   int // Number of positions realized at once (0 = everything)
	Offset int // First realized position
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.Size < 0 {
		return fmt.Errorf("window size must be non-negative, got %d", c.Size)
	}
	if c.Offset < 0 {
		return fmt.Errorf("window offset must be non-negative, got %d", c.Offset)
	}
	return nil
}

// Bounds returns the [start, end) range for a sequence of length total.
func (c Config) Bounds(total int) (int, int) {
	start := c.Offset
	if start > total {
		start = total
	}
	end := total
	if c.Size > 0 && start+c.Size < total {
		end = start + c.Size
	}
	return start, end
}

// Slice returns the realized part of items under c.
func Slice[T any](c Config, items []T) []T {
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// Window is a navigation.VirtualProvider over total positions.
//
// In deferred mode ScrollTo only records the target; Flush applies it and
// notifies subscribers, which is how a remote load completing later is
// modelled.
type Window struct {
	cfg      Config
	total    int
	deferred bool
	target   *int

	nextID    int
	listeners map[int]func(navigation.Window)
}

// New creates a window of cfg.Size positions over total.
func New(cfg Config, total int) (*Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &Window{cfg: cfg, total: total, listeners: make(map[int]func(navigation.Window))}
	w.cfg.Offset = w.clampOffset(cfg.Offset)
	return w, nil
}

// SetDeferred switches deferred scrolling on or off.
func (w *Window) SetDeferred(deferred bool) {
	w.deferred = deferred
}

// Config returns the current parameters.
func (w *Window) Config() Config { return w.cfg }

// Total returns the sequence length.
func (w *Window) Total() int { return w.total }

// SetTotal changes the sequence length, clamps the offset and notifies.
func (w *Window) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	w.total = total
	w.cfg.Offset = w.clampOffset(w.cfg.Offset)
	w.notify()
}

// Resize changes the number of realized positions, clamps the offset and
// notifies. Negative sizes are treated as zero.
func (w *Window) Resize(size int) {
	if size < 0 {
		size = 0
	}
	if size == w.cfg.Size {
		return
	}
	w.cfg.Size = size
	w.cfg.Offset = w.clampOffset(w.cfg.Offset)
	w.notify()
}

func (w *Window) clampOffset(offset int) int {
	maxStart := w.total - w.cfg.Size
	if w.cfg.Size <= 0 || maxStart < 0 {
		maxStart = 0
	}
	if offset > maxStart {
		offset = maxStart
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// VisibleWindow implements navigation.VirtualProvider.
func (w *Window) VisibleWindow() navigation.Window {
	start, end := w.cfg.Bounds(w.total)
	return navigation.Window{Start: start, End: end}
}

// ScrollTo implements navigation.VirtualProvider. The window moves the
// minimum distance that brings index into view.
func (w *Window) ScrollTo(index int) {
	if w.deferred {
		w.target = &index
		return
	}
	w.scroll(index)
}

func (w *Window) scroll(index int) {
	cur := w.VisibleWindow()
	switch {
	case cur.Contains(index):
	case index < cur.Start:
		w.cfg.Offset = w.clampOffset(index)
	default:
		w.cfg.Offset = w.clampOffset(index - w.cfg.Size + 1)
	}
	w.notify()
}

// Flush applies a deferred scroll. It reports whether there was one.
func (w *Window) Flush() bool {
	if w.target == nil {
		return false
	}
	idx := *w.target
	w.target = nil
	w.scroll(idx)
	return true
}

// OnContentChanged implements navigation.VirtualProvider.
func (w *Window) OnContentChanged(fn func(navigation.Window)) func() {
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() { delete(w.listeners, id) }
}

func (w *Window) notify() {
	win := w.VisibleWindow()
	for i := 0; i < w.nextID; i++ {
		if fn, ok := w.listeners[i]; ok {
			fn(win)
		}
	}
}
