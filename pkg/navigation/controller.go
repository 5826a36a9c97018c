// Package navigation keeps a focus cursor over a display sequence that may
// contain non-focusable group headers and may only be partly loaded by a
// virtualizing provider.
package navigation

import "github.com/go-logr/logr"

// Sequence is the structure navigation walks: its length and which
// positions are headers.
type Sequence interface {
	Len() int
	IsHeader(i int) bool
}

type funcSequence struct {
	n      int
	header func(int) bool
}

func (s funcSequence) Len() int { return s.n }

func (s funcSequence) IsHeader(i int) bool { return s.header != nil && s.header(i) }

// NewSequence builds a Sequence of n positions where isHeader marks the
// header positions. isHeader may be nil.
func NewSequence(n int, isHeader func(int) bool) Sequence {
	return funcSequence{n: n, header: isHeader}
}

// Window is the half-open range [Start, End) currently realized by a
// virtualizing provider.
type Window struct {
	Start int
	End   int
}

// Contains reports whether i lies in the window.
func (w Window) Contains(i int) bool { return i >= w.Start && i < w.End }

// VirtualProvider is the windowing collaborator. OnContentChanged registers
// a callback fired after the window moves or its content is reloaded.
type VirtualProvider interface {
	ScrollTo(index int)
	VisibleWindow() Window
	OnContentChanged(fn func(Window)) (unsubscribe func())
}

// Signal tells the caller what a navigation step resulted in.
type Signal int

const (
	// SignalNone means nothing changed.
	SignalNone Signal = iota
	// SignalMoved means focus moved to a new item.
	SignalMoved
	// SignalLeaveToSearch means focus left the list upwards, toward the
	// search input.
	SignalLeaveToSearch
	// SignalLeaveToAddItem means focus left the list downwards, toward the
	// add-item affordance.
	SignalLeaveToAddItem
	// SignalEndOfItems means the last item is focused and there is nothing
	// below it; callers may request more data.
	SignalEndOfItems
	// SignalPending means the target is outside the loaded window; focus
	// resolves once the provider reports new content.
	SignalPending
)

func (s Signal) String() string {
	switch s {
	case SignalMoved:
		return "moved"
	case SignalLeaveToSearch:
		return "leave-to-search"
	case SignalLeaveToAddItem:
		return "leave-to-add-item"
	case SignalEndOfItems:
		return "end-of-items"
	case SignalPending:
		return "pending"
	default:
		return "none"
	}
}

// Direction decides which way header positions are skipped.
type Direction int

const (
	Forward Direction = iota
	Backward
)

type pendingJump struct {
	index int
	dir   Direction
}

// Controller is the focus cursor.
type Controller struct {
	seq         Sequence
	provider    VirtualProvider
	unsubscribe func()
	focused     int
	pending     *pendingJump

	addItemVisible func() bool
	onFocus        func(index int)
	log            logr.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithProvider attaches a virtualizing provider.
func WithProvider(p VirtualProvider) Option {
	return func(c *Controller) {
		c.provider = p
	}
}

// WithAddItem reports whether the add-item affordance is visible.
func WithAddItem(visible func() bool) Option {
	return func(c *Controller) {
		c.addItemVisible = visible
	}
}

// WithFocusCallback is invoked whenever focus lands on an item, including
// deferred jumps resolved after a window change.
func WithFocusCallback(fn func(index int)) Option {
	return func(c *Controller) {
		c.onFocus = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// New creates a Controller over seq. With a provider attached the
// controller subscribes to its content notifications until Close.
func New(seq Sequence, opts ...Option) *Controller {
	c := &Controller{seq: seq, focused: -1, log: logr.Discard()}
	if c.seq == nil {
		c.seq = NewSequence(0, nil)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider != nil {
		c.unsubscribe = c.provider.OnContentChanged(c.contentChanged)
	}
	return c
}

// Close detaches from the provider.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Focused returns the focused index.
func (c *Controller) Focused() (int, bool) {
	return c.focused, c.focused >= 0
}

// Pending returns the index of an unresolved jump.
func (c *Controller) Pending() (int, bool) {
	if c.pending == nil {
		return -1, false
	}
	return c.pending.index, true
}

// Reset swaps the sequence. Focus survives if it still points at an item;
// a pending jump is dropped.
func (c *Controller) Reset(seq Sequence) {
	if seq == nil {
		seq = NewSequence(0, nil)
	}
	c.seq = seq
	c.pending = nil
	if !c.focusable(c.focused) {
		c.focused = -1
	}
}

func (c *Controller) focusable(i int) bool {
	return i >= 0 && i < c.seq.Len() && !c.seq.IsHeader(i)
}

// nearest finds the first focusable index from i walking in dir.
func (c *Controller) nearest(i int, dir Direction) int {
	step := 1
	if dir == Backward {
		step = -1
	}
	for ; i >= 0 && i < c.seq.Len(); i += step {
		if !c.seq.IsHeader(i) {
			return i
		}
	}
	return -1
}

func (c *Controller) setFocus(i int) Signal {
	if i < 0 {
		return SignalNone
	}
	c.focused = i
	c.pending = nil
	if c.onFocus != nil {
		c.onFocus(i)
	}
	return SignalMoved
}

// NavigateFirst focuses the first item.
func (c *Controller) NavigateFirst() Signal {
	i := c.nearest(0, Forward)
	if i < 0 {
		return SignalNone
	}
	return c.NavigateItem(i, Forward)
}

// NavigateLast focuses the last item.
func (c *Controller) NavigateLast() Signal {
	i := c.nearest(c.seq.Len()-1, Backward)
	if i < 0 {
		return SignalNone
	}
	return c.NavigateItem(i, Backward)
}

// NavigateNext steps forward over headers. Past the last item it does not
// wrap: it reports SignalLeaveToAddItem (clearing focus) when the add-item
// affordance is visible, SignalEndOfItems otherwise.
func (c *Controller) NavigateNext() Signal {
	if c.focused < 0 {
		return c.NavigateFirst()
	}
	next := c.nearest(c.focused+1, Forward)
	if next < 0 {
		if c.addItemVisible != nil && c.addItemVisible() {
			c.focused = -1
			return SignalLeaveToAddItem
		}
		return SignalEndOfItems
	}
	return c.NavigateItem(next, Forward)
}

// NavigatePrev steps backward over headers. From the first item, or with
// nothing focused, focus leaves the list toward the search input.
func (c *Controller) NavigatePrev() Signal {
	prev := -1
	if c.focused > 0 {
		prev = c.nearest(c.focused-1, Backward)
	}
	if prev < 0 {
		c.focused = -1
		c.pending = nil
		return SignalLeaveToSearch
	}
	return c.NavigateItem(prev, Backward)
}

// NavigateItem jumps to index, skipping headers in dir. When index is
// outside the provider's window the provider is asked to scroll there and
// SignalPending is returned; focus is applied when the provider reports
// content containing the target.
func (c *Controller) NavigateItem(index int, dir Direction) Signal {
	if index < 0 || index >= c.seq.Len() {
		return SignalNone
	}
	if c.provider != nil && !c.provider.VisibleWindow().Contains(index) {
		c.pending = &pendingJump{index: index, dir: dir}
		c.log.V(1).Info("deferring focus until window loads", "index", index)
		c.provider.ScrollTo(index)
		if c.pending == nil {
			// The provider resolved synchronously.
			return SignalMoved
		}
		return SignalPending
	}
	return c.setFocus(c.nearest(index, dir))
}

// Focus focuses index exactly, without scrolling. Headers and indexes out
// of range are refused.
func (c *Controller) Focus(index int) bool {
	if !c.focusable(index) {
		return false
	}
	c.setFocus(index)
	return true
}

func (c *Controller) contentChanged(w Window) {
	if c.pending == nil || !w.Contains(c.pending.index) {
		return
	}
	p := c.pending
	c.pending = nil
	c.log.V(1).Info("resolving deferred focus", "index", p.index, "start", w.Start, "end", w.End)
	c.setFocus(c.nearest(p.index, p.dir))
}

// OnFocus is called when the list gains focus; with nothing focused the
// first item is focused.
func (c *Controller) OnFocus() Signal {
	if c.focused >= 0 {
		return SignalNone
	}
	return c.NavigateFirst()
}

// OnBlur clears focus.
func (c *Controller) OnBlur() {
	c.focused = -1
	c.pending = nil
}
