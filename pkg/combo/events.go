package combo

import "github.com/oakwood-commons/combo/pkg/selection"

// Key is the identity used for selection membership.
type Key = selection.Key

// Outcome is what a handler decides about a cancelable event.
type Outcome struct {
	Cancel bool
	Reason string
}

// Proceed lets the event continue down the chain.
func Proceed() Outcome { return Outcome{} }

// Cancel stops the chain and aborts the transition.
func Cancel(reason string) Outcome { return Outcome{Cancel: true, Reason: reason} }

// Handler observes an event. Handlers may mutate the event they receive;
// the combo commits whatever the event holds once every handler proceeded.
type Handler[E any] func(*E) Outcome

// chain runs handlers in registration order until one cancels.
type chain[E any] struct {
	handlers []Handler[E]
}

func (c *chain[E]) add(h Handler[E]) {
	if h != nil {
		c.handlers = append(c.handlers, h)
	}
}

func (c *chain[E]) emit(ev *E) Outcome {
	for _, h := range c.handlers {
		if out := h(ev); out.Cancel {
			return out
		}
	}
	return Proceed()
}

// OpeningEvent fires before the list opens. Cancelable.
type OpeningEvent struct {
	ID string
}

// OpenedEvent fires after the list opened.
type OpenedEvent struct {
	ID string
}

// ClosingEvent fires before the list closes. Cancelable.
type ClosingEvent struct {
	ID string
}

// ClosedEvent fires after the list closed.
type ClosedEvent struct {
	ID string
}

// SearchInputEvent fires for every search text change before filtering
// runs. Canceling it discards the keystroke.
type SearchInputEvent struct {
	ID         string
	SearchText string
}

// SelectionChangingEvent carries a proposed multi-selection change.
// Handlers may rewrite NewValue or DisplayText before it is committed.
type SelectionChangingEvent[T any] struct {
	ID           string
	OldValue     []Key
	NewValue     []Key
	OldSelection []T
	NewSelection []T
	Added        []Key
	Removed      []Key
	DisplayText  string
}

// SimpleSelectionChangingEvent is the single-selection flavour. Nil
// selections and values mean nothing is selected.
type SimpleSelectionChangingEvent[T any] struct {
	ID           string
	OldValue     Key
	NewValue     Key
	OldSelection *T
	NewSelection *T
	DisplayText  string
}

// AdditionEvent fires before a custom item is appended to the collection.
// Handlers may replace AddedItem.
type AdditionEvent[T any] struct {
	ID            string
	OldCollection []T
	AddedItem     T
	NewCollection []T
}
