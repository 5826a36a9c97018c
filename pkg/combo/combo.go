package combo

import (
	"fmt"
	"slices"

	"github.com/oakwood-commons/combo/pkg/selection"
)

// Combo is the multi-selection widget.
type Combo[T any] struct {
	*core[T]
	changing chain[SelectionChangingEvent[T]]
}

// New creates a Combo over data. id addresses the widget's entry in the
// selection store.
func New[T any](id string, data []T, opts Options, with ...Option[T]) (*Combo[T], error) {
	c, err := newCore(id, data, opts, with)
	if err != nil {
		return nil, err
	}
	return &Combo[T]{core: c}, nil
}

// OnSelectionChanging registers a cancelable handler run before a
// selection change is committed.
func (c *Combo[T]) OnSelectionChanging(h Handler[SelectionChangingEvent[T]]) {
	c.changing.add(h)
}

// Value returns the committed selection keys in selection order.
func (c *Combo[T]) Value() []Key { return slices.Clone(c.value) }

// Select adds keys to the selection, replacing it when clearExisting is
// set. It reports whether the selection changed.
func (c *Combo[T]) Select(keys []Key, clearExisting bool) (bool, error) {
	proposed, err := c.store.AddItems(c.id, keys, clearExisting)
	if err != nil {
		return false, fmt.Errorf("select: %w", err)
	}
	return c.change(proposed, c.emit)
}

// Deselect removes keys from the selection.
func (c *Combo[T]) Deselect(keys []Key) (bool, error) {
	proposed := c.store.DeleteItems(c.id, keys)
	if proposed == nil {
		return false, nil
	}
	return c.change(proposed, c.emit)
}

// ToggleKey flips the selection state of key.
func (c *Combo[T]) ToggleKey(key Key) (bool, error) {
	if c.IsSelected(key) {
		return c.Deselect([]Key{key})
	}
	return c.Select([]Key{key}, false)
}

// SelectAll selects every filtered item, or every item of the collection
// when ignoreFilter is set.
func (c *Combo[T]) SelectAll(ignoreFilter bool) (bool, error) {
	items := c.filtered
	if ignoreFilter {
		items = c.data
	}
	return c.Select(c.keysOf(items), false)
}

// DeselectAll deselects every filtered item, or clears the selection when
// ignoreFilter is set or nothing is filtered out.
func (c *Combo[T]) DeselectAll(ignoreFilter bool) (bool, error) {
	if ignoreFilter || len(c.filtered) == len(c.data) {
		return c.change(&selection.Set{}, c.emit)
	}
	return c.Deselect(c.keysOf(c.filtered))
}

// WriteValue applies a value written by the host form. It goes through the
// same cancelable path as Select.
func (c *Combo[T]) WriteValue(keys []Key) (bool, error) {
	return c.Select(keys, true)
}

// ActivateFocused toggles the focused item, or adds the custom item when
// the add-item row is focused.
func (c *Combo[T]) ActivateFocused() (bool, error) {
	if c.addItemFocused {
		return c.AddItemToCollection()
	}
	item, ok := c.FocusedItem()
	if !ok {
		return false, nil
	}
	return c.ToggleKey(c.KeyOf(item))
}

// AddItemToCollection appends the search text as a new item and selects
// it alongside the existing selection.
func (c *Combo[T]) AddItemToCollection() (bool, error) {
	item, ok, err := c.addCustomItem()
	if err != nil || !ok {
		return false, err
	}
	return c.Select([]Key{c.KeyOf(item)}, false)
}

func (c *Combo[T]) emit(p proposal) ([]Key, string, bool) {
	oldKeys, newKeys := p.old.Keys(), p.proposed.Keys()
	ev := SelectionChangingEvent[T]{
		ID:           c.id,
		OldValue:     oldKeys,
		NewValue:     newKeys,
		OldSelection: c.itemsFor(oldKeys),
		NewSelection: c.itemsFor(newKeys),
		Added:        p.added,
		Removed:      p.removed,
		DisplayText:  p.text,
	}
	if out := c.changing.emit(&ev); out.Cancel {
		c.log.V(1).Info("selection change canceled", "id", c.id, "reason", out.Reason)
		return nil, "", false
	}
	return ev.NewValue, ev.DisplayText, true
}
