package combo

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/combo/pkg/selection"
)

// SimpleCombo is the single-selection widget: selecting an item replaces
// the previous one in a single change.
type SimpleCombo[T any] struct {
	*core[T]
	changing chain[SimpleSelectionChangingEvent[T]]
}

// NewSimple creates a SimpleCombo over data.
func NewSimple[T any](id string, data []T, opts Options, with ...Option[T]) (*SimpleCombo[T], error) {
	c, err := newCore(id, data, opts, with)
	if err != nil {
		return nil, err
	}
	s := &SimpleCombo[T]{core: c}
	if len(c.value) > 1 {
		// A shared store may hold a multi-selection for this id.
		if _, err := s.Select(c.value[0]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OnSelectionChanging registers a cancelable handler run before the
// selected item changes.
func (s *SimpleCombo[T]) OnSelectionChanging(h Handler[SimpleSelectionChangingEvent[T]]) {
	s.changing.add(h)
}

// Value returns the selected key, nil when nothing is selected.
func (s *SimpleCombo[T]) Value() Key {
	if len(s.value) == 0 {
		return nil
	}
	return s.value[0]
}

// Selected returns the selected item.
func (s *SimpleCombo[T]) Selected() (T, bool) {
	var zero T
	if len(s.value) == 0 {
		return zero, false
	}
	items := s.itemsFor(s.value[:1])
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

// Select makes key the selected item.
func (s *SimpleCombo[T]) Select(key Key) (bool, error) {
	proposed, err := selection.NewSet(key)
	if err != nil {
		return false, fmt.Errorf("select: %w", err)
	}
	return s.change(proposed, s.emit)
}

// Deselect clears the selection.
func (s *SimpleCombo[T]) Deselect() (bool, error) {
	return s.change(&selection.Set{}, s.emit)
}

// WriteValue applies a value written by the host form; nil clears.
func (s *SimpleCombo[T]) WriteValue(key Key) (bool, error) {
	if key == nil {
		return s.Deselect()
	}
	return s.Select(key)
}

// HandleInputChange applies a new search text. Clearing the text also
// clears the selection.
func (s *SimpleCombo[T]) HandleInputChange(text string) bool {
	if !s.core.HandleInputChange(text) {
		return false
	}
	if strings.TrimSpace(text) == "" && len(s.value) > 0 {
		if _, err := s.Deselect(); err != nil {
			s.log.Error(err, "clearing selection", "id", s.id)
		}
	}
	return true
}

// ActivateFocused selects the focused item, or adds the custom item when
// the add-item row is focused.
func (s *SimpleCombo[T]) ActivateFocused() (bool, error) {
	if s.addItemFocused {
		return s.AddItemToCollection()
	}
	item, ok := s.FocusedItem()
	if !ok {
		return false, nil
	}
	return s.Select(s.KeyOf(item))
}

// AddItemToCollection appends the search text as a new item and selects
// it.
func (s *SimpleCombo[T]) AddItemToCollection() (bool, error) {
	item, ok, err := s.addCustomItem()
	if err != nil || !ok {
		return false, err
	}
	return s.Select(s.KeyOf(item))
}

func (s *SimpleCombo[T]) itemRef(keys []Key) *T {
	if len(keys) == 0 {
		return nil
	}
	items := s.itemsFor(keys[:1])
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

func (s *SimpleCombo[T]) emit(p proposal) ([]Key, string, bool) {
	oldKeys, newKeys := p.old.Keys(), p.proposed.Keys()
	ev := SimpleSelectionChangingEvent[T]{
		ID:           s.id,
		OldSelection: s.itemRef(oldKeys),
		NewSelection: s.itemRef(newKeys),
		DisplayText:  p.text,
	}
	if len(oldKeys) > 0 {
		ev.OldValue = oldKeys[0]
	}
	if len(newKeys) > 0 {
		ev.NewValue = newKeys[0]
	}
	if out := s.changing.emit(&ev); out.Cancel {
		s.log.V(1).Info("selection change canceled", "id", s.id, "reason", out.Reason)
		return nil, "", false
	}
	if ev.NewValue == nil {
		return []Key{}, ev.DisplayText, true
	}
	return []Key{ev.NewValue}, ev.DisplayText, true
}
