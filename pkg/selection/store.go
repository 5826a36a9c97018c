package selection

import "sync"

// Store holds the committed selection of every registered component.
// A single Store is constructed by the host and handed to each widget; all
// operations are scoped by component id.
type Store struct {
	mu   sync.RWMutex
	sets map[string]*Set
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sets: make(map[string]*Set)}
}

// Get returns a copy of the committed selection for id, or nil when id was
// never registered.
func (s *Store) Get(id string) *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sets[id]
	if !ok {
		return nil
	}
	return cur.Clone()
}

// Set replaces the selection for id wholesale.
func (s *Store) Set(id string, sel *Set) error {
	if id == "" {
		return ErrInvalidComponentID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[id] = sel.Clone()
	return nil
}

// base returns a copy of the working set when given, else of the committed
// selection. It is nil when neither exists.
func (s *Store) base(id string, working []*Set) *Set {
	if len(working) > 0 && working[0] != nil {
		return working[0].Clone()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sets[id]
	if !ok {
		return nil
	}
	return cur.Clone()
}

// AddItem returns a new set equal to the current (or working) selection
// plus key. The store itself is not modified.
func (s *Store) AddItem(id string, key Key, working ...*Set) (*Set, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	out := s.base(id, working)
	if out == nil {
		out = &Set{}
	}
	if err := out.add(key); err != nil {
		return nil, err
	}
	return out, nil
}

// AddItems folds AddItem over keys. When clear is set the fold starts from
// an empty set instead of the current selection.
func (s *Store) AddItems(id string, keys []Key, clear bool) (*Set, error) {
	var out *Set
	if clear {
		out = &Set{}
	} else if out = s.base(id, nil); out == nil {
		out = &Set{}
	}
	for _, k := range keys {
		next, err := s.AddItem(id, k, out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// DeleteItem returns the current (or working) selection minus key. It
// returns nil when there is no prior selection.
func (s *Store) DeleteItem(id string, key Key, working ...*Set) *Set {
	out := s.base(id, working)
	if out == nil {
		return nil
	}
	out.remove(key)
	return out
}

// DeleteItems folds DeleteItem over keys.
func (s *Store) DeleteItems(id string, keys []Key) *Set {
	out := s.base(id, nil)
	if out == nil {
		return nil
	}
	for _, k := range keys {
		out.remove(k)
	}
	return out
}

// IsSelected reports whether key is in the committed selection of id.
func (s *Store) IsSelected(id string, key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[id].Has(key)
}

// Size returns the number of selected keys for id.
func (s *Store) Size(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[id].Len()
}

// AllSelected reports whether count is positive and equals the selection
// size of id.
func (s *Store) AllSelected(id string, count int) bool {
	return count > 0 && count == s.Size(id)
}

// FirstItem returns the first inserted key, used by single selection.
func (s *Store) FirstItem(id string) (Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[id].First()
}

// Clear empties the selection of id but keeps it registered.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[id]; ok {
		s.sets[id] = &Set{}
	}
}

// Delete unregisters id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, id)
}
