// Package selection tracks which items are selected per widget instance.
//
// A Store maps a component id to an insertion-ordered Set of keys. All
// preview operations (AddItem, DeleteItem, ...) return new sets and leave the
// store untouched, so a caller can propose a selection, offer it to listeners
// and only commit it with Set once nobody objected.
package selection

import (
	"errors"
	"math"
	"reflect"
)

// Key is the identity of a selectable item: the raw item for primitive
// collections or the value extracted via the value key for keyed ones.
type Key = any

type nullKey struct{}

func (nullKey) String() string { return "null" }

// Null is the explicit null key. It is a legal key, distinct from "no key".
var Null Key = nullKey{}

// nanKey is the normalized form of NaN so NaN keys compare equal in a set.
type nanKey struct{}

var (
	// ErrInvalidComponentID is returned by mutators called with an empty id.
	ErrInvalidComponentID = errors.New("invalid component id")
	// ErrInvalidKey is returned when a key is nil or not comparable.
	ErrInvalidKey = errors.New("invalid selection key")
)

// ValidKey reports whether k can be stored in a Set.
func ValidKey(k Key) bool {
	if k == nil {
		return false
	}
	return reflect.ValueOf(k).Comparable()
}

func normalize(k Key) Key {
	switch v := k.(type) {
	case float64:
		if math.IsNaN(v) {
			return nanKey{}
		}
	case float32:
		if math.IsNaN(float64(v)) {
			return nanKey{}
		}
	}
	return k
}

// Canonical returns the form of k used for membership. Two valid keys
// address the same item exactly when their canonical forms are equal.
func Canonical(k Key) Key { return normalize(k) }

// Set is an insertion-ordered set of keys. The zero value and a nil *Set are
// both empty sets.
type Set struct {
	keys  []Key
	index map[Key]int
}

// NewSet builds a set from keys, ignoring duplicates. Invalid keys yield
// ErrInvalidKey.
func NewSet(keys ...Key) (*Set, error) {
	s := &Set{}
	for _, k := range keys {
		if err := s.add(k); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSet is NewSet for literals in tests and examples; it panics on
// invalid keys.
func MustSet(keys ...Key) *Set {
	s, err := NewSet(keys...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Set) add(k Key) error {
	if !ValidKey(k) {
		return ErrInvalidKey
	}
	if s.index == nil {
		s.index = make(map[Key]int)
	}
	n := normalize(k)
	if _, ok := s.index[n]; ok {
		return nil
	}
	s.index[n] = len(s.keys)
	s.keys = append(s.keys, k)
	return nil
}

func (s *Set) remove(k Key) {
	if s == nil || s.index == nil || !ValidKey(k) {
		return
	}
	n := normalize(k)
	i, ok := s.index[n]
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	delete(s.index, n)
	for j := i; j < len(s.keys); j++ {
		s.index[normalize(s.keys[j])] = j
	}
}

// Has reports whether k is in the set.
func (s *Set) Has(k Key) bool {
	if s == nil || s.index == nil || !ValidKey(k) {
		return false
	}
	_, ok := s.index[normalize(k)]
	return ok
}

// Len returns the number of keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (s *Set) Keys() []Key {
	if s == nil || len(s.keys) == 0 {
		return []Key{}
	}
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// First returns the first inserted key.
func (s *Set) First() (Key, bool) {
	if s.Len() == 0 {
		return nil, false
	}
	return s.keys[0], true
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (s *Set) Clone() *Set {
	out := &Set{}
	if s == nil {
		return out
	}
	out.keys = make([]Key, len(s.keys))
	copy(out.keys, s.keys)
	out.index = make(map[Key]int, len(s.index))
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// Union returns s ∪ o, keeping the order of s followed by new keys of o.
func (s *Set) Union(o *Set) *Set {
	out := s.Clone()
	if o == nil {
		return out
	}
	for _, k := range o.keys {
		_ = out.add(k)
	}
	return out
}

// Difference returns s − o in the order of s.
func (s *Set) Difference(o *Set) *Set {
	out := &Set{}
	if s == nil {
		return out
	}
	for _, k := range s.keys {
		if !o.Has(k) {
			_ = out.add(k)
		}
	}
	return out
}

// Equal reports set equality, ignoring order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, k := range s.Keys() {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Diff computes the keys added and removed when moving from oldSet to
// newSet. added = new − old, removed = old − new.
func Diff(oldSet, newSet *Set) (added, removed []Key) {
	return newSet.Difference(oldSet).Keys(), oldSet.Difference(newSet).Keys()
}
