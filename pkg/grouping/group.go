// Package grouping partitions a collection into contiguous runs by a group
// key and injects header entries in front of each run.
package grouping

import "reflect"

// Entry is either an item of the collection or a synthetic group header.
type Entry[T any] struct {
	item       T
	header     bool
	groupValue any
}

// Item wraps a collection item.
func Item[T any](v T) Entry[T] {
	return Entry[T]{item: v}
}

// Header builds a header entry for groupValue.
func Header[T any](groupValue any) Entry[T] {
	return Entry[T]{header: true, groupValue: groupValue}
}

// IsHeader reports whether e is a group header.
func (e Entry[T]) IsHeader() bool { return e.header }

// Value returns the wrapped item; zero for headers.
func (e Entry[T]) Value() T { return e.item }

// GroupValue returns the header's group value; nil for items.
func (e Entry[T]) GroupValue() any { return e.groupValue }

// Accessor resolves the group key of a record.
type Accessor[T any] func(record T, field string) (any, bool)

// Wrap converts items to entries without headers.
func Wrap[T any](items []T) []Entry[T] {
	out := make([]Entry[T], len(items))
	for i, v := range items {
		out[i] = Item(v)
	}
	return out
}

// Group walks collection once and inserts a header before every item whose
// group value differs from that of the previously emitted item. It does not
// sort: an unsorted collection can produce several headers for the same
// value. An empty groupKey or collection yields the items unchanged.
func Group[T any](collection []T, groupKey string, access Accessor[T]) []Entry[T] {
	if groupKey == "" || len(collection) == 0 || access == nil {
		return Wrap(collection)
	}
	out := make([]Entry[T], 0, len(collection)+1)
	var prev any
	for i, v := range collection {
		gv, _ := access(v, groupKey)
		if i == 0 || !sameValue(prev, gv) {
			out = append(out, Header[T](gv))
		}
		out = append(out, Item(v))
		prev = gv
	}
	return out
}

// Items strips headers.
func Items[T any](entries []Entry[T]) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if !e.header {
			out = append(out, e.item)
		}
	}
	return out
}

// HeaderCount returns the number of header entries.
func HeaderCount[T any](entries []Entry[T]) int {
	n := 0
	for _, e := range entries {
		if e.header {
			n++
		}
	}
	return n
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
