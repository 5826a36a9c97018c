// Package combo implements the state machine behind a searchable dropdown:
// lifecycle (open/close), search-driven filtering and grouping, keyboard
// navigation, cancelable selection changes and custom value entry.
//
// Combo is the multi-selection widget, SimpleCombo the single-selection
// one. Neither is safe for concurrent use; the selection.Store they share
// is.
package combo

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/selection"
)

var (
	// ErrNoSearchText is returned by AddItemToCollection when the add-item
	// affordance is not active.
	ErrNoSearchText = errors.New("no custom value to add")
	// ErrUnrepresentable is returned when the item factory cannot build a
	// custom item.
	ErrUnrepresentable = errors.New("custom value cannot be represented as an item")
)

// State is the lifecycle state of the list.
type State int

const (
	Closed State = iota
	Opening
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// CheckState is the tri-state of the select-all header checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

func (s CheckState) String() string {
	switch s {
	case Indeterminate:
		return "indeterminate"
	case Checked:
		return "checked"
	default:
		return "unchecked"
	}
}

// totalSetter is implemented by providers whose length follows the display
// sequence, such as virtual.Window.
type totalSetter interface {
	SetTotal(total int)
}

// proposal is a selection change about to be offered to handlers.
type proposal struct {
	old      *selection.Set
	proposed *selection.Set
	added    []Key
	removed  []Key
	text     string
}

// emitFunc offers p to the handlers and returns what to commit.
type emitFunc func(p proposal) (keys []Key, text string, ok bool)

// core is the state shared by Combo and SimpleCombo.
type core[T any] struct {
	id       string
	opts     Options
	store    *selection.Store
	log      logr.Logger
	access   filtering.Accessor[T]
	factory  ItemFactory[T]
	form     FormAdapter
	engine   *filtering.Engine
	provider navigation.VirtualProvider
	remote   RemoteProvider[T]
	filter   FilterFunc[T]
	tree     filtering.Tree

	data     []T
	index    map[Key]int
	filtered []T
	display  []grouping.Entry[T]
	nav      *navigation.Controller

	state          State
	search         string
	searchFocused  bool
	addItemFocused bool
	customValue    bool
	value          []Key
	displayText    string

	remoteText map[Key]string
	requested  uint64
	applied    uint64
	totalCount int
	sink       func(<-chan Response[T])
	unwatch    func()
	quiet      bool

	opening     chain[OpeningEvent]
	opened      chain[OpenedEvent]
	closing     chain[ClosingEvent]
	closed      chain[ClosedEvent]
	searchInput chain[SearchInputEvent]
	addition    chain[AdditionEvent[T]]
}

func newCore[T any](id string, data []T, opts Options, with []Option[T]) (*core[T], error) {
	if id == "" {
		return nil, selection.ErrInvalidComponentID
	}
	c := &core[T]{
		id:         id,
		opts:       opts,
		data:       slices.Clone(data),
		log:        logr.Discard(),
		remoteText: make(map[Key]string),
	}
	for _, opt := range with {
		opt(c)
	}
	if err := c.opts.Validate(); err != nil {
		return nil, err
	}
	if c.store == nil {
		c.store = selection.NewStore()
	}
	if c.access == nil {
		c.access = filtering.MapAccessor[T]()
	}
	if c.factory == nil {
		c.factory = DefaultItemFactory[T]()
	}
	c.tree.Operator = filtering.And
	if c.store.Get(id) == nil {
		if err := c.store.Set(id, nil); err != nil {
			return nil, fmt.Errorf("register %q: %w", id, err)
		}
	}
	c.nav = navigation.New(nil,
		navigation.WithProvider(c.provider),
		navigation.WithAddItem(c.IsAddItemVisible),
		navigation.WithLogger(c.log),
	)
	c.reindex()
	c.refilter()
	c.value = c.store.Get(id).Keys()
	c.displayText = c.displayTextFor(c.value)
	c.watchRemote()
	return c, nil
}

// ID returns the component id.
func (c *core[T]) ID() string { return c.id }

// SetID renames the component, carrying its selection over.
func (c *core[T]) SetID(id string) error {
	if id == "" {
		return selection.ErrInvalidComponentID
	}
	sel := c.store.Get(c.id)
	c.store.Delete(c.id)
	c.id = id
	return c.store.Set(id, sel)
}

// Options returns the current options.
func (c *core[T]) Options() Options { return c.opts }

// State returns the lifecycle state.
func (c *core[T]) State() State { return c.state }

// Collapsed reports whether the list is closed.
func (c *core[T]) Collapsed() bool { return c.state == Closed }

// OnOpening registers a cancelable handler run before the list opens.
func (c *core[T]) OnOpening(h Handler[OpeningEvent]) { c.opening.add(h) }

// OnOpened registers a handler run after the list opened.
func (c *core[T]) OnOpened(h Handler[OpenedEvent]) { c.opened.add(h) }

// OnClosing registers a cancelable handler run before the list closes.
func (c *core[T]) OnClosing(h Handler[ClosingEvent]) { c.closing.add(h) }

// OnClosed registers a handler run after the list closed.
func (c *core[T]) OnClosed(h Handler[ClosedEvent]) { c.closed.add(h) }

// OnSearchInput registers a cancelable handler run for each search change.
func (c *core[T]) OnSearchInput(h Handler[SearchInputEvent]) { c.searchInput.add(h) }

// OnAddition registers a cancelable handler run before a custom item is
// added.
func (c *core[T]) OnAddition(h Handler[AdditionEvent[T]]) { c.addition.add(h) }

// Open opens the list. It reports whether the list went from closed to
// open; a canceled OpeningEvent leaves it closed.
func (c *core[T]) Open() bool {
	if c.state != Closed {
		return false
	}
	c.state = Opening
	if out := c.opening.emit(&OpeningEvent{ID: c.id}); out.Cancel {
		c.state = Closed
		c.log.V(1).Info("open canceled", "id", c.id, "reason", out.Reason)
		return false
	}
	if c.search != "" && c.displayText != "" {
		c.search = ""
	}
	c.refilter()
	c.state = Open
	c.addItemFocused = false
	c.nav.OnBlur()
	if c.opts.AutoFocusSearch {
		c.searchFocused = true
	} else {
		c.searchFocused = false
		c.nav.OnFocus()
	}
	c.log.V(1).Info("opened", "id", c.id, "items", len(c.filtered))
	c.opened.emit(&OpenedEvent{ID: c.id})
	return true
}

// Close closes the list and clears the search text. It reports whether
// the list went from open to closed.
func (c *core[T]) Close() bool {
	if c.state != Open {
		return false
	}
	c.state = Closing
	if out := c.closing.emit(&ClosingEvent{ID: c.id}); out.Cancel {
		c.state = Open
		c.log.V(1).Info("close canceled", "id", c.id, "reason", out.Reason)
		return false
	}
	c.search = ""
	c.refilter()
	c.nav.OnBlur()
	c.searchFocused = false
	c.addItemFocused = false
	c.state = Closed
	c.log.V(1).Info("closed", "id", c.id)
	c.closed.emit(&ClosedEvent{ID: c.id})
	return true
}

// Toggle opens a closed list and closes an open one.
func (c *core[T]) Toggle() bool {
	if c.state == Open {
		return c.Close()
	}
	return c.Open()
}

// SearchText returns the current search text.
func (c *core[T]) SearchText() string { return c.search }

// HandleInputChange applies a new search text. It reports false when a
// SearchInputEvent handler canceled the keystroke.
func (c *core[T]) HandleInputChange(text string) bool {
	ev := SearchInputEvent{ID: c.id, SearchText: text}
	if out := c.searchInput.emit(&ev); out.Cancel {
		c.log.V(1).Info("search input canceled", "id", c.id, "reason", out.Reason)
		return false
	}
	c.search = ev.SearchText
	c.hush(func() {
		c.refilter()
		if !c.customValue {
			c.addItemFocused = false
		}
		if _, ok := c.nav.Focused(); !ok {
			c.seedFocus()
		}
	})
	c.fetch("search")
	return true
}

// CaseSensitive reports whether the search is case-sensitive.
func (c *core[T]) CaseSensitive() bool { return c.opts.CaseSensitive }

// ToggleCaseSensitive flips search case sensitivity and re-filters.
func (c *core[T]) ToggleCaseSensitive() {
	c.opts.CaseSensitive = !c.opts.CaseSensitive
	c.refilter()
}

// SetFilter replaces the extra filter expressions applied with the search.
func (c *core[T]) SetFilter(tree filtering.Tree) {
	c.tree = tree
	c.refilter()
}

// SetGroupKey regroups the list.
func (c *core[T]) SetGroupKey(key string, dir grouping.Direction) {
	c.opts.GroupKey = key
	c.opts.GroupSortDirection = dir
	c.refilter()
}

// Data returns the raw collection.
func (c *core[T]) Data() []T { return slices.Clone(c.data) }

// SetData replaces the raw collection and re-derives everything from it.
func (c *core[T]) SetData(data []T) {
	c.data = slices.Clone(data)
	c.reindex()
	c.refilter()
	c.displayText = c.displayTextFor(c.value)
}

// FilteredData returns the items that pass the current filter, in display
// order, without headers.
func (c *core[T]) FilteredData() []T { return slices.Clone(c.filtered) }

// Display returns the display sequence: filtered items with group headers.
func (c *core[T]) Display() []grouping.Entry[T] { return slices.Clone(c.display) }

// KeyOf derives the selection key of item. Keyed records lacking the value
// key yield nil, which no store accepts.
func (c *core[T]) KeyOf(item T) Key {
	if !c.opts.Keyed() {
		return any(item)
	}
	v, ok := c.access(item, c.opts.ValueKey)
	if !ok {
		return nil
	}
	if v == nil {
		return selection.Null
	}
	return v
}

// DisplayOf renders item's display value.
func (c *core[T]) DisplayOf(item T) string {
	if f := c.opts.displayField(); f != "" {
		v, _ := c.access(item, f)
		return filtering.Stringify(v)
	}
	return filtering.Stringify(any(item))
}

// ItemByKey returns the first item of the collection whose key is key.
func (c *core[T]) ItemByKey(key Key) (T, bool) {
	var zero T
	if !selection.ValidKey(key) {
		return zero, false
	}
	i, ok := c.index[selection.Canonical(key)]
	if !ok {
		return zero, false
	}
	return c.data[i], true
}

// IsSelected reports whether key is in the committed selection.
func (c *core[T]) IsSelected(key Key) bool {
	return c.store.IsSelected(c.id, key)
}

// DisplayText returns the committed selection rendered for the input.
func (c *core[T]) DisplayText() string { return c.displayText }

// Selection returns the selected items in selection order. Keys missing
// from the collection are represented by placeholder records built by the
// item factory.
func (c *core[T]) Selection() []T { return c.itemsFor(c.value) }

// HeaderState returns the select-all checkbox state over FilteredData.
func (c *core[T]) HeaderState() CheckState {
	if len(c.filtered) == 0 {
		return Unchecked
	}
	n := 0
	for _, item := range c.filtered {
		if c.store.IsSelected(c.id, c.KeyOf(item)) {
			n++
		}
	}
	switch n {
	case 0:
		return Unchecked
	case len(c.filtered):
		return Checked
	default:
		return Indeterminate
	}
}

// IsAddItemVisible reports whether the add-item affordance is active.
func (c *core[T]) IsAddItemVisible() bool { return c.customValue }

// AddItemFocused reports whether keyboard focus is on the add-item row.
func (c *core[T]) AddItemFocused() bool { return c.addItemFocused }

// SearchFocused reports whether keyboard focus is on the search input.
func (c *core[T]) SearchFocused() bool { return c.searchFocused }

// Focused returns the focused display index.
func (c *core[T]) Focused() (int, bool) {
	if c.searchFocused || c.addItemFocused {
		return -1, false
	}
	return c.nav.Focused()
}

// FocusedItem returns the item under the cursor.
func (c *core[T]) FocusedItem() (T, bool) {
	var zero T
	i, ok := c.Focused()
	if !ok || i >= len(c.display) || c.display[i].IsHeader() {
		return zero, false
	}
	return c.display[i].Value(), true
}

// NavigateNext moves the cursor down. From the search input it enters the
// list; past the last item it moves to the add-item row when visible.
func (c *core[T]) NavigateNext() navigation.Signal {
	if c.addItemFocused {
		return navigation.SignalNone
	}
	if c.searchFocused {
		c.searchFocused = false
		if _, ok := c.nav.Focused(); ok {
			return navigation.SignalMoved
		}
		if sig := c.nav.NavigateFirst(); sig != navigation.SignalNone {
			return sig
		}
		if c.customValue {
			c.addItemFocused = true
			return navigation.SignalLeaveToAddItem
		}
		c.searchFocused = true
		return navigation.SignalNone
	}
	sig := c.nav.NavigateNext()
	if sig == navigation.SignalLeaveToAddItem {
		c.addItemFocused = true
	}
	return sig
}

// NavigatePrev moves the cursor up. From the first item it returns to the
// search input.
func (c *core[T]) NavigatePrev() navigation.Signal {
	if c.searchFocused {
		return navigation.SignalNone
	}
	if c.addItemFocused {
		c.addItemFocused = false
		if sig := c.nav.NavigateLast(); sig != navigation.SignalNone {
			return sig
		}
		c.searchFocused = true
		return navigation.SignalLeaveToSearch
	}
	sig := c.nav.NavigatePrev()
	if sig == navigation.SignalLeaveToSearch {
		c.searchFocused = true
	}
	return sig
}

// NavigateItem focuses the item at display index i.
func (c *core[T]) NavigateItem(i int) navigation.Signal {
	sig := c.nav.NavigateItem(i, navigation.Forward)
	if sig != navigation.SignalNone {
		c.searchFocused = false
		c.addItemFocused = false
	}
	return sig
}

// Destroy clears the widget's selection and detaches from the provider.
func (c *core[T]) Destroy() {
	c.store.Clear(c.id)
	c.value = nil
	c.displayText = ""
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	c.nav.Close()
}

func (c *core[T]) reindex() {
	c.index = make(map[Key]int, len(c.data))
	for i, item := range c.data {
		k := c.KeyOf(item)
		if !selection.ValidKey(k) {
			continue
		}
		ck := selection.Canonical(k)
		if _, dup := c.index[ck]; !dup {
			c.index[ck] = i
		}
	}
}

func (c *core[T]) filterTree() filtering.Tree {
	tree := filtering.Tree{Operator: c.tree.Operator, Expressions: slices.Clone(c.tree.Expressions)}
	if c.opts.Filterable && c.search != "" {
		tree.Expressions = append(tree.Expressions, filtering.Expression{
			FieldName:   c.opts.searchField(),
			Condition:   filtering.DefaultContains,
			SearchValue: c.search,
			IgnoreCase:  !c.opts.CaseSensitive,
		})
	}
	return tree
}

// refilter recomputes filtered data, the display sequence, the add-item
// state and the navigation structure.
func (c *core[T]) refilter() {
	p := Pipeline[T]{
		Engine:     c.engine,
		Access:     c.access,
		Filter:     c.filter,
		GroupKey:   c.opts.GroupKey,
		Direction:  c.opts.GroupSortDirection,
		OnFiltered: func(items []T) { c.filtered = items },
	}
	c.display = p.Run(c.data, c.filterTree())
	c.checkMatch()

	display := c.display
	c.nav.Reset(navigation.NewSequence(len(display), func(i int) bool { return display[i].IsHeader() }))
	if ts, ok := c.provider.(totalSetter); ok {
		c.hush(func() { ts.SetTotal(len(display)) })
	}
}

// checkMatch activates the add-item affordance when custom values are
// allowed and no filtered item displays exactly the trimmed search text.
func (c *core[T]) checkMatch() {
	c.customValue = false
	text := strings.TrimSpace(c.search)
	if !c.opts.AllowCustomValues || text == "" {
		return
	}
	for _, item := range c.filtered {
		if c.DisplayOf(item) == text {
			return
		}
	}
	c.customValue = true
}

// seedFocus focuses the first selected item on display, else the first
// item.
func (c *core[T]) seedFocus() {
	for i, e := range c.display {
		if !e.IsHeader() && c.store.IsSelected(c.id, c.KeyOf(e.Value())) {
			c.nav.NavigateItem(i, navigation.Forward)
			return
		}
	}
	c.nav.NavigateFirst()
}

func (c *core[T]) current() *selection.Set {
	if s := c.store.Get(c.id); s != nil {
		return s
	}
	return &selection.Set{}
}

func (c *core[T]) keysOf(items []T) []Key {
	keys := make([]Key, 0, len(items))
	for _, item := range items {
		k := c.KeyOf(item)
		if !selection.ValidKey(k) {
			c.log.V(1).Info("skipping item without a usable key", "id", c.id)
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// itemsFor resolves keys to items. Unknown keys become placeholder records
// when the factory can build them.
func (c *core[T]) itemsFor(keys []Key) []T {
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		if item, ok := c.ItemByKey(k); ok {
			out = append(out, item)
			continue
		}
		var fields map[string]any
		if c.opts.Keyed() {
			fields = map[string]any{c.opts.ValueKey: k}
		}
		if item, ok := c.factory(k, fields); ok {
			out = append(out, item)
		}
	}
	return out
}

func (c *core[T]) displayTextFor(keys []Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if item, ok := c.ItemByKey(k); ok {
			parts = append(parts, c.DisplayOf(item))
			continue
		}
		if text, ok := c.remoteText[selection.Canonical(k)]; ok {
			parts = append(parts, text)
			continue
		}
		parts = append(parts, filtering.Stringify(k))
	}
	return strings.Join(parts, ", ")
}

// change runs the diff, emit and commit cycle for a proposed selection.
func (c *core[T]) change(proposed *selection.Set, emit emitFunc) (bool, error) {
	old := c.current()
	added, removed := selection.Diff(old, proposed)
	if len(added) == 0 && len(removed) == 0 {
		return false, nil
	}
	if c.opts.Remote {
		c.registerRemote(added)
	}
	p := proposal{
		old:      old,
		proposed: proposed,
		added:    added,
		removed:  removed,
		text:     c.displayTextFor(proposed.Keys()),
	}
	keys, text, ok := emit(p)
	if !ok {
		if c.opts.Remote {
			c.unregisterRemote(added)
		}
		return false, nil
	}

	committed, err := selection.NewSet(keys...)
	if err == nil {
		err = c.store.Set(c.id, committed)
	}
	if err != nil {
		if c.opts.Remote {
			c.unregisterRemote(added)
		}
		return false, fmt.Errorf("commit selection of %q: %w", c.id, err)
	}
	if c.opts.Remote {
		c.syncRemote(old, committed, added)
	}
	added, removed = selection.Diff(old, committed)
	c.value = committed.Keys()
	if text == p.text && !committed.Equal(proposed) {
		text = c.displayTextFor(c.value)
	}
	c.displayText = text
	c.log.V(1).Info("selection committed", "id", c.id, "added", len(added), "removed", len(removed), "size", committed.Len())
	if c.form != nil {
		c.form.OnChange(slices.Clone(c.value))
	}
	return true, nil
}

// addCustomItem appends the search text as a new item. ok is false when an
// AdditionEvent handler canceled.
func (c *core[T]) addCustomItem() (item T, ok bool, err error) {
	text := strings.TrimSpace(c.search)
	if !c.customValue || text == "" {
		return item, false, ErrNoSearchText
	}
	var fields map[string]any
	if c.opts.Keyed() {
		fields = map[string]any{c.opts.ValueKey: text, c.opts.displayField(): text}
		if c.opts.GroupKey != "" {
			fields[c.opts.GroupKey] = c.opts.fallbackGroup()
		}
	}
	item, ok = c.factory(text, fields)
	if !ok {
		return item, false, fmt.Errorf("%w: %q", ErrUnrepresentable, text)
	}

	ev := AdditionEvent[T]{
		ID:            c.id,
		OldCollection: slices.Clone(c.data),
		AddedItem:     item,
		NewCollection: append(slices.Clone(c.data), item),
	}
	if out := c.addition.emit(&ev); out.Cancel {
		c.log.V(1).Info("addition canceled", "id", c.id, "reason", out.Reason)
		return item, false, nil
	}
	c.data = append(c.data, ev.AddedItem)
	c.reindex()
	c.refilter()
	c.addItemFocused = false
	c.log.V(1).Info("custom item added", "id", c.id, "text", text)
	return ev.AddedItem, true, nil
}
