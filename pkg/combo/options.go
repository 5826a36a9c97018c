package combo

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/selection"
)

// DefaultFallbackGroup is the group given to custom items when none is
// configured.
const DefaultFallbackGroup = "Other"

// Options are the recognized widget settings.
type Options struct {
	// ValueKey names the field holding an item's key. Empty means the item
	// itself is the key.
	ValueKey string
	// DisplayKey names the field rendered for an item. Falls back to
	// ValueKey, then to the item itself.
	DisplayKey string
	// FilteringKey names the field the search text is matched against.
	// Falls back to the display field.
	FilteringKey string
	// GroupKey partitions the list into labeled sections.
	GroupKey           string
	GroupSortDirection grouping.Direction

	AllowCustomValues bool
	AutoFocusSearch   bool
	Filterable        bool
	FallbackGroup     string
	CaseSensitive     bool
	Remote            bool
}

// DefaultOptions returns filterable, ascending-grouped options.
func DefaultOptions() Options {
	return Options{
		GroupSortDirection: grouping.Ascending,
		Filterable:         true,
		AutoFocusSearch:    true,
		FallbackGroup:      DefaultFallbackGroup,
	}
}

// Validate checks option consistency.
func (o Options) Validate() error {
	if _, err := grouping.ParseDirection(string(o.GroupSortDirection)); err != nil {
		return fmt.Errorf("group sort direction: %w", err)
	}
	return nil
}

// Keyed reports whether items are records addressed by ValueKey.
func (o Options) Keyed() bool { return o.ValueKey != "" }

func (o Options) displayField() string {
	if o.DisplayKey != "" {
		return o.DisplayKey
	}
	return o.ValueKey
}

func (o Options) searchField() string {
	if o.FilteringKey != "" {
		return o.FilteringKey
	}
	return o.displayField()
}

func (o Options) fallbackGroup() string {
	if o.FallbackGroup != "" {
		return o.FallbackGroup
	}
	return DefaultFallbackGroup
}

// FormAdapter receives every committed value.
type FormAdapter interface {
	OnChange(value []Key)
}

// FormAdapterFunc adapts a function to FormAdapter.
type FormAdapterFunc func(value []Key)

// OnChange implements FormAdapter.
func (f FormAdapterFunc) OnChange(value []Key) { f(value) }

// ItemFactory builds records the collection does not contain. For a
// primitive collection fields is nil and key is the raw value; for a keyed
// collection fields holds the record's fields. ok is false when the factory
// cannot represent the record as T.
type ItemFactory[T any] func(key Key, fields map[string]any) (item T, ok bool)

// DefaultItemFactory converts key to T for primitive collections and
// builds map[string]any records for keyed ones.
func DefaultItemFactory[T any]() ItemFactory[T] {
	return func(key Key, fields map[string]any) (T, bool) {
		if fields == nil {
			v, ok := key.(T)
			return v, ok
		}
		v, ok := any(fields).(T)
		return v, ok
	}
}

// Option configures a combo.
type Option[T any] func(*core[T])

// WithStore shares a selection store between widgets.
func WithStore[T any](s *selection.Store) Option[T] {
	return func(c *core[T]) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l logr.Logger) Option[T] {
	return func(c *core[T]) {
		c.log = l
	}
}

// WithAccessor overrides how record fields are resolved.
func WithAccessor[T any](a filtering.Accessor[T]) Option[T] {
	return func(c *core[T]) {
		c.access = a
	}
}

// WithItemFactory overrides how custom and placeholder records are built.
func WithItemFactory[T any](f ItemFactory[T]) Option[T] {
	return func(c *core[T]) {
		c.factory = f
	}
}

// WithFormAdapter binds the widget to a host form.
func WithFormAdapter[T any](f FormAdapter) Option[T] {
	return func(c *core[T]) {
		c.form = f
	}
}

// WithFilterEngine routes malformed-expression reports through e.
func WithFilterEngine[T any](e *filtering.Engine) Option[T] {
	return func(c *core[T]) {
		c.engine = e
	}
}

// WithFilterFunc replaces the filter step. f receives the raw collection
// and the combined search and expression tree.
func WithFilterFunc[T any](f FilterFunc[T]) Option[T] {
	return func(c *core[T]) {
		c.filter = f
	}
}

// WithVirtualProvider attaches the windowing collaborator used for
// navigation.
func WithVirtualProvider[T any](p navigation.VirtualProvider) Option[T] {
	return func(c *core[T]) {
		c.provider = p
	}
}

// WithRemote sets the remote provider. It implies Options.Remote: moving
// the provider window or changing the search text fetches a page.
func WithRemote[T any](p RemoteProvider[T]) Option[T] {
	return func(c *core[T]) {
		c.remote = p
		c.opts.Remote = true
	}
}

// WithRemoteResponses routes the responses of automatic fetches to sink,
// which must hand each one to ApplyRemote on the widget's goroutine.
// Without it a response is applied before the triggering call returns.
func WithRemoteResponses[T any](sink func(<-chan Response[T])) Option[T] {
	return func(c *core[T]) {
		c.sink = sink
	}
}

// WithExpressions adds filter expressions applied on top of the search
// text.
func WithExpressions[T any](exprs ...filtering.Expression) Option[T] {
	return func(c *core[T]) {
		for _, e := range exprs {
			c.tree.Expressions = append(c.tree.Expressions, e)
		}
	}
}
