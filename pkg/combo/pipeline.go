package combo

import (
	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
)

// FilterFunc is a host-supplied filter step.
type FilterFunc[T any] func(data []T, tree filtering.Tree) []T

// Pipeline turns a raw collection into the display sequence: filter, sort
// by group, group.
type Pipeline[T any] struct {
	Engine *filtering.Engine
	Access filtering.Accessor[T]
	// Filter overrides filtering.Run when set.
	Filter    FilterFunc[T]
	GroupKey  string
	Direction grouping.Direction
	// OnFiltered receives the filtered, sorted items before headers are
	// injected.
	OnFiltered func(items []T)
}

// Run executes the pipeline.
func (p Pipeline[T]) Run(data []T, tree filtering.Tree) []grouping.Entry[T] {
	access := p.Access
	if access == nil {
		access = filtering.MapAccessor[T]()
	}
	var filtered []T
	if p.Filter != nil {
		filtered = p.Filter(data, tree)
	} else {
		filtered = filtering.Run(p.Engine, data, tree, access)
	}
	byGroup := grouping.Accessor[T](access)
	sorted := grouping.Sort(filtered, p.GroupKey, p.Direction, byGroup)
	if p.OnFiltered != nil {
		p.OnFiltered(sorted)
	}
	return grouping.Group(sorted, p.GroupKey, byGroup)
}
