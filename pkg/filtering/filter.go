package filtering

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// Report describes a malformed expression found during a filter pass.
type Report struct {
	Index      int
	Expression Expression
	Err        error
}

// Engine runs filter passes and reports malformed expressions.
type Engine struct {
	log    logr.Logger
	report func(Report)
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for malformed-expression reports.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithReporter registers a callback for malformed-expression reports.
func WithReporter(fn func(Report)) Option {
	return func(e *Engine) {
		e.report = fn
	}
}

// NewEngine creates an Engine with defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emit(r Report) {
	if e == nil {
		return
	}
	e.log.Error(r.Err, "filter expression skipped", "index", r.Index, "field", r.Expression.FieldName)
	if e.report != nil {
		e.report(r)
	}
}

// Filter returns the subsequence of collection matching every expression
// of tree. An empty tree returns collection itself.
func Filter[T any](collection []T, tree Tree, access Accessor[T]) []T {
	return Run[T](nil, collection, tree, access)
}

// Run is Filter with malformed expressions reported through e. A nil
// engine drops reports.
func Run[T any](e *Engine, collection []T, tree Tree, access Accessor[T]) []T {
	if tree.Empty() {
		return collection
	}
	if access == nil {
		access = MapAccessor[T]()
	}

	broken := make([]bool, len(tree.Expressions))
	if tree.Operator != And {
		e.emit(Report{Index: -1, Err: fmt.Errorf("%w: unsupported operator %s", ErrMalformedExpression, tree.Operator)})
		for i := range broken {
			broken[i] = true
		}
	}
	for i, expr := range tree.Expressions {
		if expr.Condition == nil {
			broken[i] = true
			e.emit(Report{Index: i, Expression: expr, Err: fmt.Errorf("%w: missing condition", ErrMalformedExpression)})
			continue
		}
		if cc, ok := expr.Condition.(*CELCondition); ok && cc.Err() != nil {
			broken[i] = true
			e.emit(Report{Index: i, Expression: expr, Err: fmt.Errorf("%w: %v", ErrMalformedExpression, cc.Err())})
		}
	}

	reported := make([]bool, len(tree.Expressions))
	out := make([]T, 0, len(collection))
	for _, record := range collection {
		if matchAll(e, record, tree, access, broken, reported) {
			out = append(out, record)
		}
	}
	return out
}

func matchAll[T any](e *Engine, record T, tree Tree, access Accessor[T], broken, reported []bool) bool {
	for i, expr := range tree.Expressions {
		if broken[i] {
			return false
		}
		var value any = record
		if !expr.Whole() {
			value, _ = access(record, expr.FieldName)
		}
		if rc, ok := expr.Condition.(RecordCondition); ok {
			matched, err := rc.Match(value, expr.SearchValue, any(record))
			if err != nil {
				if !reported[i] {
					reported[i] = true
					if !errors.Is(err, ErrMalformedExpression) {
						err = fmt.Errorf("%w: %v", ErrMalformedExpression, err)
					}
					e.emit(Report{Index: i, Expression: expr, Err: err})
				}
				return false
			}
			if !matched {
				return false
			}
			continue
		}
		if !expr.Condition.Apply(value, expr.SearchValue, expr.IgnoreCase) {
			return false
		}
	}
	return true
}
