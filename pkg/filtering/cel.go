package filtering

import (
	"fmt"
	"sync"

	"github.com/oakwood-commons/combo/internal/cel"
)

var (
	defaultEvalOnce sync.Once
	defaultEval     *cel.Evaluator
	defaultEvalErr  error
)

func sharedEvaluator() (*cel.Evaluator, error) {
	defaultEvalOnce.Do(func() {
		defaultEval, defaultEvalErr = cel.NewEvaluator()
	})
	return defaultEval, defaultEvalErr
}

// CELCondition evaluates a boolean CEL expression. The resolved value is
// bound to "_", the expression's search value to "search" and the whole
// record to "record".
type CELCondition struct {
	expr string
	pred *cel.Predicate
	err  error
}

// CEL compiles expr into a condition. Compilation problems do not fail
// here; they surface as malformed-expression reports when the condition is
// evaluated.
func CEL(expr string) *CELCondition {
	c := &CELCondition{expr: expr}
	eval, err := sharedEvaluator()
	if err != nil {
		c.err = err
		return c
	}
	c.pred, c.err = eval.Compile(expr)
	return c
}

// Name implements Condition.
func (c *CELCondition) Name() string { return "cel" }

// Expr returns the source expression.
func (c *CELCondition) Expr() string { return c.expr }

// Err returns the compilation error, if any.
func (c *CELCondition) Err() error { return c.err }

// Fields lists record fields the expression reads.
func (c *CELCondition) Fields() []string {
	if c.pred == nil {
		return nil
	}
	return c.pred.Fields()
}

// Apply implements Condition without a record; errors count as no match.
func (c *CELCondition) Apply(value, search any, _ bool) bool {
	ok, err := c.Match(value, search, value)
	return err == nil && ok
}

// Match implements RecordCondition.
func (c *CELCondition) Match(value, search, record any) (bool, error) {
	if c.err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrMalformedExpression, c.expr, c.err)
	}
	for _, f := range c.pred.Fields() {
		if _, ok := FieldOf(record, f); !ok {
			// Sparse records lack the field; that is a miss, not an error.
			return false, nil
		}
	}
	ok, err := c.pred.Match(value, search, record)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrMalformedExpression, c.expr, err)
	}
	return ok, nil
}
