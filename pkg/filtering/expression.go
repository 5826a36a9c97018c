// Package filtering evaluates AND-combined filter expressions against a
// collection.
package filtering

import "errors"

// ErrMalformedExpression is reported for expressions the engine cannot
// evaluate. Such an expression never matches; the rest of the pass runs.
var ErrMalformedExpression = errors.New("malformed filter expression")

// Operator combines the expressions of a Tree.
type Operator int

const (
	// And is the only supported operator.
	And Operator = iota
	// Or is recognized so it can be reported as malformed.
	Or
)

func (o Operator) String() string {
	if o == Or {
		return "or"
	}
	return "and"
}

// Expression is a single unary predicate over a record field. An empty
// FieldName applies the condition to the whole record.
type Expression struct {
	FieldName   string
	Condition   Condition
	SearchValue any
	IgnoreCase  bool
}

// Whole reports whether the expression targets the whole record.
func (e Expression) Whole() bool { return e.FieldName == "" }

// Tree is an ordered list of expressions combined with Operator.
type Tree struct {
	Operator    Operator
	Expressions []Expression
}

// NewTree returns an AND tree of exprs.
func NewTree(exprs ...Expression) Tree {
	return Tree{Operator: And, Expressions: exprs}
}

// Len returns the number of expressions.
func (t Tree) Len() int { return len(t.Expressions) }

// Empty reports whether the tree is the identity filter.
func (t Tree) Empty() bool { return len(t.Expressions) == 0 }

// With returns a copy of t where the expression targeting e.FieldName is
// replaced by e, or e is appended when none exists.
func (t Tree) With(e Expression) Tree {
	out := Tree{Operator: t.Operator, Expressions: make([]Expression, 0, len(t.Expressions)+1)}
	replaced := false
	for _, cur := range t.Expressions {
		if cur.FieldName == e.FieldName && !replaced {
			out.Expressions = append(out.Expressions, e)
			replaced = true
			continue
		}
		out.Expressions = append(out.Expressions, cur)
	}
	if !replaced {
		out.Expressions = append(out.Expressions, e)
	}
	return out
}

// Without returns a copy of t with the expressions on field removed.
func (t Tree) Without(field string) Tree {
	out := Tree{Operator: t.Operator}
	for _, cur := range t.Expressions {
		if cur.FieldName != field {
			out.Expressions = append(out.Expressions, cur)
		}
	}
	return out
}
