package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Variable names bound when a predicate runs.
const (
	ValueVar  = "_"
	SearchVar = "search"
	RecordVar = "record"
)

// Evaluator compiles CEL predicates and caches the resulting programs.
type Evaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]*Predicate
}

// NewEvaluator creates a new CEL evaluator with the standard extensions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: make(map[string]*Predicate)}, nil
}

// GetEnvironment returns the CEL environment for introspection
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates a CEL environment with the predicate variables
// and common extension libraries.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 7+len(opts))
	allOpts = append(allOpts,
		cel.Variable(ValueVar, cel.DynType),
		cel.Variable(SearchVar, cel.DynType),
		cel.Variable(RecordVar, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Predicate is a compiled boolean CEL expression.
type Predicate struct {
	expr   string
	prg    cel.Program
	fields []string
}

// Expr returns the source expression.
func (p *Predicate) Expr() string { return p.expr }

// Fields returns the record fields the expression selects through the
// record variable, in first-use order.
func (p *Predicate) Fields() []string { return p.fields }

// Compile parses, checks and plans expr. Programs are cached per expression.
func (e *Evaluator) Compile(expr string) (*Predicate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.programs[expr]; ok {
		return p, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q yields %s, want bool", expr, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	fields, err := ReferencedFields(e.env, expr)
	if err != nil {
		return nil, err
	}

	p := &Predicate{expr: expr, prg: prg, fields: fields}
	e.programs[expr] = p
	return p, nil
}

// Match evaluates the predicate with value bound to "_", search to "search"
// and record to "record".
func (p *Predicate) Match(value, search, record any) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		ValueVar:  value,
		SearchVar: search,
		RecordVar: record,
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := ToGo(out).(bool)
	if !ok {
		return false, fmt.Errorf("expression %q yielded %T, want bool", p.expr, ToGo(out))
	}
	return b, nil
}

// ToGo converts CEL values back to Go types. Collections are converted
// recursively; unknown values are returned as-is.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	if valuer, ok := val.(interface{ Value() any }); ok {
		switch inner := valuer.Value().(type) {
		case []ref.Val:
			out := make([]any, len(inner))
			for i, elem := range inner {
				out[i] = ToGo(elem)
			}
			return out
		case map[ref.Val]ref.Val:
			out := make(map[string]any, len(inner))
			for k, v := range inner {
				out[fmt.Sprintf("%v", ToGo(k))] = ToGo(v)
			}
			return out
		default:
			return inner
		}
	}
	return val
}
