package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ReferencedFields parses expr and returns the names of the fields selected
// directly on the record variable (record.name, record["name"]), in first-use
// order without duplicates.
func ReferencedFields(env *cel.Env, expr string) ([]string, error) {
	ast, issues := env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("convert ast: %w", err)
	}

	var fields []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}

	var walk func(*exprpb.Expr)
	walk = func(e *exprpb.Expr) {
		if e == nil {
			return
		}
		switch e.ExprKind.(type) {
		case *exprpb.Expr_SelectExpr:
			sel := e.GetSelectExpr()
			if isRecordIdent(sel.GetOperand()) {
				add(sel.GetField())
				return
			}
			walk(sel.GetOperand())
		case *exprpb.Expr_CallExpr:
			call := e.GetCallExpr()
			if call.GetFunction() == "_[_]" && len(call.GetArgs()) == 2 && isRecordIdent(call.GetArgs()[0]) {
				if c := call.GetArgs()[1].GetConstExpr(); c != nil {
					if _, ok := c.ConstantKind.(*exprpb.Constant_StringValue); ok {
						add(c.GetStringValue())
						return
					}
				}
			}
			walk(call.GetTarget())
			for _, arg := range call.GetArgs() {
				walk(arg)
			}
		case *exprpb.Expr_ListExpr:
			for _, elem := range e.GetListExpr().GetElements() {
				walk(elem)
			}
		case *exprpb.Expr_StructExpr:
			for _, entry := range e.GetStructExpr().GetEntries() {
				walk(entry.GetMapKey())
				walk(entry.GetValue())
			}
		case *exprpb.Expr_ComprehensionExpr:
			comp := e.GetComprehensionExpr()
			walk(comp.GetIterRange())
			walk(comp.GetAccuInit())
			walk(comp.GetLoopCondition())
			walk(comp.GetLoopStep())
			walk(comp.GetResult())
		}
	}
	walk(parsed.GetExpr())
	return fields, nil
}

func isRecordIdent(e *exprpb.Expr) bool {
	if e == nil {
		return false
	}
	ident := e.GetIdentExpr()
	return ident != nil && ident.GetName() == RecordVar
}
