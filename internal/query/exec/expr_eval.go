package exec

import (
	"fmt"
	"strings"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/ast"
)

var trueMatch = Match{Value: true, Datatype: flake.DtBoolean}
var falseMatch = Match{Value: false, Datatype: flake.DtBoolean}

func boolMatch(b bool) Match {
	if b {
		return trueMatch
	}
	return falseMatch
}

func truthy(m Match) bool {
	if m.IRI != nil {
		return true
	}
	b, ok := m.Value.(bool)
	return ok && b
}

// EvalExpr evaluates a scalar expression against sol's bindings (spec
// §4.9's BIND/FILTER/ORDER-BY expression language). AggExpr is not
// evaluable here — aggregates are resolved per-group before this runs.
func EvalExpr(ns *flake.Namespaces, sol Solution, e ast.Expr) (Match, error) {
	switch v := e.(type) {
	case ast.ExprLiteral:
		dt, ok := resolveDatatype(ns, v.Datatype)
		if !ok {
			return Match{}, errs.Wrap("query.eval", errs.Validation,
				fmt.Errorf("%w: unknown datatype %q", errs.ErrInvalidQuery, v.Datatype))
		}
		return Match{Value: flake.Normalize(dt, v.Value), Datatype: dt}, nil
	case ast.VarRef:
		m, ok := sol[v.Name]
		if !ok {
			return Match{}, nil
		}
		return m, nil
	case ast.App:
		return evalApp(ns, sol, v)
	case ast.AggExpr:
		return Match{}, errs.Wrap("query.eval", errs.Validation,
			fmt.Errorf("%w: aggregate expression must be aliased in SELECT to be referenced in HAVING/ORDER BY", errs.ErrInvalidQuery))
	default:
		return Match{}, errs.Wrap("query.eval", errs.Internal, fmt.Errorf("unsupported expression %T", e))
	}
}

func evalApp(ns *flake.Namespaces, sol Solution, app ast.App) (Match, error) {
	switch app.Op {
	case ast.OpBound:
		_, ok := app.Args[0].(ast.VarRef)
		if !ok {
			return Match{}, errs.Wrap("query.eval", errs.Validation, fmt.Errorf("%w: BOUND expects a variable", errs.ErrInvalidQuery))
		}
		_, bound := sol[app.Args[0].(ast.VarRef).Name]
		return boolMatch(bound), nil
	case ast.OpLang:
		m, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		return Match{Value: m.Lang, Datatype: flake.DtString}, nil
	case ast.OpDatatype:
		m, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		return Match{Value: m.Datatype.String(), Datatype: flake.DtString}, nil
	case ast.OpAnd:
		l, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		if !truthy(l) {
			return falseMatch, nil
		}
		r, err := EvalExpr(ns, sol, app.Args[1])
		if err != nil {
			return Match{}, err
		}
		return boolMatch(truthy(r)), nil
	case ast.OpOr:
		l, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		if truthy(l) {
			return trueMatch, nil
		}
		r, err := EvalExpr(ns, sol, app.Args[1])
		if err != nil {
			return Match{}, err
		}
		return boolMatch(truthy(r)), nil
	case ast.OpNot:
		v, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		return boolMatch(!truthy(v)), nil
	case ast.OpIn:
		l, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		for _, cand := range app.Args[1:] {
			r, err := EvalExpr(ns, sol, cand)
			if err != nil {
				return Match{}, err
			}
			if l.Equal(r) {
				return trueMatch, nil
			}
		}
		return falseMatch, nil
	case ast.OpStrContains:
		l, err := EvalExpr(ns, sol, app.Args[0])
		if err != nil {
			return Match{}, err
		}
		r, err := EvalExpr(ns, sol, app.Args[1])
		if err != nil {
			return Match{}, err
		}
		ls, _ := l.Value.(string)
		rs, _ := r.Value.(string)
		return boolMatch(strings.Contains(ls, rs)), nil
	}

	l, err := EvalExpr(ns, sol, app.Args[0])
	if err != nil {
		return Match{}, err
	}
	r, err := EvalExpr(ns, sol, app.Args[1])
	if err != nil {
		return Match{}, err
	}

	switch app.Op {
	case ast.OpEq:
		return boolMatch(l.Equal(r)), nil
	case ast.OpNotEq:
		return boolMatch(!l.Equal(r)), nil
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		c := flake.CompareValues(l.Value, l.Datatype, r.Value, r.Datatype)
		return boolMatch(compareSatisfies(app.Op, c)), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return arith(app.Op, l, r)
	default:
		return Match{}, errs.Wrap("query.eval", errs.Internal, fmt.Errorf("unsupported operator %v", app.Op))
	}
}

func compareSatisfies(op ast.Op, c int) bool {
	switch op {
	case ast.OpLt:
		return c < 0
	case ast.OpLtEq:
		return c <= 0
	case ast.OpGt:
		return c > 0
	case ast.OpGtEq:
		return c >= 0
	default:
		return false
	}
}

func arith(op ast.Op, l, r Match) (Match, error) {
	if l.Datatype.Equal(flake.DtInteger) && r.Datatype.Equal(flake.DtInteger) {
		a, _ := l.Value.(int64)
		b, _ := r.Value.(int64)
		switch op {
		case ast.OpAdd:
			return Match{Value: a + b, Datatype: flake.DtInteger}, nil
		case ast.OpSub:
			return Match{Value: a - b, Datatype: flake.DtInteger}, nil
		case ast.OpMul:
			return Match{Value: a * b, Datatype: flake.DtInteger}, nil
		case ast.OpDiv:
			if b == 0 {
				return Match{}, errs.Wrap("query.eval", errs.Validation, fmt.Errorf("%w: division by zero", errs.ErrInvalidQuery))
			}
			return Match{Value: a / b, Datatype: flake.DtInteger}, nil
		}
	}
	a := toFloat(l.Value)
	b := toFloat(r.Value)
	switch op {
	case ast.OpAdd:
		return Match{Value: a + b, Datatype: flake.DtDouble}, nil
	case ast.OpSub:
		return Match{Value: a - b, Datatype: flake.DtDouble}, nil
	case ast.OpMul:
		return Match{Value: a * b, Datatype: flake.DtDouble}, nil
	case ast.OpDiv:
		if b == 0 {
			return Match{}, errs.Wrap("query.eval", errs.Validation, fmt.Errorf("%w: division by zero", errs.ErrInvalidQuery))
		}
		return Match{Value: a / b, Datatype: flake.DtDouble}, nil
	}
	return Match{}, errs.Wrap("query.eval", errs.Internal, fmt.Errorf("unsupported arithmetic operator %v", op))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
