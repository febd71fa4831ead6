package plan

import (
	"github.com/fluree/db-sub010/internal/query/ast"
)

// pushdownFilters lifts residual FILTER/VALUES steps whose sole
// variable is bound by a virtual-graph scan group onto that group's
// Pushdowns list, dropping the now-redundant residual step (spec §4.8
// steps 2-3). Whether a lifted predicate's column can actually be
// pushed into the source's native query language is internal/vg's own
// concern during SQL translation (its buildSelect renders only IN
// pushdowns on column-backed variables; SourceRouter.Pushable is not
// consulted) — lifting here only decides which scan group a
// predicate's variable ties it to, a purely syntactic question.
func pushdownFilters(steps []Step) []Step {
	scanFor := map[string]*ScanGroup{}
	for _, s := range steps {
		if s.Kind == StepScan {
			for v := range varsOf(s.Scan.Patterns) {
				scanFor[v] = s.Scan
			}
		}
	}

	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		switch s.Kind {
		case StepFilter:
			if pd, sg, ok := extractPushdown(s.Filter.Expr, scanFor); ok && sg.Source != nativeSource {
				sg.Pushdowns = append(sg.Pushdowns, pd)
				continue
			}
		case StepValues:
			if pd, sg, ok := extractValuesPushdown(s.Values, scanFor); ok {
				sg.Pushdowns = append(sg.Pushdowns, pd)
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

var comparisonOps = map[ast.Op]bool{
	ast.OpEq: true, ast.OpLt: true, ast.OpLtEq: true, ast.OpGt: true, ast.OpGtEq: true,
}

// extractPushdown recognizes `var OP literal` / `literal OP var` (for
// equality/range comparisons) and `var IN (literal, ...)`.
func extractPushdown(e ast.Expr, scanFor map[string]*ScanGroup) (Pushdown, *ScanGroup, bool) {
	app, ok := e.(ast.App)
	if !ok {
		return Pushdown{}, nil, false
	}
	if app.Op == ast.OpIn && len(app.Args) >= 2 {
		v, ok := app.Args[0].(ast.VarRef)
		if !ok {
			return Pushdown{}, nil, false
		}
		sg, ok := scanFor[v.Name]
		if !ok {
			return Pushdown{}, nil, false
		}
		return Pushdown{Var: v.Name, Op: ast.OpIn, Values: app.Args[1:]}, sg, true
	}
	if comparisonOps[app.Op] && len(app.Args) == 2 {
		if v, ok := app.Args[0].(ast.VarRef); ok {
			if lit, ok := app.Args[1].(ast.ExprLiteral); ok {
				if sg, ok := scanFor[v.Name]; ok {
					return Pushdown{Var: v.Name, Op: app.Op, Values: []ast.Expr{lit}}, sg, true
				}
			}
		}
		if lit, ok := app.Args[0].(ast.ExprLiteral); ok {
			if v, ok := app.Args[1].(ast.VarRef); ok {
				if sg, ok := scanFor[v.Name]; ok {
					return Pushdown{Var: v.Name, Op: flipComparison(app.Op), Values: []ast.Expr{lit}}, sg, true
				}
			}
		}
	}
	return Pushdown{}, nil, false
}

func flipComparison(op ast.Op) ast.Op {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLtEq:
		return ast.OpGtEq
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGtEq:
		return ast.OpLtEq
	default:
		return op
	}
}

func extractValuesPushdown(v *ast.Values, scanFor map[string]*ScanGroup) (Pushdown, *ScanGroup, bool) {
	if len(v.MultiVars) > 0 {
		return Pushdown{}, nil, false
	}
	sg, ok := scanFor[v.Vars.Name]
	if !ok || sg.Source == nativeSource {
		return Pushdown{}, nil, false
	}
	vals := make([]ast.Expr, 0, len(v.Rows))
	for _, row := range v.Rows {
		if len(row) != 1 {
			return Pushdown{}, nil, false
		}
		lit, ok := row[0].(ast.Literal)
		if !ok {
			return Pushdown{}, nil, false
		}
		vals = append(vals, ast.ExprLiteral{Value: lit.Value, Datatype: lit.Datatype})
	}
	return Pushdown{Var: v.Vars.Name, Op: ast.OpIn, Values: vals}, sg, true
}
