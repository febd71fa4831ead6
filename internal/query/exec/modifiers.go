package exec

import (
	"sort"
	"strings"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/ast"
)

// ApplyModifiers runs the solution modifiers of spec §4.9 in SPARQL
// order: GROUP BY+aggregates, then HAVING, then DISTINCT, then ORDER BY,
// then LIMIT/OFFSET.
func ApplyModifiers(ns *flake.Namespaces, q *ast.Query, sols []Solution) ([]Solution, error) {
	projected, err := applyGroupAndProject(ns, q, sols)
	if err != nil {
		return nil, err
	}
	projected, err = applyHaving(ns, q, projected)
	if err != nil {
		return nil, err
	}
	if q.Distinct {
		projected = applyDistinct(projected)
	}
	if err := applyOrderBy(ns, q, projected); err != nil {
		return nil, err
	}
	return applyLimitOffset(q, projected), nil
}

func hasAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		if _, ok := it.Expr.(ast.AggExpr); ok {
			return true
		}
	}
	return false
}

// applyGroupAndProject groups sols by q.GroupBy (or treats the whole
// input as one implicit group when the projection has an aggregate but
// no explicit GROUP BY) and evaluates q.Select against each group,
// or — when there's no grouping at all — against each solution
// individually. A query with neither GROUP BY nor an aggregate select
// item and a wildcard projection (q.Select == nil) passes sols through
// unchanged.
func applyGroupAndProject(ns *flake.Namespaces, q *ast.Query, sols []Solution) ([]Solution, error) {
	grouping := len(q.GroupBy) > 0 || hasAggregate(q.Select)
	if !grouping {
		if q.Select == nil {
			return sols, nil
		}
		out := make([]Solution, 0, len(sols))
		for _, s := range sols {
			row, err := projectRow(ns, q.Select, s, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, row)
		}
		return out, nil
	}

	type group struct {
		repr Solution
		rows []Solution
	}
	var order []string
	groups := map[string]*group{}

	if len(q.GroupBy) == 0 {
		g := &group{rows: sols}
		if len(sols) > 0 {
			g.repr = sols[0]
		} else {
			g.repr = Solution{}
		}
		groups[""] = g
		order = append(order, "")
	} else {
		for _, s := range sols {
			parts := make([]string, len(q.GroupBy))
			for i, ge := range q.GroupBy {
				m, err := EvalExpr(ns, s, ge)
				if err != nil {
					return nil, err
				}
				parts[i] = matchKey(m)
			}
			key := strings.Join(parts, "\x1f")
			g, ok := groups[key]
			if !ok {
				g = &group{repr: s}
				groups[key] = g
				order = append(order, key)
			}
			g.rows = append(g.rows, s)
		}
	}

	out := make([]Solution, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row, err := projectRow(ns, q.Select, g.repr, g.rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// projectRow evaluates select items against repr (for scalar/var
// expressions) and, when non-nil, groupRows (for AggExpr items). A nil
// items list (wildcard `*`) projects repr's bindings unchanged.
func projectRow(ns *flake.Namespaces, items []ast.SelectItem, repr Solution, groupRows []Solution) (Solution, error) {
	if items == nil {
		return repr, nil
	}
	out := make(Solution, len(items))
	for _, it := range items {
		if it.Expr == nil {
			if m, ok := repr[it.Var.Name]; ok {
				out[it.Var.Name] = m
			}
			continue
		}
		name := it.Alias.Name
		if agg, ok := it.Expr.(ast.AggExpr); ok {
			m, err := evalAgg(ns, agg, groupRows)
			if err != nil {
				return nil, err
			}
			out[name] = m
			continue
		}
		m, err := EvalExpr(ns, repr, it.Expr)
		if err != nil {
			return nil, err
		}
		out[name] = m
	}
	return out, nil
}

func evalAgg(ns *flake.Namespaces, agg ast.AggExpr, rows []Solution) (Match, error) {
	seen := map[string]bool{}
	accept := func(m Match) bool {
		if !agg.Distinct {
			return true
		}
		k := matchKey(m)
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	}

	if agg.Func == ast.AggCount && agg.Arg == nil {
		return Match{Value: int64(len(rows)), Datatype: flake.DtInteger}, nil
	}

	var vals []Match
	for _, r := range rows {
		m, err := EvalExpr(ns, r, agg.Arg)
		if err != nil {
			return Match{}, err
		}
		if m.IRI == nil && m.Value == nil {
			continue // unbound in this row, excluded per spec §4.9
		}
		if !accept(m) {
			continue
		}
		vals = append(vals, m)
	}

	switch agg.Func {
	case ast.AggCount:
		return Match{Value: int64(len(vals)), Datatype: flake.DtInteger}, nil
	case ast.AggSum, ast.AggAvg:
		sum := 0.0
		allInt := true
		for _, m := range vals {
			if _, ok := m.Value.(int64); !ok {
				allInt = false
			}
			sum += toFloat(m.Value)
		}
		if agg.Func == ast.AggAvg {
			if len(vals) == 0 {
				return Match{}, nil
			}
			return Match{Value: sum / float64(len(vals)), Datatype: flake.DtDouble}, nil
		}
		if allInt {
			return Match{Value: int64(sum), Datatype: flake.DtInteger}, nil
		}
		return Match{Value: sum, Datatype: flake.DtDouble}, nil
	case ast.AggMin, ast.AggMax:
		if len(vals) == 0 {
			return Match{}, nil
		}
		best := vals[0]
		for _, m := range vals[1:] {
			c := flake.CompareValues(m.Value, m.Datatype, best.Value, best.Datatype)
			if (agg.Func == ast.AggMin && c < 0) || (agg.Func == ast.AggMax && c > 0) {
				best = m
			}
		}
		return best, nil
	default:
		return Match{}, nil
	}
}

func applyHaving(ns *flake.Namespaces, q *ast.Query, sols []Solution) ([]Solution, error) {
	if q.Having == nil {
		return sols, nil
	}
	out := make([]Solution, 0, len(sols))
	for _, s := range sols {
		m, err := EvalExpr(ns, s, q.Having)
		if err != nil {
			return nil, err
		}
		if truthy(m) {
			out = append(out, s)
		}
	}
	return out, nil
}

func applyDistinct(sols []Solution) []Solution {
	seen := map[string]bool{}
	out := make([]Solution, 0, len(sols))
	for _, s := range sols {
		k := solutionKey(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func solutionKey(s Solution) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(matchKey(s[k]))
		b.WriteByte(0x1f)
	}
	return b.String()
}

type sortRow struct {
	sol  Solution
	keys []Match
}

func applyOrderBy(ns *flake.Namespaces, q *ast.Query, sols []Solution) error {
	if len(q.OrderBy) == 0 {
		return nil
	}
	rows := make([]sortRow, len(sols))
	for i, s := range sols {
		keys := make([]Match, len(q.OrderBy))
		for j, ok := range q.OrderBy {
			m, err := EvalExpr(ns, s, ok.Expr)
			if err != nil {
				return err
			}
			keys[j] = m
		}
		rows[i] = sortRow{sol: s, keys: keys}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, ok := range q.OrderBy {
			c := flake.CompareValues(rows[i].keys[k].Value, rows[i].keys[k].Datatype, rows[j].keys[k].Value, rows[j].keys[k].Datatype)
			if ok.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	for i, r := range rows {
		sols[i] = r.sol
	}
	return nil
}

func applyLimitOffset(q *ast.Query, sols []Solution) []Solution {
	if q.Offset != nil {
		off := int(*q.Offset)
		if off > len(sols) {
			off = len(sols)
		}
		sols = sols[off:]
	}
	if q.Limit != nil {
		lim := int(*q.Limit)
		if lim < len(sols) {
			sols = sols[:lim]
		}
	}
	return sols
}
