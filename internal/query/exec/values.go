package exec

import (
	"fmt"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/ast"
)

// MaterializeValues turns a residual (not-pushed-down) VALUES clause into
// one solution per row. A row referencing an IRI never assigned a
// namespace code is dropped — it can never join with anything live in
// this ledger, the same "can't match" treatment resolveTerm gives a
// pattern term.
func MaterializeValues(ns *flake.Namespaces, v *ast.Values) ([]Solution, error) {
	vars := v.MultiVars
	if len(vars) == 0 {
		vars = []ast.Var{v.Vars}
	}

	out := make([]Solution, 0, len(v.Rows))
	for _, row := range v.Rows {
		if len(row) != len(vars) {
			return nil, errs.Wrap("query.values", errs.Validation,
				fmt.Errorf("%w: values row has %d terms, want %d", errs.ErrInvalidQuery, len(row), len(vars)))
		}
		sol := make(Solution, len(vars))
		dropped := false
		for i, term := range row {
			m, _, ok := resolveTerm(ns, Solution{}, term)
			if !ok {
				dropped = true
				break
			}
			sol[vars[i].Name] = m
		}
		if !dropped {
			out = append(out, sol)
		}
	}
	return out, nil
}
