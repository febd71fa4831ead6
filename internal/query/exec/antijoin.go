package exec

import (
	"github.com/fluree/db-sub010/internal/query/ast"
)

// AntiJoin implements MINUS/FILTER EXISTS/FILTER NOT EXISTS as a
// decorrelated semi-join (spec §4.10): inner is executed once up front
// (by the caller), hash-indexed here on the variables it shares with
// outer, and each outer solution is kept or dropped by an O(1) lookup
// rather than re-running inner per outer row.
func AntiJoin(kind ast.AntiJoinKind, outer, inner []Solution) []Solution {
	shared := sharedVarNames(outer, inner)
	if len(shared) == 0 {
		// No correlation between outer and inner: either every row
		// matches (inner produced at least one solution) or none do.
		matched := len(inner) > 0
		var out []Solution
		for _, l := range outer {
			if keepForAntiJoin(kind, matched) {
				out = append(out, l)
			}
		}
		return out
	}

	index := make(map[string]bool, len(inner))
	for _, r := range inner {
		if key, ok := SharedKey(r, shared); ok {
			index[key] = true
		}
	}

	var out []Solution
	for _, l := range outer {
		key, ok := SharedKey(l, shared)
		matched := ok && index[key]
		if keepForAntiJoin(kind, matched) {
			out = append(out, l)
		}
	}
	return out
}

func keepForAntiJoin(kind ast.AntiJoinKind, matched bool) bool {
	switch kind {
	case ast.Exists:
		return matched
	default: // Minus, NotExists
		return !matched
	}
}

// sharedVarNames is the runtime stand-in for the variables an anti-join's
// inner group shares with its outer group: the union of variable names
// bound anywhere on each side, intersected. Dangling unbound variables
// (e.g. after an OPTIONAL upstream) never cause a spurious match since
// SharedKey rejects an unbound key.
func sharedVarNames(a, b []Solution) []string {
	av := map[string]bool{}
	for _, s := range a {
		for k := range s {
			av[k] = true
		}
	}
	bv := map[string]bool{}
	for _, s := range b {
		for k := range s {
			bv[k] = true
		}
	}
	var out []string
	for k := range av {
		if bv[k] {
			out = append(out, k)
		}
	}
	return out
}
