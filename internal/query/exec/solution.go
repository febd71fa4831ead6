// Package exec implements the query executor of spec §4.9/§4.10: hash
// and left-outer hash joins, a cartesian-product safety guard,
// decorrelated EXISTS/NOT-EXISTS/MINUS anti-joins, and the SPARQL-order
// solution modifiers (GROUP BY+aggregates -> HAVING -> DISTINCT ->
// ORDER BY -> LIMIT/OFFSET).
package exec

import (
	"fmt"
	"sort"

	"github.com/fluree/db-sub010/internal/flake"
)

// Match is one variable's binding in a Solution: either a subject
// reference (IRI non-nil) or a typed literal value.
type Match struct {
	IRI      *flake.SID
	Value    any
	Datatype flake.SID
	Lang     string
}

// Equal reports whether two matches bind to the same logical value,
// per spec §4.9's "underlying values are equal" join-compatibility
// rule.
func (m Match) Equal(o Match) bool {
	if (m.IRI == nil) != (o.IRI == nil) {
		return false
	}
	if m.IRI != nil {
		return m.IRI.Equal(*o.IRI)
	}
	return flake.CompareValues(m.Value, m.Datatype, o.Value, o.Datatype) == 0
}

// Solution is a map from variable name to its bound Match. A variable
// absent from the map is unbound (SPARQL's optional/unbound
// semantics — never represented with a nil placeholder).
type Solution map[string]Match

// Clone returns a shallow copy safe to extend independently.
func (s Solution) Clone() Solution {
	out := make(Solution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Compatible reports whether a and b agree on every variable bound in
// both (spec §4.9's hash-join compatibility rule).
func Compatible(a, b Solution) bool {
	for v, ma := range a {
		if mb, ok := b[v]; ok && !ma.Equal(mb) {
			return false
		}
	}
	return true
}

// Merge returns the union of a and b's bindings. Callers must check
// Compatible first; Merge does not re-check.
func Merge(a, b Solution) Solution {
	out := a.Clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// SharedKey builds the hash-join key tuple for vars over sol. A
// solution missing any var in vars has no key (ok=false) — per spec
// §4.9, "null keys never match".
func SharedKey(sol Solution, vars []string) (string, bool) {
	if len(vars) == 0 {
		return "", false
	}
	sorted := append([]string(nil), vars...)
	sort.Strings(sorted)
	key := ""
	for _, v := range sorted {
		m, ok := sol[v]
		if !ok {
			return "", false
		}
		key += v + "=" + matchKey(m) + "\x1f"
	}
	return key, true
}

func matchKey(m Match) string {
	if m.IRI != nil {
		return "iri:" + m.IRI.String()
	}
	return fmt.Sprintf("lit:%s:%v", m.Datatype.String(), flake.Normalize(m.Datatype, m.Value))
}
