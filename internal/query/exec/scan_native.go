package exec

import (
	"context"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/ledger"
	"github.com/fluree/db-sub010/internal/query/ast"
	"github.com/fluree/db-sub010/internal/query/plan"
)

// minSID sorts before every real SID (namespace codes start at 0) and
// serves as an inclusive lower range bound; nextSID bumps past every SID
// sharing a namespace and local prefix for an exclusive upper bound —
// the same trick internal/ledger's CurrentValues uses.
var minSID = flake.SID{Namespace: -1}

func nextSID(s flake.SID) flake.SID {
	return flake.SID{Namespace: s.Namespace, Local: s.Local + "\xff"}
}

// asTriple normalizes a ClassPattern into the (subject, rdf:type, class)
// triple it denotes so scanning doesn't need a second code path.
func asTriple(el ast.GroupElement) (s, p, o ast.Term, ok bool) {
	switch e := el.(type) {
	case *ast.TriplePattern:
		return e.S, e.P, e.O, true
	case *ast.ClassPattern:
		return e.Subject, ast.IRI{Value: "rdf:type"}, e.Class, true
	default:
		return nil, nil, nil, false
	}
}

// ScanNative evaluates a native (ledger-routed) ScanGroup by index-nested-
// loop joining its patterns left to right: each pattern is matched against
// the accumulated partial solutions from the ones before it, so a pattern
// referencing an already-bound variable narrows to a single-subject or
// single-predicate range scan instead of a full-index walk.
func ScanNative(ctx context.Context, db *ledger.Db, ns *flake.Namespaces, group *plan.ScanGroup) ([]Solution, error) {
	sols := []Solution{{}}
	for _, pat := range group.Patterns {
		s, p, o, ok := asTriple(pat)
		if !ok {
			continue
		}
		var next []Solution
		for _, sol := range sols {
			matches, err := scanPattern(ctx, db, ns, s, p, o, sol)
			if err != nil {
				return nil, err
			}
			next = append(next, matches...)
		}
		sols = next
		if len(sols) == 0 {
			break
		}
	}
	return sols, nil
}

// scanPattern matches one triple pattern against db, given the bindings
// already established by sol, and returns one extended solution per live
// flake that matches. A term resolving to an unknown IRI/datatype (never
// written to this ledger) yields no matches rather than an error.
func scanPattern(ctx context.Context, db *ledger.Db, ns *flake.Namespaces, s, p, o ast.Term, sol Solution) ([]Solution, error) {
	sm, sVar, sOK := resolveTerm(ns, sol, s)
	pm, pVar, pOK := resolveTerm(ns, sol, p)
	om, oVar, oOK := resolveTerm(ns, sol, o)
	if !sOK || !pOK || !oOK {
		return nil, nil
	}

	order, lo, hi := scanBounds(sVar, pVar, sm, pm)
	it := db.Scan(order, lo, hi)
	defer it.Close()

	var out []Solution
	for {
		f, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if sVar == "" && !f.S.Equal(*sm.IRI) {
			continue
		}
		if pVar == "" && !f.P.Equal(*pm.IRI) {
			continue
		}
		fObj := Match{Value: f.O, Datatype: f.Dt}
		if f.Dt.Equal(flake.DtID) {
			sid := f.O.(flake.SID)
			fObj = Match{IRI: &sid, Datatype: flake.DtID}
		}
		if oVar == "" && !fObj.Equal(om) {
			continue
		}

		ext := sol.Clone()
		if sVar != "" {
			ext[sVar] = Match{IRI: &f.S, Datatype: flake.DtID}
		}
		if pVar != "" {
			ext[pVar] = Match{IRI: &f.P, Datatype: flake.DtID}
		}
		if oVar != "" {
			ext[oVar] = fObj
		}
		out = append(out, ext)
	}
	return out, nil
}

// scanBounds picks the tightest available index order and range given
// which of subject/predicate are already bound. A bound object alone
// isn't selective here (OPST support is left for a future pushdown) so
// that case falls back to a predicate- or subject-anchored scan, or an
// unindexed full SPOT walk when neither is bound.
func scanBounds(sVar, pVar string, sm, pm Match) (flake.Order, flake.Flake, *flake.Flake) {
	zeroDt := flake.SID{}
	if sVar == "" && pVar == "" {
		lo := flake.Create(*sm.IRI, *pm.IRI, nil, zeroDt, 0, true, nil)
		hi := flake.Create(*sm.IRI, nextSID(*pm.IRI), nil, zeroDt, 0, true, nil)
		return flake.SPOT, lo, &hi
	}
	if sVar == "" {
		lo := flake.Create(*sm.IRI, minSID, nil, zeroDt, 0, true, nil)
		hi := flake.Create(nextSID(*sm.IRI), minSID, nil, zeroDt, 0, true, nil)
		return flake.SPOT, lo, &hi
	}
	if pVar == "" {
		lo := flake.Create(minSID, *pm.IRI, nil, zeroDt, 0, true, nil)
		hi := flake.Create(minSID, nextSID(*pm.IRI), nil, zeroDt, 0, true, nil)
		return flake.PSOT, lo, &hi
	}
	lo := flake.Create(minSID, minSID, nil, zeroDt, 0, true, nil)
	return flake.SPOT, lo, nil
}
