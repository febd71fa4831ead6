package exec

import (
	"strings"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/ast"
)

// splitIRI divides a surface-syntax IRI into the namespace prefix and
// local name a SID splits identity into (spec §3.1). Prefixed names
// (`schema:name`) split at the first colon; full IRIs (`<http://...>`)
// split at the last `/` or `#` — JSON-LD-style prefix expansion is an
// external collaborator's concern (spec §1), not this executor's.
func splitIRI(iri string) (ns, local string) {
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		return iri[:i+1], iri[i+1:]
	}
	if i := strings.Index(iri, ":"); i >= 0 {
		return iri[:i+1], iri[i+1:]
	}
	return "", iri
}

// resolveSID looks up the SID for a surface IRI against the ledger's
// namespace table. ok=false means the IRI was never assigned a
// namespace code, so any pattern referencing it can never match.
func resolveSID(ns *flake.Namespaces, iri string) (flake.SID, bool) {
	nsIRI, local := splitIRI(iri)
	code, ok := ns.Code(nsIRI)
	if !ok {
		return flake.SID{}, false
	}
	return flake.SID{Namespace: code, Local: local}, true
}

// resolveTerm turns an ast.Term into a Match given the current partial
// solution's bindings, or reports boundVar=="" when the term is a
// still-unbound variable (the caller binds it from the scanned flake).
func resolveTerm(ns *flake.Namespaces, sol Solution, t ast.Term) (m Match, boundVar string, resolvable bool) {
	switch v := t.(type) {
	case ast.Var:
		if existing, ok := sol[v.Name]; ok {
			return existing, "", true
		}
		return Match{}, v.Name, true
	case ast.IRI:
		sid, ok := resolveSID(ns, v.Value)
		if !ok {
			return Match{}, "", false
		}
		return Match{IRI: &sid, Datatype: flake.DtID}, "", true
	case ast.Literal:
		dt, ok := literalDatatype(ns, v)
		if !ok {
			return Match{}, "", false
		}
		return Match{Value: flake.Normalize(dt, v.Value), Datatype: dt}, "", true
	default:
		return Match{}, "", false
	}
}

func literalDatatype(ns *flake.Namespaces, lit ast.Literal) (flake.SID, bool) {
	return resolveDatatype(ns, lit.Datatype)
}

// resolveDatatype maps a surface datatype name (xsd:* or a custom IRI)
// to its SID, shared by pattern-literal and expression-literal
// resolution.
func resolveDatatype(ns *flake.Namespaces, datatype string) (flake.SID, bool) {
	switch datatype {
	case "", "xsd:string":
		return flake.DtString, true
	case "xsd:integer":
		return flake.DtInteger, true
	case "xsd:long":
		return flake.DtLong, true
	case "xsd:double":
		return flake.DtDouble, true
	case "xsd:decimal":
		return flake.DtDecimal, true
	case "xsd:boolean":
		return flake.DtBoolean, true
	case "xsd:dateTime":
		return flake.DtDateTime, true
	case "xsd:date":
		return flake.DtDate, true
	default:
		return resolveSID(ns, datatype)
	}
}

// matchToTerm is resolveTerm's inverse, used when a Match needs to be
// re-expressed as an ast.Term (e.g. VALUES row literals).
func matchToTerm(m Match) ast.Term {
	if m.IRI != nil {
		return ast.IRI{Value: m.IRI.String()}
	}
	return ast.Literal{Value: m.Value, Datatype: m.Datatype.String()}
}
