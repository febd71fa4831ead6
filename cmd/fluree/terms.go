package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fluree/db-sub010/internal/flake"
)

// splitIRI divides an IRI into its namespace and local-name parts the
// same way internal/query/exec and internal/vg each do locally —
// splitting on the last "/" or "#", falling back to a ":" for bare
// prefixed names like "xsd:string".
func splitIRI(iri string) (ns, local string) {
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		return iri[:i+1], iri[i+1:]
	}
	if i := strings.Index(iri, ":"); i >= 0 {
		return iri[:i+1], iri[i+1:]
	}
	return "", iri
}

// resolveSubjectOrPredicate mints (or reuses) a namespace code for iri
// and returns the resulting SID.
func resolveSubjectOrPredicate(ns *flake.Namespaces, iri string) flake.SID {
	nsPart, local := splitIRI(iri)
	return flake.SID{Namespace: ns.Ensure(nsPart), Local: local}
}

// datatypeSID maps a surface datatype name to its SID, minting a
// namespace code for anything outside the built-in xsd set.
func datatypeSID(ns *flake.Namespaces, datatype string) flake.SID {
	switch datatype {
	case "", "string":
		return flake.DtString
	case "integer":
		return flake.DtInteger
	case "long":
		return flake.DtLong
	case "double":
		return flake.DtDouble
	case "decimal":
		return flake.DtDecimal
	case "boolean":
		return flake.DtBoolean
	case "dateTime":
		return flake.DtDateTime
	case "date":
		return flake.DtDate
	case "id":
		return flake.DtID
	default:
		return resolveSubjectOrPredicate(ns, datatype)
	}
}

// parseObject converts a CLI --object flag value into the typed scalar
// (string/int64/float64/bool) matching datatype. It never returns a SID:
// callers resolve a --datatype id object to a SID themselves instead of
// calling it.
func parseObject(value, datatype string) (any, error) {
	switch datatype {
	case "integer", "long":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s as integer: %w", value, err)
		}
		return n, nil
	case "double", "decimal":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s as double: %w", value, err)
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s as boolean: %w", value, err)
		}
		return b, nil
	default:
		return value, nil
	}
}
