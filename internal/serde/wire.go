// Package serde implements the bidirectional mapping between in-memory
// index nodes, commits, garbage manifests, and cuckoo filter chains and
// their JSON storage payloads (spec §4.2, §6).
//
// Contract: Decode(Encode(x)) == x over the logical content of x (spec
// §8: "Round trip"). In-memory-only fields such as comparator functions
// or ledger aliases are never part of the wire payload and are restored
// by the caller, not by this package.
package serde

import (
	"fmt"
	"time"

	"github.com/fluree/db-sub010/internal/flake"
)

// SIDWire is the two-tuple [ns-code, local] wire form of a flake.SID
// (spec §6: "s, p, dt are [ns-code, local] two-tuples").
type SIDWire [2]any

func sidToWire(s flake.SID) SIDWire { return SIDWire{s.Namespace, s.Local} }

func sidFromWire(w SIDWire) (flake.SID, error) {
	ns, ok := w[0].(float64)
	if !ok {
		if n, ok2 := w[0].(int); ok2 {
			ns = float64(n)
		} else {
			return flake.SID{}, fmt.Errorf("serde: malformed SID namespace code %v", w[0])
		}
	}
	local, ok := w[1].(string)
	if !ok {
		return flake.SID{}, fmt.Errorf("serde: malformed SID local name %v", w[1])
	}
	return flake.SID{Namespace: int(ns), Local: local}, nil
}

// encodeLiteral renders a flake object for the wire: RFC3339 for dates,
// everything else passed through for encoding/json to render natively.
func encodeLiteral(dt flake.SID, o any) any {
	if t, ok := o.(time.Time); ok && (dt == flake.DtDateTime || dt == flake.DtDate) {
		return t.Format(time.RFC3339)
	}
	return o
}

// decodeLiteral reverses encodeLiteral, coercing a JSON-decoded value
// (float64, string, bool) back into the Go representation for dt.
func decodeLiteral(dt flake.SID, o any) any {
	return flake.Normalize(dt, o)
}
