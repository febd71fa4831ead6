package serde

import (
	"encoding/json"
	"fmt"

	"github.com/fluree/db-sub010/internal/store"
)

// Garbage is the manifest of segments orphaned by one refresh (spec
// §4.2, §4.5 step 4): the addresses every index order replaced, scoped to
// a ledger alias and the t the refresh produced.
type Garbage struct {
	Alias   string
	T       int64
	Garbage []store.Address
}

type garbageWire struct {
	Alias   string   `json:"alias"`
	T       int64    `json:"t"`
	Garbage []string `json:"garbage"`
}

// EncodeGarbage renders a garbage manifest.
func EncodeGarbage(g Garbage) ([]byte, error) {
	addrs := make([]string, len(g.Garbage))
	for i, a := range g.Garbage {
		addrs[i] = string(a)
	}
	return json.Marshal(garbageWire{Alias: g.Alias, T: g.T, Garbage: addrs})
}

// DecodeGarbage parses a garbage manifest.
func DecodeGarbage(data []byte) (Garbage, error) {
	var w garbageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Garbage{}, fmt.Errorf("serde: decode garbage: %w", err)
	}
	addrs := make([]store.Address, len(w.Garbage))
	for i, a := range w.Garbage {
		addrs[i] = store.Address(a)
	}
	return Garbage{Alias: w.Alias, T: w.T, Garbage: addrs}, nil
}
