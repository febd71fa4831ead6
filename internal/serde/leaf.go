package serde

import (
	"encoding/json"
	"fmt"

	"github.com/fluree/db-sub010/internal/flake"
)

// leafWire is the JSON shape of a leaf payload (spec §4.2): v2 dedupes
// every SID referenced by the leaf into Dict and has flake slots reference
// dictionary indices; v1 (legacy, read-only) embeds SIDs directly.
type leafWire struct {
	Version int             `json:"version"`
	Dict     []SIDWire       `json:"dict,omitempty"`
	Flakes   [][]any         `json:"flakes"`
}

// EncodeLeaf renders flakes as a v2 dictionary-encoded leaf payload.
func EncodeLeaf(flakes []flake.Flake) ([]byte, error) {
	dict := newDictBuilder()
	slots := make([][]any, 0, len(flakes))
	for _, f := range flakes {
		sIdx := dict.index(f.S)
		pIdx := dict.index(f.P)
		dtIdx := dict.index(f.Dt)

		var oWire any
		if flake.IsReference(f.Dt) {
			ref, ok := f.O.(flake.SID)
			if !ok {
				return nil, fmt.Errorf("serde: flake with dt=id has non-SID object %v", f.O)
			}
			oWire = dict.index(ref)
		} else {
			oWire = encodeLiteral(f.Dt, f.O)
		}

		slots = append(slots, []any{sIdx, pIdx, oWire, dtIdx, f.T, f.Op, metaOrNil(f.M)})
	}

	payload := leafWire{Version: 2, Dict: dict.entries(), Flakes: slots}
	return json.Marshal(payload)
}

// DecodeLeaf parses a leaf payload of either version.
func DecodeLeaf(data []byte) ([]flake.Flake, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("serde: decode leaf header: %w", err)
	}
	switch probe.Version {
	case 2, 0:
		return decodeLeafV2(data)
	case 1:
		return decodeLeafV1(data)
	default:
		return nil, fmt.Errorf("serde: unknown leaf serializer version %d", probe.Version)
	}
}

func decodeLeafV2(data []byte) ([]flake.Flake, error) {
	var w leafWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("serde: decode leaf v2: %w", err)
	}
	dict := make([]flake.SID, len(w.Dict))
	for i, sw := range w.Dict {
		sid, err := sidFromWire(sw)
		if err != nil {
			return nil, err
		}
		dict[i] = sid
	}

	flakes := make([]flake.Flake, 0, len(w.Flakes))
	for _, slot := range w.Flakes {
		if len(slot) != 7 {
			return nil, fmt.Errorf("serde: malformed flake slot %v", slot)
		}
		s, err := dictSID(dict, slot[0])
		if err != nil {
			return nil, err
		}
		p, err := dictSID(dict, slot[1])
		if err != nil {
			return nil, err
		}
		dt, err := dictSID(dict, slot[3])
		if err != nil {
			return nil, err
		}

		var o any
		if flake.IsReference(dt) {
			o, err = dictSID(dict, slot[2])
			if err != nil {
				return nil, err
			}
		} else {
			o = decodeLiteral(dt, slot[2])
		}

		t, op, m, err := decodeTail(slot[4], slot[5], slot[6])
		if err != nil {
			return nil, err
		}
		flakes = append(flakes, flake.Create(s, p, o, dt, t, op, m))
	}
	return flakes, nil
}

// v1Wire is the legacy, non-dictionary leaf format: each slot embeds full
// SIDs directly. Kept for backward-compatible reads only (spec §4.2:
// "Legacy v1 (no dictionary) must still be read").
type v1Wire struct {
	Version int     `json:"version"`
	Flakes   [][]any `json:"flakes"`
}

func decodeLeafV1(data []byte) ([]flake.Flake, error) {
	var w v1Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("serde: decode leaf v1: %w", err)
	}
	flakes := make([]flake.Flake, 0, len(w.Flakes))
	for _, slot := range w.Flakes {
		if len(slot) != 7 {
			return nil, fmt.Errorf("serde: malformed v1 flake slot %v", slot)
		}
		s, err := sidFromAny(slot[0])
		if err != nil {
			return nil, err
		}
		p, err := sidFromAny(slot[1])
		if err != nil {
			return nil, err
		}
		dt, err := sidFromAny(slot[3])
		if err != nil {
			return nil, err
		}
		var o any
		if flake.IsReference(dt) {
			o, err = sidFromAny(slot[2])
			if err != nil {
				return nil, err
			}
		} else {
			o = decodeLiteral(dt, slot[2])
		}
		t, op, m, err := decodeTail(slot[4], slot[5], slot[6])
		if err != nil {
			return nil, err
		}
		flakes = append(flakes, flake.Create(s, p, o, dt, t, op, m))
	}
	return flakes, nil
}

func decodeTail(tRaw, opRaw, mRaw any) (int64, bool, map[string]any, error) {
	tf, ok := tRaw.(float64)
	if !ok {
		return 0, false, nil, fmt.Errorf("serde: malformed t %v", tRaw)
	}
	op, ok := opRaw.(bool)
	if !ok {
		return 0, false, nil, fmt.Errorf("serde: malformed op %v", opRaw)
	}
	var m map[string]any
	if mRaw != nil {
		m, _ = mRaw.(map[string]any)
	}
	return int64(tf), op, m, nil
}

func dictSID(dict []flake.SID, raw any) (flake.SID, error) {
	idx, ok := raw.(float64)
	if !ok {
		return flake.SID{}, fmt.Errorf("serde: expected dict index, got %v", raw)
	}
	i := int(idx)
	if i < 0 || i >= len(dict) {
		return flake.SID{}, fmt.Errorf("serde: dict index %d out of range", i)
	}
	return dict[i], nil
}

func sidFromAny(raw any) (flake.SID, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 2 {
		return flake.SID{}, fmt.Errorf("serde: malformed inline SID %v", raw)
	}
	return sidFromWire(SIDWire{arr[0], arr[1]})
}

func metaOrNil(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// dictBuilder deduplicates SIDs within a single leaf into insertion-order
// dictionary indices (spec §4.2: "All SIDs appearing in the leaf are
// deduplicated into dict"). Per spec §9, dictionary sharing is leaf-local
// only — no cross-leaf reuse is assumed by the format.
type dictBuilder struct {
	idx map[flake.SID]int
	ord []flake.SID
}

func newDictBuilder() *dictBuilder {
	return &dictBuilder{idx: make(map[flake.SID]int)}
}

func (d *dictBuilder) index(s flake.SID) int {
	if i, ok := d.idx[s]; ok {
		return i
	}
	i := len(d.ord)
	d.idx[s] = i
	d.ord = append(d.ord, s)
	return i
}

func (d *dictBuilder) entries() []SIDWire {
	out := make([]SIDWire, len(d.ord))
	for i, s := range d.ord {
		out[i] = sidToWire(s)
	}
	return out
}
