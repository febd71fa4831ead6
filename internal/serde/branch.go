package serde

import (
	"encoding/json"
	"fmt"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/store"
)

// ChildDescriptor describes one child of a branch node (spec §3.3):
// its address, whether it is itself a leaf, the smallest flake in the
// child (First), the open upper bound (RHS, nil meaning unbounded), and
// its size in flakes.
type ChildDescriptor struct {
	Address store.Address
	Leaf    bool
	First   flake.Flake
	RHS     *flake.Flake
	Size    int
}

// childWire is the JSON shape of a ChildDescriptor (spec §6: "Branch
// index node: {children: [{address, leaf?:bool, first:<flake>,
// rhs:<flake|null>, size:int}...]}"). First/RHS are serialized flakes,
// stringified per spec §4.2.
type childWire struct {
	Address string `json:"address"`
	Leaf    bool   `json:"leaf,omitempty"`
	First   string `json:"first"`
	RHS     *string `json:"rhs"`
	Size    int    `json:"size"`
}

// branchWire is the JSON shape of a branch payload (spec §4.2).
type branchWire struct {
	Children []childWire `json:"children"`
}

func flakeToInlineWire(f flake.Flake) []any {
	var oWire any
	if flake.IsReference(f.Dt) {
		if ref, ok := f.O.(flake.SID); ok {
			oWire = sidToWire(ref)
		}
	} else {
		oWire = encodeLiteral(f.Dt, f.O)
	}
	return []any{sidToWire(f.S), sidToWire(f.P), oWire, sidToWire(f.Dt), f.T, f.Op, metaOrNil(f.M)}
}

func flakeFromInlineWire(raw []any) (flake.Flake, error) {
	if len(raw) != 7 {
		return flake.Flake{}, fmt.Errorf("serde: malformed inline flake %v", raw)
	}
	s, err := sidFromAny(raw[0])
	if err != nil {
		return flake.Flake{}, err
	}
	p, err := sidFromAny(raw[1])
	if err != nil {
		return flake.Flake{}, err
	}
	dt, err := sidFromAny(raw[3])
	if err != nil {
		return flake.Flake{}, err
	}
	var o any
	if flake.IsReference(dt) {
		o, err = sidFromAny(raw[2])
		if err != nil {
			return flake.Flake{}, err
		}
	} else {
		o = decodeLiteral(dt, raw[2])
	}
	t, op, m, err := decodeTail(raw[4], raw[5], raw[6])
	if err != nil {
		return flake.Flake{}, err
	}
	return flake.Create(s, p, o, dt, t, op, m), nil
}

func stringifyFlake(f flake.Flake) (string, error) {
	b, err := json.Marshal(flakeToInlineWire(f))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseFlakeString(s string) (flake.Flake, error) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return flake.Flake{}, fmt.Errorf("serde: parse stringified flake: %w", err)
	}
	return flakeFromInlineWire(raw)
}

// EncodeBranch renders a branch node's children list.
func EncodeBranch(children []ChildDescriptor) ([]byte, error) {
	wire := make([]childWire, len(children))
	for i, c := range children {
		firstStr, err := stringifyFlake(c.First)
		if err != nil {
			return nil, err
		}
		var rhsStr *string
		if c.RHS != nil {
			s, err := stringifyFlake(*c.RHS)
			if err != nil {
				return nil, err
			}
			rhsStr = &s
		}
		wire[i] = childWire{
			Address: string(c.Address),
			Leaf:    c.Leaf,
			First:   firstStr,
			RHS:     rhsStr,
			Size:    c.Size,
		}
	}
	return json.Marshal(branchWire{Children: wire})
}

// DecodeBranch parses a branch node's children list.
func DecodeBranch(data []byte) ([]ChildDescriptor, error) {
	var w branchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("serde: decode branch: %w", err)
	}
	out := make([]ChildDescriptor, len(w.Children))
	for i, c := range w.Children {
		first, err := parseFlakeString(c.First)
		if err != nil {
			return nil, err
		}
		var rhs *flake.Flake
		if c.RHS != nil {
			f, err := parseFlakeString(*c.RHS)
			if err != nil {
				return nil, err
			}
			rhs = &f
		}
		out[i] = ChildDescriptor{
			Address: store.Address(c.Address),
			Leaf:    c.Leaf,
			First:   first,
			RHS:     rhs,
			Size:    c.Size,
		}
	}
	return out, nil
}
