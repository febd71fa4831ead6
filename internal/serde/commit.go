package serde

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/store"
)

// DataDescriptor points at the serialized flake set a commit added (spec
// §3.5, §6).
type DataDescriptor struct {
	Address store.Address
	Hash    string
}

// Commit is the in-memory shape of a commit record (spec §3.5, §6),
// enriched per SPEC_FULL.md with an optional free-form message and
// author SID — additive fields, not a change to the required shape.
type Commit struct {
	T          int64
	Time       time.Time
	Data       DataDescriptor
	PrevCommit *store.Address
	Index      *store.Address
	Signature  *string
	Message    *string
	Author     *flake.SID
}

type commitWire struct {
	T          int64    `json:"t"`
	Time       string   `json:"time"`
	Data       dataWire `json:"data"`
	PrevCommit *string  `json:"prevCommit,omitempty"`
	Index      *string  `json:"index,omitempty"`
	Signature  *string  `json:"signature,omitempty"`
	Message    *string  `json:"message,omitempty"`
	Author     *SIDWire `json:"author,omitempty"`
}

type dataWire struct {
	Address string `json:"address"`
	Hash    string `json:"hash"`
}

// EncodeCommit renders a commit record.
func EncodeCommit(c Commit) ([]byte, error) {
	w := commitWire{
		T:    c.T,
		Time: c.Time.UTC().Format(time.RFC3339Nano),
		Data: dataWire{Address: string(c.Data.Address), Hash: c.Data.Hash},
	}
	if c.PrevCommit != nil {
		s := string(*c.PrevCommit)
		w.PrevCommit = &s
	}
	if c.Index != nil {
		s := string(*c.Index)
		w.Index = &s
	}
	w.Signature = c.Signature
	w.Message = c.Message
	if c.Author != nil {
		sw := sidToWire(*c.Author)
		w.Author = &sw
	}
	return json.Marshal(w)
}

// DecodeCommit parses a commit record.
func DecodeCommit(data []byte) (Commit, error) {
	var w commitWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Commit{}, fmt.Errorf("serde: decode commit: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Time)
	if err != nil {
		return Commit{}, fmt.Errorf("serde: decode commit time: %w", err)
	}
	c := Commit{
		T:    w.T,
		Time: ts,
		Data: DataDescriptor{Address: store.Address(w.Data.Address), Hash: w.Data.Hash},
		Signature: w.Signature,
		Message:   w.Message,
	}
	if w.PrevCommit != nil {
		a := store.Address(*w.PrevCommit)
		c.PrevCommit = &a
	}
	if w.Index != nil {
		a := store.Address(*w.Index)
		c.Index = &a
	}
	if w.Author != nil {
		sid, err := sidFromWire(*w.Author)
		if err != nil {
			return Commit{}, err
		}
		c.Author = &sid
	}
	return c, nil
}

// BranchHead is the small mutable pointer a branch advances on every
// commit (spec §3.6, §4.6).
type BranchHead struct {
	Branch string
	Commit store.Address
}

type branchHeadWire struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
}

// EncodeBranchHead renders a branch head pointer.
func EncodeBranchHead(h BranchHead) ([]byte, error) {
	return json.Marshal(branchHeadWire{Branch: h.Branch, Commit: string(h.Commit)})
}

// DecodeBranchHead parses a branch head pointer.
func DecodeBranchHead(data []byte) (BranchHead, error) {
	var w branchHeadWire
	if err := json.Unmarshal(data, &w); err != nil {
		return BranchHead{}, fmt.Errorf("serde: decode branch head: %w", err)
	}
	return BranchHead{Branch: w.Branch, Commit: store.Address(w.Commit)}, nil
}
