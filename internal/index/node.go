// Package index implements the persistent, copy-on-write B-tree over
// flakes described in spec §3.3 and §4.4: five independently-sorted trees
// (spot, psot, post, opst, tspo) whose leaves and branches are content-
// addressed, resolved lazily on demand, and merged with novelty at read
// time.
package index

import (
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/serde"
)

// ChildDescriptor is re-exported from serde: a branch's view of one
// child (address, leaf/branch flag, [first,rhs) bounds, size).
type ChildDescriptor = serde.ChildDescriptor

// Leaf is a resolved leaf node: its persisted, already-live flake set
// (refresh never keeps a retraction tombstone once folded — see
// DESIGN.md's time-travel section) plus its key-range bounds.
type Leaf struct {
	First  flake.Flake
	RHS    *flake.Flake
	T      int64
	Flakes []flake.Flake
}

// Branch is a resolved branch node: an ordered list of child descriptors
// plus its own key-range bounds, derived from its first and last child.
type Branch struct {
	First    flake.Flake
	RHS      *flake.Flake
	T        int64
	Children []ChildDescriptor
}
