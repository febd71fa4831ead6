package index

import (
	"context"
	"fmt"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/novelty"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// Tree is one sort order's persistent, copy-on-write index (spec §3.3):
// a content-addressed root descriptor over a back-end Store, read against
// an in-memory novelty buffer at resolution time. A Tree is immutable —
// refresh (internal/indexer) produces a new Tree rather than mutating one
// in place, so a reader holding a Tree sees a stable point-in-time view
// even while a concurrent refresh runs.
type Tree struct {
	Order   flake.Order
	store   store.Store
	novelty *novelty.Buffer
	root    ChildDescriptor
	cmp     func(a, b flake.Flake) int
}

// Open builds a Tree over root, reading leaves and branches from s and
// overlaying the given novelty buffer at query time.
func Open(order flake.Order, s store.Store, nov *novelty.Buffer, root ChildDescriptor) *Tree {
	return &Tree{Order: order, store: s, novelty: nov, root: root, cmp: flake.Comparator(order)}
}

// Root returns the descriptor this tree was opened with.
func (t *Tree) Root() ChildDescriptor { return t.root }

// resolveLeaf loads the leaf at cd.Address and merges it with the
// portion of novelty falling in the leaf's [First, RHS) range, per the
// resolution rule of spec §4.4.
func (t *Tree) resolveLeaf(ctx context.Context, cd ChildDescriptor, queryT int64) (Leaf, error) {
	data, err := t.store.Read(ctx, cd.Address)
	if err != nil {
		return Leaf{}, fmt.Errorf("index: read leaf %s: %w", cd.Address, err)
	}
	persisted, err := serde.DecodeLeaf(data)
	if err != nil {
		return Leaf{}, fmt.Errorf("index: decode leaf %s: %w", cd.Address, err)
	}

	var novel []flake.Flake
	if t.novelty != nil {
		novel = novelty.Range(t.novelty.Snapshot(), t.cmp, cd.First, cd.RHS)
	}

	merged := mergeLiveView(t.Order, persisted, novel, queryT)
	return Leaf{First: cd.First, RHS: cd.RHS, T: queryT, Flakes: merged}, nil
}

// resolveBranch loads the branch node at cd.Address.
func (t *Tree) resolveBranch(ctx context.Context, cd ChildDescriptor) (Branch, error) {
	data, err := t.store.Read(ctx, cd.Address)
	if err != nil {
		return Branch{}, fmt.Errorf("index: read branch %s: %w", cd.Address, err)
	}
	children, err := serde.DecodeBranch(data)
	if err != nil {
		return Branch{}, fmt.Errorf("index: decode branch %s: %w", cd.Address, err)
	}
	b := Branch{First: cd.First, RHS: cd.RHS, Children: children}
	if len(children) > 0 {
		b.First = children[0].First
		b.RHS = children[len(children)-1].RHS
	}
	return b, nil
}

// childInRange reports whether cd's [First, RHS) span can contain a flake
// in [lo, hi) per the tree's comparator — used to prune branch descent
// during a range scan (spec §4.4 "range query should only resolve the
// subtrees whose bounds intersect the query").
func childInRange(cmp func(a, b flake.Flake) int, cd ChildDescriptor, lo flake.Flake, hi *flake.Flake) bool {
	if cd.RHS != nil && cmp(*cd.RHS, lo) <= 0 {
		return false
	}
	if hi != nil && cmp(cd.First, *hi) >= 0 {
		return false
	}
	return true
}
