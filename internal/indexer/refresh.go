package indexer

import (
	"context"
	"fmt"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/index"
	"github.com/fluree/db-sub010/internal/novelty"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// Result is the outcome of refreshing one tree (spec §4.5): the new root
// descriptor for that order, the set of node addresses the refresh made
// obsolete (spec §4.6 garbage manifests), and the set of node addresses
// it newly wrote (spec §4.7's per-branch cuckoo filter chain, which adds
// every address a refresh newly references).
type Result struct {
	Root    serde.ChildDescriptor
	Garbage []store.Address
	Added   []store.Address
}

// Refresh folds nov into the tree rooted at root, producing a new root
// as of t. Subtrees untouched by novelty (no flakes fall in their
// [First, RHS) range) are returned unchanged and contribute nothing to
// the garbage set — the "walk unchanged subtrees" optimization of spec
// §4.5.
func Refresh(ctx context.Context, s store.Store, order flake.Order, nov *novelty.Buffer, root serde.ChildDescriptor, t int64, cfg Config) (Result, error) {
	cmp := flake.Comparator(order)
	snapshot := nov.Snapshot()

	var garbage, added []store.Address
	newChildren, changed, err := refreshNode(ctx, s, order, cmp, snapshot, root, t, cfg, &garbage, &added)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{Root: root}, nil
	}

	newRoot, err := collapseToOne(ctx, s, newChildren, &added)
	if err != nil {
		return Result{}, err
	}
	return Result{Root: newRoot, Garbage: garbage, Added: added}, nil
}

// refreshNode refreshes cd and returns the descriptor(s) that should
// replace it in its parent (more than one if this node split). changed
// is false, with cd returned unmodified, if no novelty touched cd's
// range.
func refreshNode(ctx context.Context, s store.Store, order flake.Order, cmp func(a, b flake.Flake) int, snapshot []flake.Flake, cd serde.ChildDescriptor, t int64, cfg Config, garbage, added *[]store.Address) ([]serde.ChildDescriptor, bool, error) {
	if cd.Leaf {
		return refreshLeaf(ctx, s, order, cmp, snapshot, cd, t, cfg, garbage, added)
	}
	return refreshBranch(ctx, s, order, cmp, snapshot, cd, t, cfg, garbage, added)
}

func refreshLeaf(ctx context.Context, s store.Store, order flake.Order, cmp func(a, b flake.Flake) int, snapshot []flake.Flake, cd serde.ChildDescriptor, t int64, cfg Config, garbage, added *[]store.Address) ([]serde.ChildDescriptor, bool, error) {
	novel := novelty.Range(snapshot, cmp, cd.First, cd.RHS)
	if len(novel) == 0 {
		return []serde.ChildDescriptor{cd}, false, nil
	}

	data, err := s.Read(ctx, cd.Address)
	if err != nil {
		return nil, false, fmt.Errorf("indexer: read leaf %s: %w", cd.Address, err)
	}
	persisted, err := serde.DecodeLeaf(data)
	if err != nil {
		return nil, false, fmt.Errorf("indexer: decode leaf %s: %w", cd.Address, err)
	}

	merged := index.MergeLiveView(order, persisted, novel, t)
	*garbage = append(*garbage, cd.Address)

	if len(merged) == 0 {
		return nil, true, nil
	}

	chunks := splitFlakes(merged, cfg.OverflowLeafFlakes)
	out := make([]serde.ChildDescriptor, 0, len(chunks))
	for i, chunk := range chunks {
		rhs := cd.RHS
		if i < len(chunks)-1 {
			next := chunks[i+1][0]
			rhs = &next
		}
		newCD, err := writeLeaf(ctx, s, chunk, rhs)
		if err != nil {
			return nil, false, err
		}
		*added = append(*added, newCD.Address)
		out = append(out, newCD)
	}
	return out, true, nil
}

func refreshBranch(ctx context.Context, s store.Store, order flake.Order, cmp func(a, b flake.Flake) int, snapshot []flake.Flake, cd serde.ChildDescriptor, t int64, cfg Config, garbage, added *[]store.Address) ([]serde.ChildDescriptor, bool, error) {
	data, err := s.Read(ctx, cd.Address)
	if err != nil {
		return nil, false, fmt.Errorf("indexer: read branch %s: %w", cd.Address, err)
	}
	children, err := serde.DecodeBranch(data)
	if err != nil {
		return nil, false, fmt.Errorf("indexer: decode branch %s: %w", cd.Address, err)
	}

	anyChanged := false
	newChildren := make([]serde.ChildDescriptor, 0, len(children))
	for _, child := range children {
		if !childInRange(cmp, child, cd.First, cd.RHS, snapshot) {
			newChildren = append(newChildren, child)
			continue
		}
		replaced, changed, err := refreshNode(ctx, s, order, cmp, snapshot, child, t, cfg, garbage, added)
		if err != nil {
			return nil, false, err
		}
		if changed {
			anyChanged = true
		}
		newChildren = append(newChildren, replaced...)
	}

	if !anyChanged {
		return []serde.ChildDescriptor{cd}, false, nil
	}
	*garbage = append(*garbage, cd.Address)

	if len(newChildren) == 0 {
		return nil, true, nil
	}

	chunks := splitChildren(newChildren, cfg.OverflowBranchChildren)
	out := make([]serde.ChildDescriptor, 0, len(chunks))
	for _, chunk := range chunks {
		newCD, err := writeBranch(ctx, s, chunk)
		if err != nil {
			return nil, false, err
		}
		*added = append(*added, newCD.Address)
		out = append(out, newCD)
	}
	return out, true, nil
}

// childInRange is a cheap pre-check so a branch only descends into
// children whose range could possibly contain novelty; a child with no
// novelty at all in its span is skipped without ever being read.
func childInRange(cmp func(a, b flake.Flake) int, child serde.ChildDescriptor, _ flake.Flake, _ *flake.Flake, snapshot []flake.Flake) bool {
	return len(novelty.Range(snapshot, cmp, child.First, child.RHS)) > 0
}

func writeLeaf(ctx context.Context, s store.Store, flakes []flake.Flake, rhs *flake.Flake) (serde.ChildDescriptor, error) {
	data, err := serde.EncodeLeaf(flakes)
	if err != nil {
		return serde.ChildDescriptor{}, fmt.Errorf("indexer: encode leaf: %w", err)
	}
	wr, err := s.Write(ctx, "fluree:index/leaf", data)
	if err != nil {
		return serde.ChildDescriptor{}, fmt.Errorf("indexer: write leaf: %w", err)
	}
	var first flake.Flake
	if len(flakes) > 0 {
		first = flakes[0]
	}
	return serde.ChildDescriptor{Address: wr.Address, Leaf: true, First: first, RHS: rhs, Size: len(flakes)}, nil
}

func writeBranch(ctx context.Context, s store.Store, children []serde.ChildDescriptor) (serde.ChildDescriptor, error) {
	data, err := serde.EncodeBranch(children)
	if err != nil {
		return serde.ChildDescriptor{}, fmt.Errorf("indexer: encode branch: %w", err)
	}
	wr, err := s.Write(ctx, "fluree:index/branch", data)
	if err != nil {
		return serde.ChildDescriptor{}, fmt.Errorf("indexer: write branch: %w", err)
	}
	size := 0
	for _, c := range children {
		size += c.Size
	}
	return serde.ChildDescriptor{
		Address: wr.Address,
		Leaf:    false,
		First:   children[0].First,
		RHS:     children[len(children)-1].RHS,
		Size:    size,
	}, nil
}

// collapseToOne wraps a set of sibling root descriptors (produced when
// the top of the tree itself overflowed and split) in one more branch
// level, growing the tree's height by one — standard B-tree growth. The
// single-descriptor case passes its lone child through unchanged, so it
// contributes nothing new to added (that child was already recorded, or
// predates this refresh entirely).
func collapseToOne(ctx context.Context, s store.Store, descriptors []serde.ChildDescriptor, added *[]store.Address) (serde.ChildDescriptor, error) {
	switch len(descriptors) {
	case 0:
		cd, err := writeLeaf(ctx, s, nil, nil)
		if err != nil {
			return serde.ChildDescriptor{}, err
		}
		*added = append(*added, cd.Address)
		return cd, nil
	case 1:
		return descriptors[0], nil
	default:
		cd, err := writeBranch(ctx, s, descriptors)
		if err != nil {
			return serde.ChildDescriptor{}, err
		}
		*added = append(*added, cd.Address)
		return cd, nil
	}
}
