package index

import (
	"context"

	"github.com/fluree/db-sub010/internal/flake"
)

// Iterator is a pull-based cursor over a range scan (spec §5, §9: "replace
// coroutine-style generators with an explicit next()/cancel() iterator").
// Next advances and reports whether a flake was produced; Close releases
// any resources held by the scan (currently a no-op, since resolution
// holds no handles beyond the Store calls already made).
type Iterator interface {
	Next(ctx context.Context) (flake.Flake, bool, error)
	Close() error
}

// frame is one entry of the iterator's explicit DFS stack: either a
// resolved leaf with a cursor into its (already range-filtered) flakes,
// or an unresolved child descriptor still to be opened.
type frame struct {
	resolved   bool
	leafFlakes []flake.Flake
	idx        int
	child      ChildDescriptor
}

// rangeIterator walks a Tree in comparator order over [lo, hi), resolving
// branches and leaves lazily as the scan reaches them rather than
// pre-loading the whole tree.
type rangeIterator struct {
	tree    *Tree
	queryT  int64
	lo      flake.Flake
	hi      *flake.Flake
	stack   []frame
	closed  bool
}

// NewRangeIterator returns an Iterator over t yielding flakes in
// [lo, hi) live at queryT, in the tree's comparator order.
func NewRangeIterator(t *Tree, queryT int64, lo flake.Flake, hi *flake.Flake) Iterator {
	return &rangeIterator{
		tree:   t,
		queryT: queryT,
		lo:     lo,
		hi:     hi,
		stack:  []frame{{resolved: false, child: t.root}},
	}
}

func (it *rangeIterator) Close() error {
	it.closed = true
	it.stack = nil
	return nil
}

// Next pops work off the stack until it can produce a flake or the stack
// empties. A branch frame is replaced by its in-range children (pushed in
// reverse so the left-most child pops first, preserving comparator
// order); a leaf frame is resolved once and then drained flake by flake.
func (it *rangeIterator) Next(ctx context.Context) (flake.Flake, bool, error) {
	if it.closed {
		return flake.Flake{}, false, nil
	}
	for len(it.stack) > 0 {
		top := len(it.stack) - 1
		f := it.stack[top]

		if !f.resolved {
			if !childInRange(it.tree.cmp, f.child, it.lo, it.hi) {
				it.stack = it.stack[:top]
				continue
			}
			if f.child.Leaf {
				leaf, err := it.tree.resolveLeaf(ctx, f.child, it.queryT)
				if err != nil {
					return flake.Flake{}, false, err
				}
				filtered := rangeFilter(it.tree.cmp, leaf.Flakes, it.lo, it.hi)
				it.stack[top] = frame{resolved: true, leafFlakes: filtered, idx: 0}
				continue
			}
			branch, err := it.tree.resolveBranch(ctx, f.child)
			if err != nil {
				return flake.Flake{}, false, err
			}
			it.stack = it.stack[:top]
			for i := len(branch.Children) - 1; i >= 0; i-- {
				it.stack = append(it.stack, frame{resolved: false, child: branch.Children[i]})
			}
			continue
		}

		if f.idx >= len(f.leafFlakes) {
			it.stack = it.stack[:top]
			continue
		}
		next := f.leafFlakes[f.idx]
		it.stack[top].idx++
		return next, true, nil
	}
	return flake.Flake{}, false, nil
}

func rangeFilter(cmp func(a, b flake.Flake) int, flakes []flake.Flake, lo flake.Flake, hi *flake.Flake) []flake.Flake {
	out := make([]flake.Flake, 0, len(flakes))
	for _, fl := range flakes {
		if cmp(fl, lo) < 0 {
			continue
		}
		if hi != nil && cmp(fl, *hi) >= 0 {
			continue
		}
		out = append(out, fl)
	}
	return out
}
