// Package novelty implements the per-index-order novelty buffer of spec
// §3.4: an in-memory, comparator-ordered accumulator of flakes added or
// retracted since the most recent refresh.
package novelty

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fluree/db-sub010/internal/flake"
)

// Buffer is a single index order's novelty: a sorted, size-accounted set
// of flakes not yet folded into the persisted tree. Add copies the
// underlying slice (rather than mutating it in place) so a Snapshot taken
// by a concurrent reader remains a consistent, unaffected view — the
// "structural sharing of the sorted sets" described in spec §5.
type Buffer struct {
	mu    sync.RWMutex
	order flake.Order
	cmp   func(a, b flake.Flake) int
	items []flake.Flake
	bytes int64
}

// New creates an empty novelty buffer for the given index order.
func New(order flake.Order) *Buffer {
	return &Buffer{order: order, cmp: flake.Comparator(order)}
}

// approxSize is a cheap byte-size estimate for novelty accounting,
// spec §3.4 only requires that it be used consistently to trigger
// refresh, not that it be exact.
func approxSize(f flake.Flake) int64 {
	const overhead = 48 // fixed per-flake bookkeeping (t, op, pointers)
	size := int64(overhead) + int64(len(f.S.Local)) + int64(len(f.P.Local))
	switch v := f.O.(type) {
	case flake.SID:
		size += int64(len(v.Local))
	case string:
		size += int64(len(v))
	default:
		size += 8
	}
	for k, v := range f.M {
		size += int64(len(k)) + int64(len(fmt.Sprint(v)))
	}
	return size
}

// Add inserts f into the buffer in comparator order. Per spec §4.1, a
// flake that compares equal on (s,p,o,dt) to an existing entry but carries
// a later T supersedes it in novelty's view during merge (handled by
// index.MergeLiveView, not by Add — Add keeps every revision so history is
// reconstructible from novelty until it is folded into the tree).
func (b *Buffer) Add(f flake.Flake) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := sort.Search(len(b.items), func(i int) bool { return b.cmp(b.items[i], f) >= 0 })
	next := make([]flake.Flake, 0, len(b.items)+1)
	next = append(next, b.items[:idx]...)
	next = append(next, f)
	next = append(next, b.items[idx:]...)
	b.items = next
	b.bytes += approxSize(f)
}

// Bytes returns the current size-accounting total, used to trigger
// refresh (spec §4.5: reindex-min-bytes / reindex-max-bytes).
func (b *Buffer) Bytes() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bytes
}

// Len returns the number of flakes currently buffered.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Snapshot returns the current buffer contents. The returned slice is
// never mutated in place by subsequent Add calls (see Add), so it is safe
// for a reader to retain without further locking.
func (b *Buffer) Snapshot() []flake.Flake {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.items
}

// Range returns the subset of the snapshot falling in the half-open
// interval [lo, hi) per this buffer's comparator, where a nil hi means
// unbounded. Used by index resolution (spec §4.4) to pull the novelty
// slice belonging to one leaf's key range.
func Range(snapshot []flake.Flake, cmp func(a, b flake.Flake) int, lo flake.Flake, hi *flake.Flake) []flake.Flake {
	start := sort.Search(len(snapshot), func(i int) bool { return cmp(snapshot[i], lo) >= 0 })
	end := len(snapshot)
	if hi != nil {
		end = sort.Search(len(snapshot), func(i int) bool { return cmp(snapshot[i], *hi) >= 0 })
	}
	if start >= end {
		return nil
	}
	return snapshot[start:end]
}

// Clear empties the buffer. Spec §3.4: "When refresh folds novelty into a
// tree and succeeds, novelty for that tree is cleared atomically" — the
// caller is responsible for calling Clear only after the new root has
// been durably written (spec §4.5 "Atomicity").
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.bytes = 0
}

// Order returns the index order this buffer accumulates for.
func (b *Buffer) Order() flake.Order { return b.order }
