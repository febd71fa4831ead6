package novelty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
)

func f(local string, t int64, op bool) flake.Flake {
	s := flake.SID{Namespace: 1, Local: local}
	p := flake.SID{Namespace: 2, Local: "name"}
	return flake.Create(s, p, local, flake.DtString, t, op, nil)
}

func TestAddKeepsComparatorOrder(t *testing.T) {
	b := New(flake.SPOT)
	b.Add(f("carol", 1, true))
	b.Add(f("alice", 1, true))
	b.Add(f("bob", 1, true))

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "alice", snap[0].S.Local)
	assert.Equal(t, "bob", snap[1].S.Local)
	assert.Equal(t, "carol", snap[2].S.Local)
}

func TestBytesAccumulates(t *testing.T) {
	b := New(flake.SPOT)
	assert.Zero(t, b.Bytes())
	b.Add(f("alice", 1, true))
	assert.Positive(t, b.Bytes())
}

func TestSnapshotIsUnaffectedByLaterAdds(t *testing.T) {
	b := New(flake.SPOT)
	b.Add(f("alice", 1, true))
	snap := b.Snapshot()

	b.Add(f("bob", 1, true))

	assert.Len(t, snap, 1)
	assert.Len(t, b.Snapshot(), 2)
}

func TestClearResetsBufferAtomically(t *testing.T) {
	b := New(flake.SPOT)
	b.Add(f("alice", 1, true))
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Zero(t, b.Bytes())
}

func TestRangeFiltersByComparatorBounds(t *testing.T) {
	cmp := flake.Comparator(flake.SPOT)
	items := []flake.Flake{f("alice", 1, true), f("bob", 1, true), f("carol", 1, true)}

	hi := f("carol", 1, true)
	got := Range(items, cmp, f("alice", 1, true), &hi)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].S.Local)
	assert.Equal(t, "bob", got[1].S.Local)
}
