package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/novelty"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

func mkFlake(local string, o any, dt flake.SID, t int64, op bool) flake.Flake {
	s := flake.SID{Namespace: 1, Local: local}
	p := flake.SID{Namespace: 2, Local: "name"}
	return flake.Create(s, p, o, dt, t, op, nil)
}

func writeLeaf(t *testing.T, s store.Store, flakes []flake.Flake) serde.ChildDescriptor {
	t.Helper()
	data, err := serde.EncodeLeaf(flakes)
	require.NoError(t, err)
	wr, err := s.Write(context.Background(), "fluree:memory", data)
	require.NoError(t, err)
	return serde.ChildDescriptor{
		Address: wr.Address,
		Leaf:    true,
		First:   flakes[0],
		Size:    len(flakes),
	}
}

func TestResolveLeafMergesNoveltyAssertion(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	persisted := []flake.Flake{mkFlake("alice", "Alice", flake.DtString, 1, true)}
	cd := writeLeaf(t, mem, persisted)

	nov := novelty.New(flake.SPOT)
	nov.Add(mkFlake("bob", "Bob", flake.DtString, 2, true))

	tr := Open(flake.SPOT, mem, nov, cd)
	leaf, err := tr.resolveLeaf(ctx, cd, 2)
	require.NoError(t, err)
	require.Len(t, leaf.Flakes, 2)
	assert.Equal(t, "alice", leaf.Flakes[0].S.Local)
	assert.Equal(t, "bob", leaf.Flakes[1].S.Local)
}

func TestResolveLeafAppliesNoveltyRetraction(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	persisted := []flake.Flake{mkFlake("alice", "Alice", flake.DtString, 1, true)}
	cd := writeLeaf(t, mem, persisted)

	nov := novelty.New(flake.SPOT)
	nov.Add(mkFlake("alice", "Alice", flake.DtString, 5, false))

	tr := Open(flake.SPOT, mem, nov, cd)
	leaf, err := tr.resolveLeaf(ctx, cd, 5)
	require.NoError(t, err)
	assert.Empty(t, leaf.Flakes)
}

func TestResolveLeafIgnoresNoveltyAfterQueryT(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	persisted := []flake.Flake{mkFlake("alice", "Alice", flake.DtString, 1, true)}
	cd := writeLeaf(t, mem, persisted)

	nov := novelty.New(flake.SPOT)
	nov.Add(mkFlake("alice", "Alice", flake.DtString, 9, false))

	tr := Open(flake.SPOT, mem, nov, cd)
	leaf, err := tr.resolveLeaf(ctx, cd, 5)
	require.NoError(t, err)
	require.Len(t, leaf.Flakes, 1)
	assert.Equal(t, "Alice", leaf.Flakes[0].O)
}

func TestRangeIteratorSingleLeafScan(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	persisted := []flake.Flake{
		mkFlake("alice", "Alice", flake.DtString, 1, true),
		mkFlake("bob", "Bob", flake.DtString, 1, true),
		mkFlake("carol", "Carol", flake.DtString, 1, true),
	}
	cd := writeLeaf(t, mem, persisted)

	tr := Open(flake.SPOT, mem, novelty.New(flake.SPOT), cd)
	it := NewRangeIterator(tr, 1, persisted[0], nil)
	defer it.Close()

	var names []string
	for {
		f, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, f.S.Local)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestRangeIteratorPrunesOutOfRangeBranchChild(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	leafA := []flake.Flake{mkFlake("alice", "Alice", flake.DtString, 1, true)}
	leafB := []flake.Flake{mkFlake("zed", "Zed", flake.DtString, 1, true)}
	cdA := writeLeaf(t, mem, leafA)
	cdB := writeLeaf(t, mem, leafB)

	branchData, err := serde.EncodeBranch([]serde.ChildDescriptor{cdA, cdB})
	require.NoError(t, err)
	wr, err := mem.Write(ctx, "fluree:memory", branchData)
	require.NoError(t, err)
	root := serde.ChildDescriptor{Address: wr.Address, Leaf: false, First: cdA.First}

	tr := Open(flake.SPOT, mem, novelty.New(flake.SPOT), root)
	hi := mkFlake("m", nil, flake.DtString, 1, true)
	it := NewRangeIterator(tr, 1, leafA[0], &hi)
	defer it.Close()

	f, ok, err := it.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", f.S.Local)

	_, ok, err = it.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "zed leaf is past hi and must not be resolved")
}

func TestLiveViewIndependentOfRefreshHistory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	persisted := []flake.Flake{mkFlake("alice", "Alice", flake.DtString, 1, true)}
	cd := writeLeaf(t, mem, persisted)

	nov := novelty.New(flake.SPOT)
	nov.Add(mkFlake("alice", "Alice2", flake.DtString, 2, true))

	tr := Open(flake.SPOT, mem, nov, cd)
	leaf, err := tr.resolveLeaf(ctx, cd, 2)
	require.NoError(t, err)
	require.Len(t, leaf.Flakes, 1)
	assert.Equal(t, "Alice2", leaf.Flakes[0].O, "later revision wins regardless of whether it has been folded by refresh yet")
}
