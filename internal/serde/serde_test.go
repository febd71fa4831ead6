package serde

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/store"
)

func sampleFlakes() []flake.Flake {
	alice := flake.SID{Namespace: 1, Local: "alice"}
	bob := flake.SID{Namespace: 1, Local: "bob"}
	name := flake.SID{Namespace: 2, Local: "name"}
	knows := flake.SID{Namespace: 2, Local: "knows"}
	age := flake.SID{Namespace: 2, Local: "age"}

	return []flake.Flake{
		flake.Create(alice, name, "Alice", flake.DtString, 1, true, nil),
		flake.Create(alice, age, int64(30), flake.DtInteger, 1, true, nil),
		flake.Create(alice, knows, bob, flake.DtID, 2, true, map[string]any{"lang": "en"}),
	}
}

func TestLeafRoundTrip(t *testing.T) {
	flakes := sampleFlakes()
	data, err := EncodeLeaf(flakes)
	require.NoError(t, err)

	got, err := DecodeLeaf(data)
	require.NoError(t, err)
	require.Len(t, got, len(flakes))
	for i := range flakes {
		assert.Equal(t, flakes[i].S, got[i].S)
		assert.Equal(t, flakes[i].P, got[i].P)
		assert.Equal(t, flakes[i].Dt, got[i].Dt)
		assert.Equal(t, flakes[i].O, got[i].O)
		assert.Equal(t, flakes[i].T, got[i].T)
		assert.Equal(t, flakes[i].Op, got[i].Op)
	}
	assert.Equal(t, "en", got[2].M["lang"])
}

func TestLeafV1LegacyRead(t *testing.T) {
	legacy := []byte(`{"version":1,"flakes":[[[1,"alice"],[2,"name"],"Alice",[0,"string"],1,true,null]]}`)
	got, err := DecodeLeaf(legacy)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].O)
}

func TestBranchRoundTrip(t *testing.T) {
	first := flake.Create(flake.SID{1, "a"}, flake.SID{2, "p"}, "x", flake.DtString, 1, true, nil)
	rhs := flake.Create(flake.SID{1, "z"}, flake.SID{2, "p"}, "y", flake.DtString, 1, true, nil)
	children := []ChildDescriptor{
		{Address: store.Address("fluree:memory:aaa.json"), Leaf: true, First: first, RHS: &rhs, Size: 10},
		{Address: store.Address("fluree:memory:bbb.json"), Leaf: false, First: rhs, RHS: nil, Size: 20},
	}

	data, err := EncodeBranch(children)
	require.NoError(t, err)

	got, err := DecodeBranch(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, children[0].Address, got[0].Address)
	assert.True(t, got[0].Leaf)
	assert.Equal(t, "x", got[0].First.O)
	require.NotNil(t, got[0].RHS)
	assert.Nil(t, got[1].RHS)
}

func TestRootRoundTrip(t *testing.T) {
	cd := ChildDescriptor{
		Address: store.Address("fluree:memory:root-spot.json"),
		Leaf:    true,
		First:   flake.Create(flake.SID{1, "a"}, flake.SID{2, "p"}, "x", flake.DtString, 1, true, nil),
		Size:    5,
	}
	addr := store.Address("fluree:memory:prev.json")
	r := Root{
		Trees:          map[flake.Order]ChildDescriptor{flake.SPOT: cd},
		T:              42,
		NamespaceCodes: map[string]int{"http://schema.org/": 1},
		PreviousIndex:  &addr,
		Stats:          Stats{FlakeCount: 100},
	}

	data, err := EncodeRoot(r)
	require.NoError(t, err)
	got, err := DecodeRoot(data)
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.T)
	assert.Equal(t, 1, got.NamespaceCodes["http://schema.org/"])
	require.Contains(t, got.Trees, flake.SPOT)
	assert.Equal(t, cd.Address, got.Trees[flake.SPOT].Address)
	require.NotNil(t, got.PreviousIndex)
	assert.Equal(t, addr, *got.PreviousIndex)
}

func TestGarbageRoundTrip(t *testing.T) {
	g := Garbage{Alias: "mydb/main", T: 7, Garbage: []store.Address{"fluree:memory:a.json", "fluree:memory:b.json"}}
	data, err := EncodeGarbage(g)
	require.NoError(t, err)
	got, err := DecodeGarbage(data)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestCommitRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	msg := "initial load"
	author := flake.SID{Namespace: 1, Local: "alice"}
	idx := store.Address("fluree:memory:root.json")
	c := Commit{
		T:      1,
		Time:   now,
		Data:   DataDescriptor{Address: "fluree:memory:data.json", Hash: "abc"},
		Index:  &idx,
		Message: &msg,
		Author: &author,
	}
	data, err := EncodeCommit(c)
	require.NoError(t, err)
	got, err := DecodeCommit(data)
	require.NoError(t, err)

	assert.Equal(t, c.T, got.T)
	assert.True(t, c.Time.Equal(got.Time))
	assert.Equal(t, c.Data, got.Data)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)
	require.NotNil(t, got.Author)
	assert.Equal(t, author, *got.Author)
}

func TestCuckooChainRoundTrip(t *testing.T) {
	c := CuckooChain{
		Version: 2,
		T:       3,
		Filters: []CuckooFilter{{FingerprintBits: 16, Buckets: [][]uint16{{1, 2, 0, 0}}, NumBuckets: 1, Count: 2}},
	}
	data, err := EncodeCuckooChain(c)
	require.NoError(t, err)
	got, err := DecodeCuckooChain(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
