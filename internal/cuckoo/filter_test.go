package cuckoo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/store"
)

func addrs(n int) []store.Address {
	out := make([]store.Address, n)
	for i := range out {
		out[i] = store.BuildAddress("fluree:memory", "leaf", []byte(fmt.Sprintf("payload-%d", i)))
	}
	return out
}

func TestFilterAddAndContains(t *testing.T) {
	f := NewFilter(100)
	all := addrs(50)
	for _, a := range all {
		require.True(t, f.Add(a))
	}
	for _, a := range all {
		assert.True(t, f.Contains(a))
	}
}

func TestFilterContainsFalseForUnadded(t *testing.T) {
	f := NewFilter(100)
	f.Add(addrs(1)[0])
	other := store.BuildAddress("fluree:memory", "leaf", []byte("never-added"))
	assert.False(t, f.Contains(other))
}

func TestFilterRemoveThenNotContains(t *testing.T) {
	f := NewFilter(100)
	a := addrs(1)[0]
	require.True(t, f.Add(a))
	require.True(t, f.Remove(a))
	assert.False(t, f.Contains(a))
	assert.True(t, f.Empty())
}

func TestFilterWireRoundTrip(t *testing.T) {
	f := NewFilter(16)
	all := addrs(5)
	for _, a := range all {
		require.True(t, f.Add(a))
	}
	w := f.ToWire()
	got := FromWire(w)
	for _, a := range all {
		assert.True(t, got.Contains(a))
	}
}

func TestChainOverflowsToNewFilter(t *testing.T) {
	c := &Chain{T: 1, filters: []*Filter{NewFilter(4)}}
	all := addrs(40)
	for _, a := range all {
		c.Add(a)
	}
	assert.Greater(t, len(c.filters), 1)
	for _, a := range all {
		assert.True(t, c.Contains(a))
	}
}

func TestChainPruneDropsEmptyTrailingFilters(t *testing.T) {
	c := &Chain{T: 1, filters: []*Filter{NewFilter(4)}}
	all := addrs(40)
	for _, a := range all {
		c.Add(a)
	}
	require.Greater(t, len(c.filters), 1)
	for _, a := range all {
		c.Remove(a)
	}
	c.Prune()
	assert.Len(t, c.filters, 1)
}

func TestSweepRetainsAddressClaimedByOtherBranch(t *testing.T) {
	shared := addrs(1)[0]
	other := NewChain(1)
	other.Add(shared)

	deletable, retained := Sweep([]store.Address{shared}, []*Chain{other})
	assert.Empty(t, deletable)
	assert.Equal(t, []store.Address{shared}, retained)
}

func TestSweepDeletesAddressNotClaimedByAnyBranch(t *testing.T) {
	orphan := store.BuildAddress("fluree:memory", "leaf", []byte("orphan"))
	other := NewChain(1)
	other.Add(store.BuildAddress("fluree:memory", "leaf", []byte("still-referenced")))

	deletable, retained := Sweep([]store.Address{orphan}, []*Chain{other})
	assert.Empty(t, retained)
	assert.Equal(t, []store.Address{orphan}, deletable)
}
