package cuckoo

import (
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// DefaultFilterCapacity is the entry count a fresh chain link is sized
// for before a new one is appended on overflow.
const DefaultFilterCapacity = 100_000

// Chain is a branch's ordered cuckoo filter chain (spec §4.7): a
// growing list of fixed-capacity filters, each recording addresses
// referenced by some index root this branch has held since the chain's
// base t. Membership is the union across all filters in the chain.
type Chain struct {
	T       int64
	filters []*Filter
}

// NewChain starts an empty chain at t.
func NewChain(t int64) *Chain {
	return &Chain{T: t, filters: []*Filter{NewFilter(DefaultFilterCapacity)}}
}

// Add records addr as referenced, appending a new filter to the chain if
// every existing filter is full (spec §4.7: "append a fresh filter on
// overflow rather than resizing in place").
func (c *Chain) Add(addr store.Address) {
	for _, f := range c.filters {
		if f.Add(addr) {
			return
		}
	}
	fresh := NewFilter(DefaultFilterCapacity)
	fresh.Add(addr)
	c.filters = append(c.filters, fresh)
}

// Contains reports whether any filter in the chain claims addr as a
// member.
func (c *Chain) Contains(addr store.Address) bool {
	for _, f := range c.filters {
		if f.Contains(addr) {
			return true
		}
	}
	return false
}

// Remove drops one occurrence of addr from whichever filter holds it.
func (c *Chain) Remove(addr store.Address) bool {
	for _, f := range c.filters {
		if f.Remove(addr) {
			return true
		}
	}
	return false
}

// Prune drops filters that have gone empty, per spec §4.7: a filter
// that has had every member it ever held removed is no longer needed and
// is dropped from the chain rather than kept around empty. The first
// filter is never pruned, so Add always has somewhere to insert into.
func (c *Chain) Prune() {
	if len(c.filters) <= 1 {
		return
	}
	kept := c.filters[:1]
	for _, f := range c.filters[1:] {
		if !f.Empty() {
			kept = append(kept, f)
		}
	}
	c.filters = kept
}

// ToWire renders the chain as its persisted shape.
func (c *Chain) ToWire() serde.CuckooChain {
	filters := make([]serde.CuckooFilter, len(c.filters))
	for i, f := range c.filters {
		filters[i] = f.ToWire()
	}
	return serde.CuckooChain{Version: 2, T: c.T, Filters: filters}
}

// ChainFromWire reconstructs a Chain from its persisted shape.
func ChainFromWire(w serde.CuckooChain) *Chain {
	c := &Chain{T: w.T, filters: make([]*Filter, len(w.Filters))}
	for i, fw := range w.Filters {
		c.filters[i] = FromWire(fw)
	}
	if len(c.filters) == 0 {
		c.filters = []*Filter{NewFilter(DefaultFilterCapacity)}
	}
	return c
}
