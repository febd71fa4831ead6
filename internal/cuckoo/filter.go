// Package cuckoo implements the cross-branch garbage collection filters
// of spec §4.7: a chain of fixed-capacity cuckoo filters recording which
// node addresses are still referenced by some branch, so that an address
// orphaned by one branch's refresh can be safely reclaimed only once no
// other branch's filter chain still claims it.
package cuckoo

import (
	"hash/fnv"

	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

const (
	slotsPerBucket  = 4
	fingerprintBits = 16
	maxKicks        = 500
	loadFactor      = 0.95
)

// Filter is a single fixed-capacity cuckoo filter over store.Address
// membership (spec §4.7: "4-slot buckets, 16-bit fingerprints"). A
// fingerprint value of 0 is reserved to mean "empty slot", so derived
// fingerprints are remapped away from 0.
type Filter struct {
	buckets [][slotsPerBucket]uint16
	count   int
}

// NewFilter sizes a filter for capacity entries at the standard ~95%
// cuckoo load factor, rounding the bucket count up to a power of two (a
// cuckoo filter's alternate-bucket XOR trick requires it).
func NewFilter(capacity int) *Filter {
	if capacity < 1 {
		capacity = 1
	}
	numBuckets := nextPow2(int(float64(capacity)/slotsPerBucket/loadFactor) + 1)
	return &Filter{buckets: make([][slotsPerBucket]uint16, numBuckets)}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fingerprint derives a non-zero 16-bit fingerprint from addr's
// content-hash bytes (spec §4.7: "fingerprint derived from the node's
// base32-decoded SHA-256 address hash").
func fingerprint(addr store.Address) uint16 {
	hash, ok := addr.Hash()
	if !ok {
		hash = string(addr)
	}
	raw, err := store.DecodeBase32(hash)
	if err != nil || len(raw) < 2 {
		raw = []byte(hash)
	}
	fp := uint16(raw[0])<<8 | uint16(raw[1])
	if fp == 0 {
		fp = 1
	}
	return fp
}

func fnv1a(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

// primaryBucket and altBucket implement the standard partial-key cuckoo
// hashing scheme: the alternate bucket is the primary XORed with a hash
// of the fingerprint alone, so it can be recomputed from just the
// fingerprint without the original key (spec §4.7: "FNV-1a-based bucket
// hashing").
func (f *Filter) primaryBucket(addr store.Address) int {
	return int(fnv1a([]byte(addr))) % len(f.buckets)
}

func (f *Filter) altBucket(bucket int, fp uint16) int {
	fpHash := fnv1a([]byte{byte(fp >> 8), byte(fp)})
	return (bucket ^ int(fpHash)) % len(f.buckets)
}

// Add inserts addr, returning false if the filter is full (every
// candidate slot occupied after maxKicks evictions, in which case the
// filter's contents are left unchanged) — the caller should
// then append a new filter to the chain (spec §4.7: "append a fresh
// filter on overflow rather than resizing in place").
func (f *Filter) Add(addr store.Address) bool {
	fp := fingerprint(addr)
	b1 := f.primaryBucket(addr)
	b2 := f.altBucket(b1, fp)

	if f.insertInto(b1, fp) || f.insertInto(b2, fp) {
		f.count++
		return true
	}

	bucket := b1
	if pseudoRandomBit(fp) == 1 {
		bucket = b2
	}
	type kick struct{ bucket, slot int }
	path := make([]kick, 0, maxKicks)
	for i := 0; i < maxKicks; i++ {
		slot := pseudoRandomSlot(fp, i)
		evicted := f.buckets[bucket][slot]
		f.buckets[bucket][slot] = fp
		path = append(path, kick{bucket, slot})
		fp = evicted
		bucket = f.altBucket(bucket, fp)
		if f.insertInto(bucket, fp) {
			f.count++
			return true
		}
	}
	// Undo the evictions in reverse so a failed Add leaves every earlier
	// member where it was instead of dropping the last displaced one.
	for i := len(path) - 1; i >= 0; i-- {
		k := path[i]
		fp, f.buckets[k.bucket][k.slot] = f.buckets[k.bucket][k.slot], fp
	}
	return false
}

func (f *Filter) insertInto(bucket int, fp uint16) bool {
	for i, slot := range f.buckets[bucket] {
		if slot == 0 {
			f.buckets[bucket][i] = fp
			return true
		}
	}
	return false
}

// Contains reports whether addr may be a member (cuckoo filters, like
// Bloom filters, admit false positives but never false negatives — a GC
// sweep must never evict an address Contains reports true for, per
// scenario S6's retain-on-positive-membership safety rule).
func (f *Filter) Contains(addr store.Address) bool {
	fp := fingerprint(addr)
	b1 := f.primaryBucket(addr)
	b2 := f.altBucket(b1, fp)
	return bucketHas(f.buckets[b1], fp) || bucketHas(f.buckets[b2], fp)
}

func bucketHas(bucket [slotsPerBucket]uint16, fp uint16) bool {
	for _, slot := range bucket {
		if slot == fp {
			return true
		}
	}
	return false
}

// Remove deletes one occurrence of addr, if present.
func (f *Filter) Remove(addr store.Address) bool {
	fp := fingerprint(addr)
	b1 := f.primaryBucket(addr)
	if removeFrom(&f.buckets[b1], fp) {
		f.count--
		return true
	}
	b2 := f.altBucket(b1, fp)
	if removeFrom(&f.buckets[b2], fp) {
		f.count--
		return true
	}
	return false
}

func removeFrom(bucket *[slotsPerBucket]uint16, fp uint16) bool {
	for i, slot := range bucket {
		if slot == fp {
			bucket[i] = 0
			return true
		}
	}
	return false
}

// Empty reports whether the filter holds no entries (spec §4.7:
// "prune a filter from the chain once its count drops to zero").
func (f *Filter) Empty() bool { return f.count == 0 }

// ToWire renders f as its persisted shape.
func (f *Filter) ToWire() serde.CuckooFilter {
	buckets := make([][]uint16, len(f.buckets))
	for i, b := range f.buckets {
		buckets[i] = append([]uint16(nil), b[:]...)
	}
	return serde.CuckooFilter{FingerprintBits: fingerprintBits, Buckets: buckets, NumBuckets: len(f.buckets), Count: f.count}
}

// FromWire reconstructs a Filter from its persisted shape.
func FromWire(w serde.CuckooFilter) *Filter {
	f := &Filter{buckets: make([][slotsPerBucket]uint16, w.NumBuckets), count: w.Count}
	for i, b := range w.Buckets {
		if i >= len(f.buckets) {
			break
		}
		copy(f.buckets[i][:], b)
	}
	return f
}

func pseudoRandomBit(fp uint16) int {
	return int(fp) & 1
}

func pseudoRandomSlot(fp uint16, iteration int) int {
	return (int(fp) + iteration) % slotsPerBucket
}
