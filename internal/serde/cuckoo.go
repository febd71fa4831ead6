package serde

import (
	"encoding/json"
	"fmt"
)

// CuckooFilter is the wire (and storage) shape of one filter in a branch's
// cuckoo filter chain (spec §3.7, §6): fixed fingerprint width, a bucket
// table of up to 4 fingerprints each, and the number of entries currently
// held.
type CuckooFilter struct {
	FingerprintBits int      `json:"f"`
	Buckets         [][]uint16 `json:"buckets"`
	NumBuckets      int      `json:"numBuckets"`
	Count           int      `json:"count"`
}

// CuckooChain is the full per-branch filter chain (spec §4.7: "an ordered
// list of fixed-capacity cuckoo filters").
type CuckooChain struct {
	Version int            `json:"version"`
	T       int64          `json:"t"`
	Filters []CuckooFilter `json:"filters"`
}

// EncodeCuckooChain renders a filter chain payload.
func EncodeCuckooChain(c CuckooChain) ([]byte, error) {
	if c.Version == 0 {
		c.Version = 2
	}
	return json.Marshal(c)
}

// DecodeCuckooChain parses a filter chain payload.
func DecodeCuckooChain(data []byte) (CuckooChain, error) {
	var c CuckooChain
	if err := json.Unmarshal(data, &c); err != nil {
		return CuckooChain{}, fmt.Errorf("serde: decode cuckoo chain: %w", err)
	}
	return c, nil
}
