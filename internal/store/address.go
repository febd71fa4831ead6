// Package store implements the content-addressed byte-blob repository of
// spec §4.3: addresses of the form fluree:<location>:<path>/<hash>.json,
// where <hash> is the base32 encoding of the SHA-256 of the serialized
// payload.
//
// The address-hashing scheme is adapted from the teacher repository's
// content-hashing identifier generator (internal/idgen/hash.go), which
// hashes a content string with SHA-256 and encodes the digest in a dense
// alphabet for a short, stable ID. Here the "content string" is the raw
// serialized node payload, the full digest is kept (not truncated, since
// these are storage addresses, not display IDs), and the alphabet is
// standard base32 so the same encoding doubles as the cuckoo filter
// fingerprint source described in spec §4.7.
package store

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// HashBytes returns the raw SHA-256 digest of content.
func HashBytes(content []byte) [32]byte {
	return sha256.Sum256(content)
}

// EncodeBase32 encodes a digest the way storage addresses and cuckoo
// filter fingerprints do: unpadded, uppercase-free standard base32.
func EncodeBase32(digest []byte) string {
	return strings.ToLower(b32.EncodeToString(digest))
}

// DecodeBase32 reverses EncodeBase32.
func DecodeBase32(s string) ([]byte, error) {
	return b32.DecodeString(strings.ToUpper(s))
}

// Address identifies a stored blob: fluree:<location>:<path>/<hash>.json.
type Address string

// BuildAddress derives the content address for payload under the given
// location scheme and path prefix (e.g. "fluree:file" + "mydb/main/index").
func BuildAddress(location, pathPrefix string, payload []byte) Address {
	digest := HashBytes(payload)
	hash := EncodeBase32(digest[:])
	path := pathPrefix
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return Address(fmt.Sprintf("%s:%s%s.json", location, path, hash))
}

// Hash extracts the base32 hash segment from an address, if present.
func (a Address) Hash() (string, bool) {
	s := string(a)
	slash := strings.LastIndex(s, "/")
	var tail string
	if slash < 0 {
		colon := strings.LastIndex(s, ":")
		if colon < 0 {
			return "", false
		}
		tail = s[colon+1:]
	} else {
		tail = s[slash+1:]
	}
	tail = strings.TrimSuffix(tail, ".json")
	if tail == "" {
		return "", false
	}
	return tail, true
}
