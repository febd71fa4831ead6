package store

import (
	"context"
	"time"

	"github.com/fluree/db-sub010/internal/errs"
)

// WriteResult is returned by Write: the address assigned to the content,
// its hash, and its size in bytes (spec §4.3).
type WriteResult struct {
	Address Address
	Hash    string
	Size    int
}

// Store is an address-keyed byte blob repository (spec §4.3). Back-ends
// may be content-addressed (Write derives the address from a hash of the
// payload) or path-addressed (the caller supplies the path); both forms
// satisfy this interface. Index nodes and commits are content-addressed;
// branch heads, garbage manifests and cuckoo chains are written with
// WriteAt at fixed addresses.
type Store interface {
	// Write stores content at a content-derived address under pathPrefix.
	Write(ctx context.Context, pathPrefix string, content []byte) (WriteResult, error)
	// WriteAt stores content at an exact, caller-supplied address (used
	// for mutable pointers like branch heads that must be found again by
	// a known name rather than by hash).
	WriteAt(ctx context.Context, address Address, content []byte) error
	// Read retrieves the bytes at address. Returns an error wrapping
	// errs.ErrNotFound if absent.
	Read(ctx context.Context, address Address) ([]byte, error)
	// Delete removes address. Back-ends for which deletion is impossible
	// (e.g. truly immutable object storage) may treat this as a no-op.
	Delete(ctx context.Context, address Address) error
	// List enumerates addresses with the given prefix. The Memory and
	// Local back-ends list recursively, the same as ListRecursive.
	List(ctx context.Context, prefix string) ([]Address, error)
	// ListRecursive enumerates all addresses under prefix, for garbage
	// sweeping and branch discovery.
	ListRecursive(ctx context.Context, prefix string) ([]Address, error)
}

// RetryConfig governs exponential backoff retry of transient storage
// errors, mirroring the teacher's server-mode SQL retry
// (internal/storage/dolt/store.go's withRetry/newServerRetryBackoff): a
// capped exponential backoff run via cenkalti/backoff, stopping
// immediately on anything not classified as errs.ErrTransientIO.
type RetryConfig struct {
	MaxElapsed time.Duration
}

// DefaultRetryConfig matches the teacher's 30s server-mode retry window.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxElapsed: 30 * time.Second}
}

// location is the scheme prefix a back-end stamps into addresses it
// mints, e.g. "fluree:memory" or "fluree:file".
type location string

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errs.IsNotFound(err) || errs.IsTransientIO(err) {
		return err
	}
	return errs.Wrap("store", errs.StorageIO, errs.ErrPermanentIO)
}
