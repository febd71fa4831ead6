package commit

import (
	"context"
	"fmt"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// HeadAddress is the well-known, non-content-addressed location of a
// branch's head pointer (spec §3.6: "the branch head is a single mutable
// pointer, found by name rather than by hash").
func HeadAddress(alias, branch string) store.Address {
	return store.Address(fmt.Sprintf("fluree:head:%s/%s/head.json", alias, branch))
}

// ReadHead returns the branch's current head commit address, and
// (nil, nil) if the branch has never been committed to.
func ReadHead(ctx context.Context, s store.Store, alias, branch string) (*store.Address, error) {
	data, err := s.Read(ctx, HeadAddress(alias, branch))
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("commit: read head %s/%s: %w", alias, branch, err)
	}
	h, err := serde.DecodeBranchHead(data)
	if err != nil {
		return nil, fmt.Errorf("commit: decode head %s/%s: %w", alias, branch, err)
	}
	return &h.Commit, nil
}

// Advance performs the branch head's compare-and-swap (spec §4.6,
// §5: "single writer per branch; a concurrent writer that observes a
// stale head must retry against the new one"). expectedPrev must match
// the head's current commit address (nil meaning "branch has no commits
// yet"); on mismatch it returns an error wrapping errs.ErrConflict and
// the caller should reload the head and recompute its transaction
// against it rather than blindly retrying with the same commit.
func Advance(ctx context.Context, s store.Store, alias, branch string, expectedPrev, newCommit *store.Address) error {
	current, err := ReadHead(ctx, s, alias, branch)
	if err != nil {
		return err
	}
	if !addrEqual(current, expectedPrev) {
		return errs.WithField(errs.WithField(
			errs.Wrap(fmt.Sprintf("commit: advance %s/%s", alias, branch), errs.Consistency, errs.ErrConflict),
			"expected", addrString(expectedPrev)), "observed", addrString(current))
	}

	data, err := serde.EncodeBranchHead(serde.BranchHead{Branch: branch, Commit: *newCommit})
	if err != nil {
		return fmt.Errorf("commit: encode head %s/%s: %w", alias, branch, err)
	}
	if err := s.WriteAt(ctx, HeadAddress(alias, branch), data); err != nil {
		return fmt.Errorf("commit: write head %s/%s: %w", alias, branch, err)
	}
	return nil
}

func addrEqual(a, b *store.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func addrString(a *store.Address) string {
	if a == nil {
		return "<none>"
	}
	return string(*a)
}
