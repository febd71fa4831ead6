// Package commit implements the commit chain and branch-head advance of
// spec §3.5/§3.6/§4.6: content-addressed commit records linked by
// PrevCommit, and a single CAS-updated pointer per branch.
package commit

import (
	"context"
	"fmt"

	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// New builds and writes a commit record, chaining it to prev (nil for a
// ledger's first commit), and returns the new commit's address.
func New(ctx context.Context, s store.Store, alias string, when serde.Commit, prev *store.Address) (store.Address, error) {
	when.PrevCommit = prev
	data, err := serde.EncodeCommit(when)
	if err != nil {
		return "", fmt.Errorf("commit: encode: %w", err)
	}
	wr, err := s.Write(ctx, fmt.Sprintf("fluree:commit/%s", alias), data)
	if err != nil {
		return "", fmt.Errorf("commit: write: %w", err)
	}
	return wr.Address, nil
}

// Load reads and decodes the commit record at addr.
func Load(ctx context.Context, s store.Store, addr store.Address) (serde.Commit, error) {
	data, err := s.Read(ctx, addr)
	if err != nil {
		return serde.Commit{}, fmt.Errorf("commit: read %s: %w", addr, err)
	}
	c, err := serde.DecodeCommit(data)
	if err != nil {
		return serde.Commit{}, fmt.Errorf("commit: decode %s: %w", addr, err)
	}
	return c, nil
}

// History walks PrevCommit pointers from head back to the ledger's
// first commit, nearest-first (spec §6: "history() walks the commit
// chain").
func History(ctx context.Context, s store.Store, head store.Address) ([]serde.Commit, error) {
	var out []serde.Commit
	addr := &head
	for addr != nil {
		c, err := Load(ctx, s, *addr)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		addr = c.PrevCommit
	}
	return out, nil
}
