package ledger

import (
	"context"
	"fmt"

	"github.com/fluree/db-sub010/internal/cuckoo"
	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// cuckooChainAddress is the well-known, non-content-addressed location
// of a branch's cuckoo filter chain (spec §4.7: "<alias>/index/cuckoo/
// <branch>.json"), mirroring commit.HeadAddress's mutable-pointer
// scheme rather than content-addressing, since the chain is read back
// by branch name and rewritten in place on every refresh.
func cuckooChainAddress(alias, branch string) store.Address {
	return store.Address(fmt.Sprintf("fluree:cuckoo:%s/index/cuckoo/%s.json", alias, branch))
}

// garbageManifestAddress is the location of the manifest a single
// refresh at t writes (spec §4.6/§4.7 step 1: "read the garbage
// manifest for that root"). Named by (alias, branch, t) rather than
// content-addressed so a later sweep can find it without a separate
// index of past refreshes.
func garbageManifestAddress(alias, branch string, t int64) store.Address {
	return store.Address(fmt.Sprintf("fluree:garbage:%s/%s/%d.json", alias, branch, t))
}

// loadCuckooChain reads the branch's persisted filter chain, or starts a
// fresh one at t if none has ever been written (a brand new branch, or
// one that has never crossed a refresh threshold).
func loadCuckooChain(ctx context.Context, s store.Store, alias, branch string, t int64) (*cuckoo.Chain, error) {
	data, err := s.Read(ctx, cuckooChainAddress(alias, branch))
	if errs.IsNotFound(err) {
		return cuckoo.NewChain(t), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read cuckoo chain %s/%s: %w", alias, branch, err)
	}
	wire, err := serde.DecodeCuckooChain(data)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode cuckoo chain %s/%s: %w", alias, branch, err)
	}
	return cuckoo.ChainFromWire(wire), nil
}

// saveCuckooChain persists c at its branch's well-known location,
// overwriting whatever chain state was there before.
func saveCuckooChain(ctx context.Context, s store.Store, alias, branch string, c *cuckoo.Chain) error {
	data, err := serde.EncodeCuckooChain(c.ToWire())
	if err != nil {
		return fmt.Errorf("ledger: encode cuckoo chain %s/%s: %w", alias, branch, err)
	}
	if err := s.WriteAt(ctx, cuckooChainAddress(alias, branch), data); err != nil {
		return fmt.Errorf("ledger: write cuckoo chain %s/%s: %w", alias, branch, err)
	}
	return nil
}

// saveGarbageManifest persists the addresses a refresh at t made
// obsolete, across every sort order, so a later cross-branch sweep can
// read them back by (alias, branch, t) without re-running the refresh.
// A refresh that produced no garbage (nothing overflowed or emptied)
// writes nothing.
func saveGarbageManifest(ctx context.Context, s store.Store, alias, branch string, t int64, addrs []store.Address) error {
	if len(addrs) == 0 {
		return nil
	}
	data, err := serde.EncodeGarbage(serde.Garbage{Alias: alias, T: t, Garbage: addrs})
	if err != nil {
		return fmt.Errorf("ledger: encode garbage manifest %s/%s@%d: %w", alias, branch, t, err)
	}
	if err := s.WriteAt(ctx, garbageManifestAddress(alias, branch, t), data); err != nil {
		return fmt.Errorf("ledger: write garbage manifest %s/%s@%d: %w", alias, branch, t, err)
	}
	return nil
}

// loadGarbageManifest reads back the manifest saveGarbageManifest wrote
// for (alias, branch, t), or (nil, nil) if that refresh produced no
// garbage (or t was never refreshed at all).
func loadGarbageManifest(ctx context.Context, s store.Store, alias, branch string, t int64) (*serde.Garbage, error) {
	data, err := s.Read(ctx, garbageManifestAddress(alias, branch, t))
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read garbage manifest %s/%s@%d: %w", alias, branch, t, err)
	}
	g, err := serde.DecodeGarbage(data)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode garbage manifest %s/%s@%d: %w", alias, branch, t, err)
	}
	return &g, nil
}

// SweepGarbage runs the cross-branch GC sweep of spec §4.7 for the
// manifest this ledger's branch wrote at t: load every other branch's
// cuckoo chain, keep whatever any of them still claims, and delete the
// rest via a cuckoo.Sweeper. otherBranches names the alias's sibling
// branches (e.g. from Meta.KnownBranches, excluding this one); a branch
// with no persisted chain yet (never refreshed) is treated as claiming
// nothing.
func (l *Ledger) SweepGarbage(ctx context.Context, t int64, otherBranches []string) (deleted, retained int, err error) {
	manifest, err := loadGarbageManifest(ctx, l.store, l.Alias, l.Branch, t)
	if err != nil {
		return 0, 0, err
	}
	if manifest == nil {
		return 0, 0, nil
	}

	chains := make([]*cuckoo.Chain, 0, len(otherBranches))
	for _, b := range otherBranches {
		c, err := loadCuckooChain(ctx, l.store, l.Alias, b, t)
		if err != nil {
			return 0, 0, err
		}
		chains = append(chains, c)
	}

	sweeper := &cuckoo.Sweeper{Store: l.store}
	kept, err := sweeper.Collect(ctx, manifest.Garbage, chains)
	if err != nil {
		return 0, 0, err
	}
	if err := l.store.Delete(ctx, garbageManifestAddress(l.Alias, l.Branch, t)); err != nil {
		return 0, 0, fmt.Errorf("ledger: delete garbage manifest %s/%s@%d: %w", l.Alias, l.Branch, t, err)
	}
	return len(manifest.Garbage) - len(kept), len(kept), nil
}
