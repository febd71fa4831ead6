package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fluree/db-sub010/internal/commit"
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

// Insert stages flakes for the in-progress transaction (spec §6:
// "insert/upsert/update produce a staged db"). Staged flakes are not
// visible to queries or folded into novelty until Commit assigns them a
// t; multiple Insert/Upsert calls before a Commit accumulate into one
// transaction.
func (l *Ledger) Insert(flakes ...flake.Flake) {
	l.pending = append(l.pending, flakes...)
}

// Upsert stages, for each of flakes, a retraction of every flake currently
// live for that flake's subject and predicate (whatever its object or
// datatype), followed by the new assertion — the spec §6 upsert semantics
// ("replace whatever this subject/predicate currently holds"). The prior
// values are looked up against the current Db.
func (l *Ledger) Upsert(ctx context.Context, flakes ...flake.Flake) error {
	db, err := l.Current(ctx)
	if err != nil {
		return err
	}
	for _, f := range flakes {
		existing, err := db.CurrentValues(ctx, f.S, f.P)
		if err != nil {
			return err
		}
		for _, old := range existing {
			l.pending = append(l.pending, flake.Create(old.S, old.P, old.O, old.Dt, 0, false, nil))
		}
		l.pending = append(l.pending, f)
	}
	return nil
}

// CommitOptions carries the optional fields of a commit record (spec
// §6, enriched per SPEC_FULL.md with message/author).
type CommitOptions struct {
	Message *string
	Author  *flake.SID
	Time    time.Time
}

// Commit finalizes the staged transaction: assigns it the next t,
// folds the staged flakes into every order's novelty buffer, writes a
// commit record chained to the branch's previous head, writes a root
// checkpoint referencing the (still unrefreshed) trees, and
// CAS-advances the branch head. If novelty has crossed
// Config.ReindexMinBytes afterward, it triggers a refresh so the new
// root's Trees reflect the fold rather than leaving it for a later
// caller (spec §4.5's refresh trigger, applied eagerly here rather than
// on a background schedule — see DESIGN.md).
func (l *Ledger) Commit(ctx context.Context, opts CommitOptions) (int64, error) {
	if len(l.pending) == 0 {
		return l.t, nil
	}
	newT := l.t + 1

	staged := make([]flake.Flake, len(l.pending))
	for i, f := range l.pending {
		staged[i] = flake.Create(f.S, f.P, f.O, f.Dt, newT, f.Op, f.M)
	}
	l.pending = nil

	for _, order := range allOrders {
		for _, f := range staged {
			l.novelty[order].Add(f)
		}
	}

	dataBytes, err := serde.EncodeLeaf(staged)
	if err != nil {
		return 0, fmt.Errorf("ledger: encode commit data: %w", err)
	}
	dataWR, err := l.store.Write(ctx, fmt.Sprintf("fluree:commit/%s/data", l.Alias), dataBytes)
	if err != nil {
		return 0, fmt.Errorf("ledger: write commit data: %w", err)
	}

	if err := l.maybeRefresh(ctx, newT); err != nil {
		return 0, err
	}

	rootAddr, err := l.writeRootCheckpoint(ctx, newT)
	if err != nil {
		return 0, err
	}

	when := opts.Time
	if when.IsZero() {
		when = time.Now().UTC()
	}
	c := serde.Commit{
		T:       newT,
		Time:    when,
		Data:    serde.DataDescriptor{Address: dataWR.Address, Hash: dataWR.Hash},
		Index:   &rootAddr,
		Message: opts.Message,
		Author:  opts.Author,
	}
	commitAddr, err := commit.New(ctx, l.store, l.Alias, c, l.headCommit)
	if err != nil {
		return 0, err
	}

	if err := commit.Advance(ctx, l.store, l.Alias, l.Branch, l.headCommit, &commitAddr); err != nil {
		return 0, err
	}

	l.t = newT
	l.headCommit = &commitAddr
	return newT, nil
}

// maybeRefresh folds each order's novelty into its tree once it crosses
// the configured refresh threshold (spec §4.5). Every order's refresh
// output also feeds the branch's single cuckoo filter chain — newly
// written nodes are added, nodes the refresh made obsolete are removed
// (spec §4.7) — and the combined obsolete set across all refreshed
// orders is written as one garbage manifest at newT, so a later
// SweepGarbage call can reclaim it once no sibling branch still claims
// it. The chain itself is persisted once at the end, after every
// order's update has been folded in, rather than once per order.
func (l *Ledger) maybeRefresh(ctx context.Context, newT int64) error {
	var garbage []store.Address
	chainChanged := false
	for _, order := range allOrders {
		nov := l.novelty[order]
		if !l.cfg.ShouldRefresh(nov.Bytes()) {
			continue
		}
		key := fmt.Sprintf("%s/%s/%s", l.Alias, l.Branch, order)
		res, err := l.refresher.Refresh(ctx, key, order, nov, l.roots[order], newT)
		if err != nil {
			return fmt.Errorf("ledger: refresh %s: %w", order, err)
		}
		l.roots[order] = res.Root
		nov.Clear()

		for _, addr := range res.Added {
			l.cuckooChain.Add(addr)
		}
		for _, addr := range res.Garbage {
			l.cuckooChain.Remove(addr)
		}
		if len(res.Added) > 0 || len(res.Garbage) > 0 {
			chainChanged = true
		}
		garbage = append(garbage, res.Garbage...)
	}
	if !chainChanged {
		return nil
	}

	l.cuckooChain.Prune()
	if err := saveCuckooChain(ctx, l.store, l.Alias, l.Branch, l.cuckooChain); err != nil {
		return err
	}
	if err := saveGarbageManifest(ctx, l.store, l.Alias, l.Branch, newT, garbage); err != nil {
		return err
	}
	return nil
}

func (l *Ledger) writeRootCheckpoint(ctx context.Context, newT int64) (store.Address, error) {
	root := serde.Root{
		Trees:          l.roots,
		T:              newT,
		NamespaceCodes: l.namespaces.Snapshot(),
		PreviousIndex:  l.lastRoot,
	}
	data, err := serde.EncodeRoot(root)
	if err != nil {
		return "", fmt.Errorf("ledger: encode root: %w", err)
	}
	wr, err := l.store.Write(ctx, fmt.Sprintf("fluree:index/%s/root", l.Alias), data)
	if err != nil {
		return "", fmt.Errorf("ledger: write root: %w", err)
	}
	l.lastRoot = &wr.Address
	return wr.Address, nil
}
