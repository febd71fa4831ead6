package cuckoo

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluree/db-sub010/internal/store"
)

// Sweep partitions a refresh's candidate garbage addresses into those
// safe to reclaim and those that must be retained, per spec §4.7's
// cross-branch safety rule: an address is only reclaimed if it is not a
// member of any other branch's filter chain. Because a cuckoo filter can
// false-positive but never false-negative, this can only ever over-
// retain, never under-retain — scenario S6's guarantee that a segment
// still shared by a diverging branch is never deleted out from under it.
func Sweep(candidates []store.Address, otherBranches []*Chain) (deletable, retained []store.Address) {
	for _, addr := range candidates {
		claimed := false
		for _, chain := range otherBranches {
			if chain.Contains(addr) {
				claimed = true
				break
			}
		}
		if claimed {
			retained = append(retained, addr)
		} else {
			deletable = append(deletable, addr)
		}
	}
	return deletable, retained
}

// Sweeper runs Sweep and then actually deletes the addresses it clears,
// via the given Store, counting them in the reclaimed_count metric.
type Sweeper struct {
	Store store.Store
}

// Collect sweeps candidates against otherBranches and deletes whatever
// survives as deletable. It returns the retained set (for the caller to
// fold back into its own branch's next garbage candidate list) and any
// deletion error encountered; a partial failure still deletes everything
// up to the error so a retry only re-attempts the remainder.
func (s *Sweeper) Collect(ctx context.Context, candidates []store.Address, otherBranches []*Chain) (retained []store.Address, err error) {
	ctx, span := tracer.Start(ctx, "cuckoo.sweep", trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("other_branches", len(otherBranches))))
	defer span.End()

	deletable, retained := Sweep(candidates, otherBranches)
	for _, addr := range deletable {
		if err := s.Store.Delete(ctx, addr); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return retained, err
		}
	}
	if n := len(deletable); n > 0 {
		cuckooMetrics.reclaimedCount.Add(ctx, int64(n))
	}
	if n := len(retained); n > 0 {
		cuckooMetrics.retainedCount.Add(ctx, int64(n), metric.WithAttributes(attribute.Int("other_branches", len(otherBranches))))
	}
	return retained, nil
}
