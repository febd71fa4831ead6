package index

import (
	"fmt"
	"sort"

	"github.com/fluree/db-sub010/internal/flake"
)

// statementKey identifies the (s,p,o,dt) tuple a flake asserts or
// retracts, independent of t/op/m.
func statementKey(f flake.Flake) string {
	return f.S.String() + "\x00" + f.P.String() + "\x00" + f.Dt.String() + "\x00" + fmt.Sprint(f.O)
}

func filterByT(flakes []flake.Flake, maxT int64) []flake.Flake {
	out := make([]flake.Flake, 0, len(flakes))
	for _, f := range flakes {
		if f.T <= maxT {
			out = append(out, f)
		}
	}
	return out
}

// mergeLiveView implements the leaf resolution rule of spec §4.4: for
// every (s,p,o,dt), keep only the flake with the greatest t <= query-t;
// drop it if that flake is a retraction. persisted is assumed to already
// be in this "one live entry per statement" compacted form (refresh never
// keeps a superseded revision — see DESIGN.md); novel may contain any
// number of revisions and is filtered to t <= queryT before merging.
// MergeLiveView is the exported form of the leaf resolution rule, used
// directly by internal/indexer during refresh: folding novelty into a
// leaf at refresh time is the same merge a read performs at query time,
// just with queryT pinned to the refresh's target t.
func MergeLiveView(order flake.Order, persisted, novel []flake.Flake, queryT int64) []flake.Flake {
	return mergeLiveView(order, persisted, novel, queryT)
}

func mergeLiveView(order flake.Order, persisted, novel []flake.Flake, queryT int64) []flake.Flake {
	winners := make(map[string]flake.Flake, len(persisted)+len(novel))
	for _, f := range persisted {
		winners[statementKey(f)] = f
	}
	for _, f := range filterByT(novel, queryT) {
		key := statementKey(f)
		if cur, ok := winners[key]; !ok || f.T >= cur.T {
			winners[key] = f
		}
	}

	out := make([]flake.Flake, 0, len(winners))
	for _, f := range winners {
		if f.Op {
			out = append(out, f)
		}
	}
	cmp := flake.Comparator(order)
	sort.Slice(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	return out
}
