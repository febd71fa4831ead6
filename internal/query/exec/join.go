package exec

import (
	"github.com/fluree/db-sub010/internal/errs"
)

// MaxCartesianProductSize is the default *max-cartesian-product-size*
// ceiling of spec §4.9: a join with no shared variables whose estimated
// output would exceed this is rejected rather than materialized.
const MaxCartesianProductSize = 100_000

// HashJoin combines left and right over sharedVars, keeping only
// compatible pairs (spec §4.9). sharedVars empty routes to CartesianJoin
// instead of building a key with no entries.
func HashJoin(left, right []Solution, sharedVars []string) ([]Solution, error) {
	if len(sharedVars) == 0 {
		return CartesianJoin(left, right, "left", "right")
	}

	buckets := make(map[string][]Solution, len(right))
	for _, r := range right {
		key, ok := SharedKey(r, sharedVars)
		if !ok {
			continue
		}
		buckets[key] = append(buckets[key], r)
	}

	var out []Solution
	for _, l := range left {
		key, ok := SharedKey(l, sharedVars)
		if !ok {
			continue
		}
		for _, r := range buckets[key] {
			if Compatible(l, r) {
				out = append(out, Merge(l, r))
			}
		}
	}
	return out, nil
}

// LeftOuterHashJoin implements OPTIONAL (spec §4.9): every left solution
// survives, extended with a matching right solution's bindings when one
// is compatible, or unchanged when none is.
func LeftOuterHashJoin(left, right []Solution, sharedVars []string) ([]Solution, error) {
	if len(sharedVars) == 0 {
		matched, err := CartesianJoin(left, right, "left", "right")
		if err != nil {
			return nil, err
		}
		if len(right) == 0 {
			return left, nil
		}
		return matched, nil
	}

	buckets := make(map[string][]Solution, len(right))
	for _, r := range right {
		key, ok := SharedKey(r, sharedVars)
		if !ok {
			continue
		}
		buckets[key] = append(buckets[key], r)
	}

	var out []Solution
	for _, l := range left {
		key, ok := SharedKey(l, sharedVars)
		var extended bool
		if ok {
			for _, r := range buckets[key] {
				if Compatible(l, r) {
					out = append(out, Merge(l, r))
					extended = true
				}
			}
		}
		if !extended {
			out = append(out, l)
		}
	}
	return out, nil
}

// CartesianJoin pairs every left solution with every right one, guarded
// by MaxCartesianProductSize (scenario S3: two unrelated scan groups with
// no shared variable must not silently explode the result set).
func CartesianJoin(left, right []Solution, leftName, rightName string) ([]Solution, error) {
	estimated := len(left) * len(right)
	if estimated > MaxCartesianProductSize {
		return nil, errs.Cartesian("query.join", leftName, rightName, estimated, MaxCartesianProductSize)
	}
	out := make([]Solution, 0, estimated)
	for _, l := range left {
		for _, r := range right {
			out = append(out, Merge(l, r))
		}
	}
	return out, nil
}
