package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/flake"
)

var litDtString = flake.DtString
var litDtInteger = flake.DtInteger

func TestHashJoinKeepsOnlyCompatiblePairs(t *testing.T) {
	left := []Solution{
		{"s": sidMatch(1, "alice"), "n": litMatch("Alice", litDtString)},
		{"s": sidMatch(1, "bob"), "n": litMatch("Bob", litDtString)},
	}
	right := []Solution{
		{"s": sidMatch(1, "alice"), "a": litMatch(int64(30), litDtInteger)},
	}
	out, err := HashJoin(left, right, []string{"s"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0]["n"].Value)
	assert.Equal(t, int64(30), out[0]["a"].Value)
}

func TestLeftOuterHashJoinPreservesUnmatchedLeftRows(t *testing.T) {
	left := []Solution{
		{"s": sidMatch(1, "alice")},
		{"s": sidMatch(1, "carol")},
	}
	right := []Solution{
		{"s": sidMatch(1, "alice"), "a": litMatch(int64(30), litDtInteger)},
	}
	out, err := LeftOuterHashJoin(left, right, []string{"s"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	var sawCarolUnbound bool
	for _, s := range out {
		if s["s"].IRI.Local == "carol" {
			_, bound := s["a"]
			sawCarolUnbound = !bound
		}
	}
	assert.True(t, sawCarolUnbound)
}

func TestCartesianJoinRejectsOversizedProduct(t *testing.T) {
	left := make([]Solution, 400)
	right := make([]Solution, 400)
	for i := range left {
		left[i] = Solution{}
		right[i] = Solution{}
	}
	_, err := CartesianJoin(left, right, "t1", "t2")
	require.Error(t, err)
	assert.True(t, errs.IsCartesianTooLarge(err))
}

func TestCartesianJoinAllowsSmallProduct(t *testing.T) {
	left := []Solution{{"a": litMatch(int64(1), litDtInteger)}}
	right := []Solution{{"b": litMatch(int64(2), litDtInteger)}}
	out, err := CartesianJoin(left, right, "t1", "t2")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0]["a"].Value)
	assert.Equal(t, int64(2), out[0]["b"].Value)
}
