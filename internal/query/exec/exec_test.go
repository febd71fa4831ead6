package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/indexer"
	"github.com/fluree/db-sub010/internal/ledger"
	"github.com/fluree/db-sub010/internal/query/parser"
	"github.com/fluree/db-sub010/internal/query/plan"
	"github.com/fluree/db-sub010/internal/store"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	l, err := ledger.Create(ctx, mem, "querytest/main", indexer.DefaultConfig())
	require.NoError(t, err)

	ns := flake.NewNamespaces()
	exNS := ns.Ensure("ex:")
	schemaNS := ns.Ensure("schema:")

	alice := flake.SID{Namespace: exNS, Local: "alice"}
	bob := flake.SID{Namespace: exNS, Local: "bob"}
	carol := flake.SID{Namespace: exNS, Local: "carol"}
	nameP := flake.SID{Namespace: schemaNS, Local: "name"}
	ageP := flake.SID{Namespace: schemaNS, Local: "age"}

	l.Insert(flake.Create(alice, nameP, "Alice", flake.DtString, 0, true, nil))
	l.Insert(flake.Create(alice, ageP, int64(30), flake.DtInteger, 0, true, nil))
	l.Insert(flake.Create(bob, nameP, "Bob", flake.DtString, 0, true, nil))
	l.Insert(flake.Create(bob, ageP, int64(25), flake.DtInteger, 0, true, nil))
	l.Insert(flake.Create(carol, nameP, "Carol", flake.DtString, 0, true, nil))

	_, err = l.Commit(ctx, ledger.CommitOptions{})
	require.NoError(t, err)

	db, err := l.Current(ctx)
	require.NoError(t, err)

	return &Executor{Db: db, Namespaces: ns}
}

func runQuery(t *testing.T, e *Executor, q string) []Solution {
	t.Helper()
	query, err := parser.Parse(q)
	require.NoError(t, err)
	p, err := plan.Build(context.Background(), query, nil)
	require.NoError(t, err)
	sols, err := e.Run(context.Background(), p)
	require.NoError(t, err)
	return sols
}

func names(sols []Solution, v string) []string {
	var out []string
	for _, s := range sols {
		if m, ok := s[v]; ok {
			out = append(out, m.Value.(string))
		}
	}
	return out
}

func TestExecSelectProjectsMatchingPattern(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n }`)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Carol"}, names(sols, "n"))
}

func TestExecJoinAcrossTwoPatternsOnSharedSubject(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n ?a WHERE { ?s schema:name ?n . ?s schema:age ?a }`)
	require.Len(t, sols, 2)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names(sols, "n"))
}

func TestExecFilterNumericComparison(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n . ?s schema:age ?a . FILTER(?a > 26) }`)
	require.Len(t, sols, 1)
	assert.Equal(t, "Alice", sols[0]["n"].Value)
}

func TestExecOptionalLeavesUnmatchedVarUnbound(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n ?a WHERE { ?s schema:name ?n . OPTIONAL { ?s schema:age ?a } }`)
	require.Len(t, sols, 3)
	var carolUnbound bool
	for _, s := range sols {
		if s["n"].Value == "Carol" {
			_, bound := s["a"]
			carolUnbound = !bound
		}
	}
	assert.True(t, carolUnbound)
}

func TestExecMinusExcludesMatchingSubjects(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n . MINUS { ?s schema:age ?a } }`)
	require.Len(t, sols, 1)
	assert.Equal(t, "Carol", sols[0]["n"].Value)
}

func TestExecFilterExistsKeepsOnlySubjectsWithMatch(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n . FILTER EXISTS { ?s schema:age ?a } }`)
	require.Len(t, sols, 2)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names(sols, "n"))
}

func TestExecFilterNotExistsExcludesSubjectsWithMatch(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n . FILTER NOT EXISTS { ?s schema:age ?a } }`)
	require.Len(t, sols, 1)
	assert.Equal(t, "Carol", sols[0]["n"].Value)
}

func TestExecValuesResidualMaterializesAsJoin(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n . VALUES ?n { "Alice" "Bob" } }`)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names(sols, "n"))
}

func TestExecOrderByDescWithLimit(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?n WHERE { ?s schema:name ?n } ORDER BY DESC ?n LIMIT 2`)
	require.Len(t, sols, 2)
	assert.Equal(t, []string{"Carol", "Bob"}, names(sols, "n"))
}

func TestExecAggregateCount(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT (COUNT(?n) AS ?c) WHERE { ?s schema:name ?n }`)
	require.Len(t, sols, 1)
	assert.Equal(t, int64(3), sols[0]["c"].Value)
}

func TestExecAggregateAvgByGroup(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT ?s (AVG(?a) AS ?avgAge) WHERE { ?s schema:age ?a } GROUP BY ?s`)
	require.Len(t, sols, 2)
	for _, s := range sols {
		assert.Contains(t, []float64{30.0, 25.0}, s["avgAge"].Value)
	}
}

func TestExecDistinctDeduplicatesRows(t *testing.T) {
	e := newTestExecutor(t)
	sols := runQuery(t, e, `SELECT DISTINCT ?n WHERE { ?s schema:name ?n } ORDER BY ?n`)
	require.Len(t, sols, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names(sols, "n"))
}

func TestExecUnrelatedPatternsProduceFullCrossProduct(t *testing.T) {
	e := newTestExecutor(t)
	query, err := parser.Parse(`SELECT ?n ?m WHERE { ?s schema:name ?n . ?t schema:name ?m }`)
	require.NoError(t, err)
	p, err := plan.Build(context.Background(), query, nil)
	require.NoError(t, err)
	// Both patterns fall into one native scan group, whose nested scan
	// yields all 3 x 3 = 9 pairings; no join step or cartesian guard runs
	// (scenario S3's oversized case is covered directly in join_test.go
	// against MaxCartesianProductSize).
	sols, err := e.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, sols, 9)
}

func TestExecCancellationIsObservedBetweenSteps(t *testing.T) {
	e := newTestExecutor(t)
	query, err := parser.Parse(`SELECT ?n WHERE { ?s schema:name ?n . FILTER(?n != "Bob") }`)
	require.NoError(t, err)
	p, err := plan.Build(context.Background(), query, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, p)
	require.Error(t, err)
}
