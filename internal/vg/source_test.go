package vg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/ast"
	"github.com/fluree/db-sub010/internal/query/exec"
	"github.com/fluree/db-sub010/internal/query/plan"
)

func TestAnalyzePatternsFindsSubjectVarAndColumnBindings(t *testing.T) {
	m := airlinesMapping()
	patterns := []ast.GroupElement{
		&ast.ClassPattern{Subject: ast.Var{Name: "s"}, Class: ast.IRI{Value: "ex:Airline"}},
		&ast.TriplePattern{S: ast.Var{Name: "s"}, P: ast.IRI{Value: "ex:name"}, O: ast.Var{Name: "n"}},
		&ast.TriplePattern{S: ast.Var{Name: "s"}, P: ast.IRI{Value: "ex:country"}, O: ast.Var{Name: "c"}},
	}
	subjectVar, bindings, cols := analyzePatterns(m, patterns)
	assert.Equal(t, "s", subjectVar)
	require.Len(t, bindings, 2)
	assert.ElementsMatch(t, []string{"id", "name", "country"}, cols)
}

func TestBuildSelectPushesInPredicateOntoColumnBoundVariable(t *testing.T) {
	m := airlinesMapping()
	bindings := []colBinding{
		{varName: "n", column: "name"},
		{varName: "c", column: "country"},
	}
	pushdowns := []plan.Pushdown{
		{Var: "c", Op: ast.OpIn, Values: []ast.Expr{
			ast.ExprLiteral{Value: "United States", Datatype: "xsd:string"},
			ast.ExprLiteral{Value: "Canada", Datatype: "xsd:string"},
		}},
	}
	query, args := buildSelect(m.Table, []string{"id", "name", "country"}, pushdowns, bindings)
	assert.Contains(t, query, "SELECT")
	assert.Contains(t, query, "`country` IN (?, ?)")
	assert.Equal(t, []any{"United States", "Canada"}, args)
}

func TestBuildSelectOmitsWhereWhenNoPushdownIsColumnBacked(t *testing.T) {
	m := airlinesMapping()
	query, args := buildSelect(m.Table, []string{"id", "name"}, nil, nil)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestMatchesPushdownEnforcesResidualFilterRegardlessOfPushdown(t *testing.T) {
	ns := flake.NewNamespaces()
	sol := exec.Solution{"c": {Value: "Mexico", Datatype: flake.DtString}}
	pd := plan.Pushdown{Var: "c", Op: ast.OpIn, Values: []ast.Expr{
		ast.ExprLiteral{Value: "United States", Datatype: "xsd:string"},
	}}
	assert.False(t, matchesPushdown(ns, pd, sol))

	sol["c"] = exec.Match{Value: "United States", Datatype: flake.DtString}
	assert.True(t, matchesPushdown(ns, pd, sol))
}

func TestResolveOrEnsureAssignsStableCodeAcrossCalls(t *testing.T) {
	ns := flake.NewNamespaces()
	s := &Source{Namespaces: ns}
	a := s.resolveOrEnsure("http://ex/airline/1")
	b := s.resolveOrEnsure("http://ex/airline/1")
	c := s.resolveOrEnsure("http://ex/airline/2")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
