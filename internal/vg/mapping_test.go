package vg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/query/ast"
)

func airlinesMapping() *Mapping {
	return &Mapping{
		TriplesMapIRI:   "ex:AirlineMap",
		Table:           "airlines",
		SubjectTemplate: "http://ex/airline/{id}",
		Class:           "ex:Airline",
		Predicates: map[string]PredicateMapping{
			"ex:name":    {Kind: PredColumn, Column: "name", Datatype: "xsd:string"},
			"ex:country": {Kind: PredColumn, Column: "country", Datatype: "xsd:string"},
		},
	}
}

func TestTemplateColumnsExtractsPlaceholdersInOrder(t *testing.T) {
	assert.Equal(t, []string{"id"}, TemplateColumns("http://ex/airline/{id}"))
	assert.Equal(t, []string{"a", "b"}, TemplateColumns("http://ex/{a}/{b}"))
}

func TestRenderSubjectTemplateSubstitutesRowValues(t *testing.T) {
	got := RenderSubjectTemplate("http://ex/airline/{id}", map[string]any{"id": int64(42)})
	assert.Equal(t, "http://ex/airline/42", got)
}

func TestRegistryRoutesClassAndPredicateToAlias(t *testing.T) {
	r := NewRegistry()
	r.Register("airlines", airlinesMapping())

	alias, ok := r.RouteClass(ast.IRI{Value: "ex:Airline"})
	require.True(t, ok)
	assert.Equal(t, "airlines", alias)

	alias, ok = r.RoutePredicate(ast.IRI{Value: "ex:country"})
	require.True(t, ok)
	assert.Equal(t, "airlines", alias)

	_, ok = r.RoutePredicate(ast.IRI{Value: "ex:unmapped"})
	assert.False(t, ok)
}

func TestRegistryPushableOnlyForColumnBackedPredicates(t *testing.T) {
	r := NewRegistry()
	m := airlinesMapping()
	m.Predicates["ex:parentCompany"] = PredicateMapping{
		Kind:             PredRef,
		ParentTriplesMap: "ex:CompanyMap",
		JoinConditions:   []JoinCondition{{Child: "parent_id", Parent: "id"}},
	}
	r.Register("airlines", m)

	assert.True(t, r.Pushable("airlines", ast.IRI{Value: "ex:country"}))
	assert.False(t, r.Pushable("airlines", ast.IRI{Value: "ex:parentCompany"}))
	assert.False(t, r.Pushable("airlines", ast.IRI{Value: "ex:nonexistent"}))
}
