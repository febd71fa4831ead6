// Package vg implements the virtual-graph tabular source of spec §4.11:
// an R2RML-like mapping that exposes one external table as a (partial)
// RDF view, plus the SQL translation that executes a routed ScanGroup
// against it.
package vg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fluree/db-sub010/internal/query/ast"
)

// PredicateKind distinguishes a predicate backed directly by a column
// from one backed by a foreign-key reference to another triples map.
type PredicateKind int

const (
	PredColumn PredicateKind = iota
	PredRef
)

// JoinCondition is one child/parent column pair of a RefObjectMap join.
type JoinCondition struct {
	Child  string
	Parent string
}

// PredicateMapping describes how one RDF predicate is produced for a
// Mapping's rows: either straight off a column (with its xsd datatype),
// or via a reference to another triples map's subjects.
type PredicateMapping struct {
	Kind             PredicateKind
	Column           string
	Datatype         string
	Language         string
	ParentTriplesMap string
	JoinConditions   []JoinCondition
}

// Mapping is one R2RML triples map: a table, the template that derives
// subject IRIs from its rows, an optional rdf:type class, and the
// predicate-to-column/reference bindings (spec §4.11's "mapping
// contract").
type Mapping struct {
	TriplesMapIRI   string
	Table           string
	SubjectTemplate string
	Class           string
	Predicates      map[string]PredicateMapping
}

var templatePlaceholder = regexp.MustCompile(`\{([^{}]+)\}`)

// TemplateColumns returns the column names a subject template
// references, in occurrence order.
func TemplateColumns(tmpl string) []string {
	matches := templatePlaceholder.FindAllStringSubmatch(tmpl, -1)
	cols := make([]string, len(matches))
	for i, m := range matches {
		cols[i] = m[1]
	}
	return cols
}

// RenderSubjectTemplate substitutes a row's column values into tmpl's
// `{col}` placeholders, producing the surface IRI for that row.
func RenderSubjectTemplate(tmpl string, row map[string]any) string {
	return templatePlaceholder.ReplaceAllStringFunc(tmpl, func(ph string) string {
		col := ph[1 : len(ph)-1]
		return fmt.Sprint(row[col])
	})
}

// Registry indexes a set of Mappings by alias (the name a SourceRouter
// routes patterns to), by rdf:type class, and by predicate IRI — spec
// §4.11's "class -> mapping", "predicate -> mapping", and
// "triples-map-IRI -> table" indices.
type Registry struct {
	byAlias      map[string]*Mapping
	byClass      map[string]*Mapping
	byPredicate  map[string]*Mapping
	byTriplesMap map[string]*Mapping
}

// NewRegistry returns an empty mapping registry.
func NewRegistry() *Registry {
	return &Registry{
		byAlias:      map[string]*Mapping{},
		byClass:      map[string]*Mapping{},
		byPredicate:  map[string]*Mapping{},
		byTriplesMap: map[string]*Mapping{},
	}
}

// Register adds m under alias, indexing its class and predicates for
// routing.
func (r *Registry) Register(alias string, m *Mapping) {
	r.byAlias[alias] = m
	if m.Class != "" {
		r.byClass[m.Class] = m
	}
	for pred := range m.Predicates {
		r.byPredicate[pred] = m
	}
	if m.TriplesMapIRI != "" {
		r.byTriplesMap[m.TriplesMapIRI] = m
	}
}

// Mapping returns the mapping registered under alias.
func (r *Registry) Mapping(alias string) (*Mapping, bool) {
	m, ok := r.byAlias[alias]
	return m, ok
}

// MappingForTriplesMap resolves a RefObjectMap's parent-triples-map IRI
// to its Mapping, for rendering the parent's subject template on a join.
func (r *Registry) MappingForTriplesMap(iri string) (*Mapping, bool) {
	m, ok := r.byTriplesMap[iri]
	return m, ok
}

// aliasOf finds the alias a mapping is registered under — the inverse
// of byAlias, needed because routing indices key by class/predicate but
// plan.ScanGroup.Source names the alias.
func (r *Registry) aliasOf(m *Mapping) (string, bool) {
	for alias, candidate := range r.byAlias {
		if candidate == m {
			return alias, true
		}
	}
	return "", false
}

// RouteClass implements plan.SourceRouter: a `?s a <class>` pattern
// routes to whichever mapping declares that rdf:type class.
func (r *Registry) RouteClass(class ast.IRI) (string, bool) {
	m, ok := r.byClass[class.Value]
	if !ok {
		return "", false
	}
	return r.aliasOf(m)
}

// RoutePredicate implements plan.SourceRouter: a triple pattern whose
// predicate is one this registry maps routes to that mapping's table.
func (r *Registry) RoutePredicate(pred ast.IRI) (string, bool) {
	m, ok := r.byPredicate[pred.Value]
	if !ok {
		return "", false
	}
	return r.aliasOf(m)
}

// Pushable implements plan.SourceRouter: only column-backed predicates
// translate directly into a SQL WHERE clause (spec §4.11 step 3); a
// :ref predicate denotes a join and can't be pushed as a scalar filter.
func (r *Registry) Pushable(alias string, pred ast.IRI) bool {
	m, ok := r.byAlias[alias]
	if !ok {
		return false
	}
	pm, ok := m.Predicates[pred.Value]
	return ok && pm.Kind == PredColumn
}

// quoteIdent backtick-quotes a SQL identifier, rejecting anything a
// backtick could let escape the quoting (table/column names come from
// mapping configuration, not query text, but query text supplies
// predicate IRIs that key into that configuration).
func quoteIdent(name string) (string, error) {
	if strings.ContainsAny(name, "`\x00") {
		return "", fmt.Errorf("vg: invalid identifier %q", name)
	}
	return "`" + name + "`", nil
}
