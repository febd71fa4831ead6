//go:build cgo

package vg_test

import (
	"context"
	"database/sql"
	"testing"

	embedded "github.com/dolthub/driver"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/exec"
	"github.com/fluree/db-sub010/internal/query/parser"
	"github.com/fluree/db-sub010/internal/query/plan"
	"github.com/fluree/db-sub010/internal/vg"
)

// openEmbeddedDolt opens an in-process Dolt database rooted at dir, the
// same ParseDSN/NewConnector/OpenDB/Ping sequence internal/storage/dolt's
// store_embedded.go uses for its own CGO-only embedded mode — no
// dolt-sql-server process or Docker daemon required, so this test runs as
// part of the ordinary (non-integration) suite wherever CGO is enabled.
func openEmbeddedDolt(t *testing.T, dir string) *sql.DB {
	t.Helper()

	dsn := "file://" + dir + "?commitname=vg-test&commitemail=vg-test@fluree.invalid&database=vgtest"
	cfg, err := embedded.ParseDSN(dsn)
	require.NoError(t, err)

	connector, err := embedded.NewConnector(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = connector.Close() })

	db := sql.OpenDB(connector)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(context.Background()))
	return db
}

// TestVirtualGraphValuesPushdownAgainstEmbeddedDolt is the Docker-free
// sibling of TestVirtualGraphValuesPushdownAgainstDolt: same mapping,
// same query, same expected count, run against the embedded engine
// instead of a containerized dolt-sql-server so it can be part of the
// fast default suite.
func TestVirtualGraphValuesPushdownAgainstEmbeddedDolt(t *testing.T) {
	db := openEmbeddedDolt(t, t.TempDir())
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE airlines (
		id INT PRIMARY KEY,
		name VARCHAR(255),
		country VARCHAR(255)
	)`)
	require.NoError(t, err)

	rows := []struct {
		id            int
		name, country string
	}{
		{1, "Delta Air Lines", "United States"},
		{2, "Air Canada", "Canada"},
		{3, "Lufthansa", "Germany"},
		{4, "United Airlines", "United States"},
	}
	for _, r := range rows {
		_, err := db.ExecContext(ctx, "INSERT INTO airlines (id, name, country) VALUES (?, ?, ?)", r.id, r.name, r.country)
		require.NoError(t, err)
	}

	registry := vg.NewRegistry()
	registry.Register("airlines", &vg.Mapping{
		TriplesMapIRI:   "ex:AirlineMap",
		Table:           "airlines",
		SubjectTemplate: "http://ex/airline/{id}",
		Class:           "ex:Airline",
		Predicates: map[string]vg.PredicateMapping{
			"ex:name":    {Kind: vg.PredColumn, Column: "name", Datatype: "xsd:string"},
			"ex:country": {Kind: vg.PredColumn, Column: "country", Datatype: "xsd:string"},
		},
	})

	ns := flake.NewNamespaces()
	source := &vg.Source{DB: db, Registry: registry, Namespaces: ns}

	query, err := parser.Parse(`SELECT (COUNT(?a) AS ?c) WHERE { ?a ex:name ?n ; ex:country ?country . VALUES ?country { "United States" "Canada" } }`)
	require.NoError(t, err)

	p, err := plan.Build(context.Background(), query, registry)
	require.NoError(t, err)

	executor := &exec.Executor{Namespaces: ns, Sources: map[string]exec.VirtualSource{"airlines": source}}
	sols, err := executor.Run(ctx, p)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.Equal(t, int64(3), sols[0]["c"].Value)
}
