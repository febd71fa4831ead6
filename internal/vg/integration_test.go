//go:build cgo && integration

package vg_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/query/exec"
	"github.com/fluree/db-sub010/internal/query/parser"
	"github.com/fluree/db-sub010/internal/query/plan"
	"github.com/fluree/db-sub010/internal/vg"
)

// TestVirtualGraphValuesPushdownAgainstDolt exercises scenario S4 end to
// end against a disposable Dolt server: an openflights-style "airlines"
// table, an R2RML-ish mapping exposing it, and a VALUES-pushdown query
// counting US/Canada airlines. Gated behind `cgo && integration` the
// same way internal/storage/dolt gates its own server-backed tests —
// this needs a Docker daemon and is not part of the default test run.
func TestVirtualGraphValuesPushdownAgainstDolt(t *testing.T) {
	ctx := context.Background()

	container, err := dolt.Run(ctx, "dolthub/dolt-sql-server:latest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE airlines (
		id INT PRIMARY KEY,
		name VARCHAR(255),
		country VARCHAR(255)
	)`)
	require.NoError(t, err)

	rows := []struct {
		id              int
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
