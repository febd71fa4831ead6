package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/query/exec"
	"github.com/fluree/db-sub010/internal/query/parser"
	"github.com/fluree/db-sub010/internal/query/plan"
)

var queryCmd = &cobra.Command{
	Use:   "query [query text]",
	Short: "Run a graph-pattern query against the ledger's current db",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := connectLedger(cmd.Context())
		if err != nil {
			return err
		}

		q, err := parser.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parse query: %w", err)
		}
		// The CLI wires no virtual graphs; any class/predicate a real
		// deployment routed to a vg.Registry instead resolves against the
		// native ledger, matching plan.Build's documented nil-router
		// behavior.
		p, err := plan.Build(cmd.Context(), q, nil)
		if err != nil {
			return fmt.Errorf("build plan: %w", err)
		}

		db, err := l.Current(cmd.Context())
		if err != nil {
			return err
		}
		executor := &exec.Executor{Db: db, Namespaces: l.Namespaces()}
		sols, err := executor.Run(cmd.Context(), p)
		if err != nil {
			return fmt.Errorf("run query: %w", err)
		}

		printSolutions(l.Namespaces(), sols)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func printSolutions(ns interface{ IRI(int) (string, bool) }, sols []exec.Solution) {
	cols := solutionColumns(sols)
	if len(cols) == 0 {
		fmt.Println("(no results)")
		return
	}
	fmt.Println(strings.Join(cols, "\t"))
	for _, sol := range sols {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatMatch(ns, sol[c])
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

// solutionColumns derives a stable column order from the union of
// variable names actually bound across the result set, since query
// execution (unlike a SQL engine) carries no separate output schema —
// a solution's own keys are the schema.
func solutionColumns(sols []exec.Solution) []string {
	seen := map[string]bool{}
	var cols []string
	for _, sol := range sols {
		for v := range sol {
			if !seen[v] {
				seen[v] = true
				cols = append(cols, v)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func formatMatch(ns interface{ IRI(int) (string, bool) }, m exec.Match) string {
	if m.IRI != nil {
		if iri, ok := ns.IRI(m.IRI.Namespace); ok {
			return iri + m.IRI.Local
		}
		return m.IRI.String()
	}
	if m.Value == nil {
		return ""
	}
	return fmt.Sprint(m.Value)
}
