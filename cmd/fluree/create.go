package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/ledger"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new, empty ledger at --alias",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAlias(); err != nil {
			return err
		}
		cfg, s, err := openStore()
		if err != nil {
			return err
		}
		l, err := ledger.Create(cmd.Context(), s, alias, cfg.IndexerConfig())
		if err != nil {
			return err
		}
		if err := saveMeta(cfg, l, ""); err != nil {
			return err
		}
		fmt.Printf("created ledger %q (branch %q, t=%d)\n", l.Alias, l.Branch, l.T())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
