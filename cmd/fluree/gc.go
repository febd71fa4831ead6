package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/config"
)

var gcAt int64

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Sweep a past refresh's garbage manifest against sibling branches (spec §4.7)",
	Long: "gc reads the garbage manifest the branch's refresher wrote at --at, loads every " +
		"other known branch's cuckoo filter chain from the alias's meta sidecar, and deletes " +
		"whichever candidate addresses none of them still claim.",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, cfg, err := connectLedger(cmd.Context())
		if err != nil {
			return err
		}
		if cfg.Storage.Path == "" {
			return fmt.Errorf("gc requires a meta sidecar; in-memory storage has no record of sibling branches")
		}

		path := config.MetaPath(cfg.Storage.Path, l.Alias)
		m, err := config.LoadMeta(path)
		if err != nil {
			return err
		}

		var siblings []string
		for _, b := range m.KnownBranches() {
			if b != l.Branch {
				siblings = append(siblings, b)
			}
		}

		t := gcAt
		if t == 0 {
			t = l.T()
		}
		deleted, retained, err := l.SweepGarbage(cmd.Context(), t, siblings)
		if err != nil {
			return err
		}
		fmt.Printf("swept t=%d: deleted %d, retained %d\n", t, deleted, retained)
		return nil
	},
}

func init() {
	gcCmd.Flags().Int64Var(&gcAt, "at", 0, "t the refresh whose garbage manifest should be swept (default: branch's current t)")
	rootCmd.AddCommand(gcCmd)
}
