// Command fluree is a thin CLI front door exercising the core's
// connect/create/insert/commit/query surface end to end. Command-level
// UX (output formatting, richer flags, daemon mode, ...) is explicitly
// out of scope per spec §1 — this is the minimal ambient entry point a
// module like this needs to be runnable from a shell, not a feature
// surface in its own right, mirroring how thin cmd/bd's own
// subcommands stay relative to the library packages they call into.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/config"
)

var (
	configPath string
	alias      string
	branch     string
)

var rootCmd = &cobra.Command{
	Use:   "fluree",
	Short: "fluree - a content-addressed graph ledger",
	Long:  "fluree is the CLI front door for a content-addressed, time-travel-capable graph database core.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fluree.toml", "path to the connection config file")
	rootCmd.PersistentFlags().StringVar(&alias, "alias", "", "ledger alias")
	rootCmd.PersistentFlags().StringVar(&branch, "branch", "main", "branch name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// requireAlias validates the --alias flag, which every subcommand
// (create included) needs.
func requireAlias() error {
	if alias == "" {
		return fmt.Errorf("--alias is required")
	}
	return nil
}

func loadConnection() (config.Connection, error) {
	return config.LoadConnection(configPath)
}
