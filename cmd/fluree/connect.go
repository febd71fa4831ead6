package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to an existing ledger branch and report its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := connectLedger(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("connected to %q/%q at t=%d\n", l.Alias, l.Branch, l.T())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
