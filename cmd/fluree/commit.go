package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/ledger"
)

// flakeSpec is one line of a commit --file batch: the CLI-surface
// equivalent of a single staged flake before namespace/datatype
// resolution.
type flakeSpec struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Datatype  string `json:"datatype"`
	Retract   bool   `json:"retract"`
}

var (
	commitFile    string
	commitMessage string
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage and commit a batch of flakes read from a JSON file",
	Long: "commit reads a JSON array of {subject,predicate,object,datatype,retract} " +
		"objects from --file, stages every one, and commits them as a single " +
		"transaction — the batch counterpart to insert's single-flake path.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if commitFile == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(commitFile) //nolint:gosec // operator-supplied batch file
		if err != nil {
			return fmt.Errorf("read %s: %w", commitFile, err)
		}
		var specs []flakeSpec
		if err := json.Unmarshal(data, &specs); err != nil {
			return fmt.Errorf("parse %s: %w", commitFile, err)
		}

		l, cfg, err := connectLedger(cmd.Context())
		if err != nil {
			return err
		}
		ns := l.Namespaces()

		for _, spec := range specs {
			s := resolveSubjectOrPredicate(ns, spec.Subject)
			p := resolveSubjectOrPredicate(ns, spec.Predicate)
			var object any
			var dt flake.SID
			if spec.Datatype == "id" {
				dt = flake.DtID
				object = resolveSubjectOrPredicate(ns, spec.Object)
			} else {
				dt = datatypeSID(ns, spec.Datatype)
				object, err = parseObject(spec.Object, spec.Datatype)
				if err != nil {
					return fmt.Errorf("flake %s/%s: %w", spec.Subject, spec.Predicate, err)
				}
			}
			l.Insert(flake.Create(s, p, object, dt, 0, !spec.Retract, nil))
		}

		var msg *string
		if commitMessage != "" {
			msg = &commitMessage
		}
		t, err := l.Commit(cmd.Context(), ledgerCommitOptions(msg))
		if err != nil {
			return err
		}

		head := ""
		if h := l.HeadCommit(); h != nil {
			head = string(*h)
		}
		if err := saveMeta(cfg, l, head); err != nil {
			return err
		}
		fmt.Printf("committed %d flakes at t=%d\n", len(specs), t)
		return nil
	},
}

func ledgerCommitOptions(message *string) ledger.CommitOptions {
	return ledger.CommitOptions{Message: message}
}

func init() {
	commitCmd.Flags().StringVar(&commitFile, "file", "", "path to a JSON array of flake specs")
	commitCmd.Flags().StringVar(&commitMessage, "message", "", "commit message")
	rootCmd.AddCommand(commitCmd)
}
