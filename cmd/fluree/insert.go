package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluree/db-sub010/internal/flake"
)

var (
	insertSubject   string
	insertPredicate string
	insertObject    string
	insertDatatype  string
	insertMessage   string
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Stage and commit a single (subject, predicate, object) flake",
	Long: "insert stages one flake and commits it in the same invocation: a CLI " +
		"process is too short-lived to hold a transaction open across separate " +
		"insert/commit invocations, so insert always commits its own staged flake.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if insertSubject == "" || insertPredicate == "" || insertObject == "" {
			return fmt.Errorf("--subject, --predicate, and --object are required")
		}
		l, cfg, err := connectLedger(cmd.Context())
		if err != nil {
			return err
		}

		ns := l.Namespaces()
		s := resolveSubjectOrPredicate(ns, insertSubject)
		p := resolveSubjectOrPredicate(ns, insertPredicate)

		var object any
		var dt flake.SID
		if insertDatatype == "id" {
			dt = flake.DtID
			object = resolveSubjectOrPredicate(ns, insertObject)
		} else {
			dt = datatypeSID(ns, insertDatatype)
			object, err = parseObject(insertObject, insertDatatype)
			if err != nil {
				return err
			}
		}

		l.Insert(flake.Create(s, p, object, dt, 0, true, nil))

		var msg *string
		if insertMessage != "" {
			msg = &insertMessage
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
		fmt.Printf("committed t=%d\n", t)
		return nil
	},
}

func init() {
	insertCmd.Flags().StringVar(&insertSubject, "subject", "", "subject IRI")
	insertCmd.Flags().StringVar(&insertPredicate, "predicate", "", "predicate IRI")
	insertCmd.Flags().StringVar(&insertObject, "object", "", "object value or IRI")
	insertCmd.Flags().StringVar(&insertDatatype, "datatype", "string", `object datatype: string|integer|long|double|decimal|boolean|dateTime|date|id`)
	insertCmd.Flags().StringVar(&insertMessage, "message", "", "commit message")
	rootCmd.AddCommand(insertCmd)
}
