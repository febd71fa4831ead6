package main

import (
	"context"

	"github.com/fluree/db-sub010/internal/config"
	"github.com/fluree/db-sub010/internal/ledger"
	"github.com/fluree/db-sub010/internal/store"
)

// openStore loads the connection config and opens its configured Store.
func openStore() (config.Connection, store.Store, error) {
	cfg, err := loadConnection()
	if err != nil {
		return config.Connection{}, nil, err
	}
	s, err := cfg.OpenStorage()
	if err != nil {
		return config.Connection{}, nil, err
	}
	return cfg, s, nil
}

// connectLedger opens an existing ledger branch, the shared path every
// subcommand but create takes.
func connectLedger(ctx context.Context) (*ledger.Ledger, config.Connection, error) {
	if err := requireAlias(); err != nil {
		return nil, config.Connection{}, err
	}
	cfg, s, err := openStore()
	if err != nil {
		return nil, config.Connection{}, err
	}
	l, err := ledger.Connect(ctx, s, alias, branch, cfg.IndexerConfig())
	if err != nil {
		return nil, config.Connection{}, err
	}
	return l, cfg, nil
}

// saveMeta refreshes the alias's meta.yaml sidecar with l's current
// namespace table and branch head, a best-effort convenience cache —
// the commit chain itself remains authoritative (see
// internal/config.Meta's doc comment).
func saveMeta(cfg config.Connection, l *ledger.Ledger, headAddress string) error {
	if cfg.Storage.Path == "" {
		return nil // in-memory storage has nowhere to put a sidecar file
	}
	path := config.MetaPath(cfg.Storage.Path, l.Alias)
	m, err := config.LoadMeta(path)
	if err != nil {
		return err
	}
	m.SetNamespaces(l.Namespaces())
	m.SetBranchHead(l.Branch, headAddress)
	return m.Save(path)
}
