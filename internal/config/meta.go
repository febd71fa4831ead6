package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/flake"
)

// Meta is a ledger alias's metadata sidecar (`<alias>/meta.yaml`): the
// namespace-code table snapshot and the set of known branches with
// their last-observed head commit addresses. The commit chain itself
// (internal/commit.ReadHead) remains the source of truth for a branch's
// actual head; Meta is a convenience cache so a caller can list known
// branches and their approximate heads without a store round trip per
// branch, the same way the teacher keeps a small mutable index in
// config.yaml instead of querying the database for everything.
type Meta struct {
	Namespaces map[string]int    `yaml:"namespaces"`
	Branches   map[string]string `yaml:"branches"`
}

// NewMeta returns an empty sidecar for a freshly created ledger.
func NewMeta() *Meta {
	return &Meta{Namespaces: map[string]int{}, Branches: map[string]string{}}
}

// MetaPath is the sidecar path for an alias under root.
func MetaPath(root, alias string) string {
	return filepath.Join(root, alias, "meta.yaml")
}

// LoadMeta reads and parses the sidecar at path. A missing file is not
// an error — it returns an empty Meta, matching a ledger whose first
// commit (and hence first meta.yaml write) hasn't happened yet.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from MetaPath
	if err != nil {
		if os.IsNotExist(err) {
			return NewMeta(), nil
		}
		return nil, errs.Wrap("config.meta.load", errs.StorageIO, err)
	}
	m := NewMeta()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errs.Wrap("config.meta.load", errs.Validation, fmt.Errorf("parse %s: %w", path, err))
	}
	if m.Namespaces == nil {
		m.Namespaces = map[string]int{}
	}
	if m.Branches == nil {
		m.Branches = map[string]string{}
	}
	return m, nil
}

// Save writes m to path, creating its parent directory if needed.
func (m *Meta) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap("config.meta.save", errs.StorageIO, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errs.Wrap("config.meta.save", errs.Internal, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // sidecar metadata, not secret
		return errs.Wrap("config.meta.save", errs.StorageIO, err)
	}
	return nil
}

// SetNamespaces overwrites the sidecar's namespace-code snapshot,
// called after every commit so a reconnect can rebuild a
// *flake.Namespaces without replaying the whole commit chain first.
func (m *Meta) SetNamespaces(ns *flake.Namespaces) {
	m.Namespaces = ns.Snapshot()
}

// LoadNamespaces rebuilds a *flake.Namespaces from the sidecar's last
// saved snapshot.
func (m *Meta) LoadNamespaces() *flake.Namespaces {
	return flake.Load(m.Namespaces)
}

// SetBranchHead records branch's last-observed head commit address in
// the sidecar.
func (m *Meta) SetBranchHead(branch, headAddress string) {
	m.Branches[branch] = headAddress
}

// BranchHead returns branch's last-observed head commit address from
// the sidecar, and whether the branch is known to it.
func (m *Meta) BranchHead(branch string) (string, bool) {
	addr, ok := m.Branches[branch]
	return addr, ok
}

// KnownBranches returns the sidecar's recorded branch names.
func (m *Meta) KnownBranches() []string {
	names := make([]string, 0, len(m.Branches))
	for b := range m.Branches {
		names = append(names, b)
	}
	return names
}
