package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fluree/db-sub010/internal/errs"
)

// Memory is an in-process Store, used for tests and ephemeral ledgers. It
// never returns transient-io errors, so wrapping it in WithRetry is a
// no-op (retries never fire), but it satisfies the same Store contract
// as a durable back-end.
type Memory struct {
	mu   sync.RWMutex
	blob map[Address][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blob: make(map[Address][]byte)}
}

func (m *Memory) Write(_ context.Context, pathPrefix string, content []byte) (WriteResult, error) {
	addr := BuildAddress("fluree:memory", pathPrefix, content)
	hash, _ := addr.Hash()
	m.mu.Lock()
	m.blob[addr] = append([]byte(nil), content...)
	m.mu.Unlock()
	return WriteResult{Address: addr, Hash: hash, Size: len(content)}, nil
}

func (m *Memory) WriteAt(_ context.Context, address Address, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob[address] = append([]byte(nil), content...)
	return nil
}

func (m *Memory) Read(_ context.Context, address Address) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blob[address]
	if !ok {
		return nil, errs.Wrap(fmt.Sprintf("read %s", address), errs.StorageIO, errs.ErrNotFound)
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Delete(_ context.Context, address Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blob, address)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Address, error) {
	return m.ListRecursive(ctx, prefix)
}

func (m *Memory) ListRecursive(_ context.Context, prefix string) ([]Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Address
	for addr := range m.blob {
		if strings.Contains(string(addr), prefix) {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
