package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConnectionDeliversReloadOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluree.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cuckoo]\ncapacity = 1000\n"), 0o600))

	w, err := WatchConnection(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("[cuckoo]\ncapacity = 2000\n"), 0o600))

	select {
	case cfg := <-w.Changes():
		assert.Equal(t, 2000, cfg.Cuckoo.Capacity)
	case err := <-w.Errors():
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
