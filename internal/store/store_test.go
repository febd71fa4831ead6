package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	res, err := m.Write(ctx, "mydb/main/index", []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Hash)
	assert.Contains(t, string(res.Address), "fluree:memory:")

	got, err := m.Read(ctx, res.Address)
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(got))
}

func TestMemoryWriteIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	r1, err := m.Write(ctx, "p", []byte("same content"))
	require.NoError(t, err)
	r2, err := m.Write(ctx, "p", []byte("same content"))
	require.NoError(t, err)

	assert.Equal(t, r1.Address, r2.Address)
}

func TestMemoryReadMissingReturnsNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Read(context.Background(), Address("fluree:memory:nope.json"))
	require.Error(t, err)
}

func TestLocalWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := l.Write(ctx, "alias/index", []byte("payload"))
	require.NoError(t, err)

	got, err := l.Read(ctx, res.Address)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestLocalListRecursiveFindsWrittenAddresses(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := l.Write(ctx, "alias/index", []byte("payload"))
	require.NoError(t, err)

	addrs, err := l.ListRecursive(ctx, "alias")
	require.NoError(t, err)
	assert.Contains(t, addrs, res.Address)
}

func TestWithRetryPassesThroughOnSuccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	wrapped := WithRetry(m, RetryConfig{MaxElapsed: 0})

	res, err := wrapped.Write(ctx, "p", []byte("x"))
	require.NoError(t, err)

	got, err := wrapped.Read(ctx, res.Address)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestBuildAddressIsDeterministic(t *testing.T) {
	a1 := BuildAddress("fluree:file", "p", []byte("content"))
	a2 := BuildAddress("fluree:file", "p", []byte("content"))
	assert.Equal(t, a1, a2)

	hash, ok := a1.Hash()
	assert.True(t, ok)
	assert.NotEmpty(t, hash)
}
