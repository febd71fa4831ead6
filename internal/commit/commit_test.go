package commit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/serde"
	"github.com/fluree/db-sub010/internal/store"
)

func TestNewAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	c := serde.Commit{T: 1, Time: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), Data: serde.DataDescriptor{Address: "fluree:memory:data.json"}}
	addr, err := New(ctx, mem, "mydb/main", c, nil)
	require.NoError(t, err)

	got, err := Load(ctx, mem, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.T)
	assert.Nil(t, got.PrevCommit)
}

func TestHistoryWalksPrevCommitChain(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	c1 := serde.Commit{T: 1, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d1.json"}}
	a1, err := New(ctx, mem, "mydb/main", c1, nil)
	require.NoError(t, err)

	c2 := serde.Commit{T: 2, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d2.json"}}
	a2, err := New(ctx, mem, "mydb/main", c2, &a1)
	require.NoError(t, err)

	hist, err := History(ctx, mem, a2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, int64(2), hist[0].T)
	assert.Equal(t, int64(1), hist[1].T)
}

func TestAdvanceFirstCommitOnFreshBranch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	c := serde.Commit{T: 1, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d.json"}}
	addr, err := New(ctx, mem, "mydb/main", c, nil)
	require.NoError(t, err)

	err = Advance(ctx, mem, "mydb", "main", nil, &addr)
	require.NoError(t, err)

	head, err := ReadHead(ctx, mem, "mydb", "main")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, addr, *head)
}

func TestAdvanceRejectsStaleExpectedPrev(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	c1 := serde.Commit{T: 1, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d1.json"}}
	a1, err := New(ctx, mem, "mydb/main", c1, nil)
	require.NoError(t, err)
	require.NoError(t, Advance(ctx, mem, "mydb", "main", nil, &a1))

	c2 := serde.Commit{T: 2, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d2.json"}}
	a2, err := New(ctx, mem, "mydb/main", c2, &a1)
	require.NoError(t, err)

	staleC := serde.Commit{T: 2, Time: time.Now().UTC(), Data: serde.DataDescriptor{Address: "fluree:memory:d2b.json"}}
	staleAddr, err := New(ctx, mem, "mydb/main", staleC, nil)
	require.NoError(t, err)

	err = Advance(ctx, mem, "mydb", "main", nil, &staleAddr)
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))

	require.NoError(t, Advance(ctx, mem, "mydb", "main", &a1, &a2))
}
