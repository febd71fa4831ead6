package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/indexer"
	"github.com/fluree/db-sub010/internal/store"
)

func TestCreateThenInsertThenCommit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.T())

	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))

	newT, err := l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), newT)
	assert.Equal(t, int64(1), l.T())
}

func TestCommitIsVisibleToCurrentQuery(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)

	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	db, err := l.Current(ctx)
	require.NoError(t, err)
	vals, err := db.CurrentValues(ctx, alice, name)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "Alice", vals[0].O)
}

func TestUpsertReplacesPriorValue(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)

	alice := flake.SID{Namespace: 1, Local: "alice"}
	age := flake.SID{Namespace: 2, Local: "age"}
	l.Insert(flake.Create(alice, age, int64(30), flake.DtInteger, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	require.NoError(t, l.Upsert(ctx, flake.Create(alice, age, int64(31), flake.DtInteger, 0, true, nil)))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	db, err := l.Current(ctx)
	require.NoError(t, err)
	vals, err := db.CurrentValues(ctx, alice, age)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, int64(31), vals[0].O)
}

func TestHistoryWalksCommitsNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)

	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	l.Insert(flake.Create(alice, name, "Alice2", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	hist, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, int64(2), hist[0].T)
	assert.Equal(t, int64(1), hist[1].T)
}

func TestDbAtPastTReflectsEarlierState(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)

	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	require.NoError(t, l.Upsert(ctx, flake.Create(alice, name, "AliceRenamed", flake.DtString, 0, true, nil)))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	past, err := l.Db(ctx, 1)
	require.NoError(t, err)
	vals, err := past.CurrentValues(ctx, alice, name)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "Alice", vals[0].O)

	now, err := l.Db(ctx, 2)
	require.NoError(t, err)
	valsNow, err := now.CurrentValues(ctx, alice, name)
	require.NoError(t, err)
	require.Len(t, valsNow, 1)
	assert.Equal(t, "AliceRenamed", valsNow[0].O)
}

func TestConnectReloadsCommittedState(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)

	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	reloaded, err := Connect(ctx, mem, "mydb/main", "main", indexer.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.T())

	db, err := reloaded.Current(ctx)
	require.NoError(t, err)
	vals, err := db.CurrentValues(ctx, alice, name)
	require.NoError(t, err)
	require.Len(t, vals, 1)
}

func TestExistsReportsWhetherBranchHasCommits(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	ok, err := Exists(ctx, mem, "mydb/main", "main")
	require.NoError(t, err)
	assert.False(t, ok)

	l, err := Create(ctx, mem, "mydb/main", indexer.DefaultConfig())
	require.NoError(t, err)
	alice := flake.SID{Namespace: 1, Local: "alice"}
	name := flake.SID{Namespace: 2, Local: "name"}
	l.Insert(flake.Create(alice, name, "Alice", flake.DtString, 0, true, nil))
	_, err = l.Commit(ctx, CommitOptions{})
	require.NoError(t, err)

	ok, err = Exists(ctx, mem, "mydb/main", "main")
	require.NoError(t, err)
	assert.True(t, ok)
}
