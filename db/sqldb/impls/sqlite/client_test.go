package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/db/sqldb"
)

type note struct {
	ID   string
	Body string
}

func (n *note) TargetFields() []any {
	return []any{&n.ID, &n.Body}
}

func openMemory(t *testing.T) sqldb.Client {
	t.Helper()
	client, err := sqldb.New(&sqldb.Conf{Type: DBType, DB: MemoryDB})
	require.NoError(t, err)
	require.NoError(t, client.Init())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_QueryHelpers(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	assert.Equal(t, byte('?'), c.PlaceholderPrefix())

	_, err := c.Exec(ctx, "CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT NOT NULL)")
	require.NoError(t, err)
	res, err := c.Exec(ctx, "INSERT INTO notes (id, body) VALUES (?, ?), (?, ?)", "a", "first", "b", "second")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	items, err := sqldb.QueryItems[note](ctx, c, "SELECT id, body FROM notes ORDER BY id")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[1].Body)

	item, err := sqldb.QueryItem[note](ctx, c, "SELECT id, body FROM notes WHERE id = ?", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", item.Body)

	_, err = sqldb.QueryItem[note](ctx, c, "SELECT id, body FROM notes WHERE id = ?", "zzz")
	assert.ErrorIs(t, err, sqldb.ErrNoRows)
}

func TestClient_Tx(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	_, err := c.Exec(ctx, "CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT NOT NULL)")
	require.NoError(t, err)

	tx, err := c.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO notes (id, body) VALUES (?, ?)", "a", "rolled back")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	var count int
	require.NoError(t, c.QueryRow(ctx, "SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Zero(t, count)

	tx, err = c.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO notes (id, body) VALUES (?, ?)", "a", "kept")
	require.NoError(t, err)
	require.NoError(t, tx.QueryRow(ctx, "SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, tx.Commit(ctx))
}

func TestClient_ListenNotSupported(t *testing.T) {
	c := openMemory(t)
	_, err := c.Listen(context.Background(), "feed")
	assert.ErrorIs(t, err, sqldb.ErrNotSupported)
	assert.ErrorIs(t, c.Notify(context.Background(), "feed", "x"), sqldb.ErrNotSupported)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := sqldb.New(&sqldb.Conf{Type: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, sqldb.Types(), DBType)
}
