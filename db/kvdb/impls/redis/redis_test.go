package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/db/kvdb"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	c := &Client{Conf: &kvdb.Conf{Type: "redis", Host: mr.Host(), Port: port}}
	require.NoError(t, c.Init())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient_InitFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()
	c := &Client{Conf: &kvdb.Conf{Type: "redis", Host: "127.0.0.1", Port: port}}
	assert.Error(t, c.Init())
}

func TestClient_PutAndGetHash(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)

	require.NoError(t, c.PutHash(ctx, "h", map[string]any{"a": "1", "b": 2}, time.Minute))
	got, err := c.GetHash(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
	assert.Equal(t, time.Minute, mr.TTL("h"))

	got, err = c.GetHash(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)

	ok, err := c.Expire(ctx, "h", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	mr.FastForward(2 * time.Second)
	exists, err := c.Exists(ctx, "h")
	require.NoError(t, err)
	assert.False(t, exists)

	ok, err = c.Expire(ctx, "h", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_UpdateHash(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)

	found, err := c.UpdateHash(ctx, "h", map[string]any{"a": "1"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("h"), "update must not create the key")

	require.NoError(t, c.PutHash(ctx, "h", map[string]any{"a": "1", "b": "2"}, time.Minute))
	found, err = c.UpdateHash(ctx, "h", map[string]any{"b": "3"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", mr.HGet("h", "a"))
	assert.Equal(t, "3", mr.HGet("h", "b"))
	assert.Equal(t, time.Minute, mr.TTL("h"))

	deleted, err := c.Delete(ctx, "h")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestClient_ScanAndCountKeys(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set("app_wizard:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, mr.Set("other", "x"))

	n, err := kvdb.CountKeys(ctx, c, "app_wizard:*")
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	n, err = kvdb.CountKeys(ctx, c, "")
	require.NoError(t, err)
	assert.Equal(t, 251, n)

	_, _, err = c.ScanKeys(ctx, "", "bad cursor", 10)
	assert.Error(t, err)
}
