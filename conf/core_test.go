package conf

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/pdfs"
)

func writeConfig(t *testing.T, root, name string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", name), raw, 0o600))
}

// appRoot is short so the admin socket path fits the unix socket limit.
func appRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "lg")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func newCore(t *testing.T, root string) *Core {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := &Core{}
	require.NoError(t, c.BaseInit(root, ctx, cancel, nil))
	return c
}

func TestCore_Defaults(t *testing.T) {
	root := appRoot(t)
	c := newCore(t, root)
	assert.Equal(t, "legalgram", c.AppName)
	assert.Equal(t, DefaultListen, c.Listen)

	require.NoError(t, c.PrepareAll())
	assert.NotNil(t, c.Registry)
	assert.Positive(t, c.Registry.Len())
	assert.Equal(t, pdfs.PaperSize{}, c.Generator.Paper)
	assert.Nil(t, c.WebSessionManager)
	assert.Nil(t, c.Feed)
	assert.Nil(t, c.Chat)
	assert.Nil(t, c.Verifier)
	assert.Nil(t, c.ThrottleBucketStore)
	assert.Equal(t, filepath.Join(root, DefaultUDSPath), c.UDSService.SocketPath)
	assert.Empty(t, c.JobScheduler.CronJobs())
}

func TestCore_BadConfig(t *testing.T) {
	root := appRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", CoreFile), []byte("{"), 0o600))
	c := &Core{}
	assert.Error(t, c.BaseInit(root, context.Background(), func() {}, nil))

	writeConfig(t, root, CoreFile, map[string]any{"pdf": map[string]any{"paper": "tabloid"}})
	c = newCore(t, root)
	assert.ErrorContains(t, c.PrepareAll(), "tabloid")

	writeConfig(t, root, CoreFile, map[string]any{"pdf": map[string]any{"paper": "letter", "margin": 400}})
	c = newCore(t, root)
	assert.ErrorIs(t, c.PrepareAll(), pdfs.ErrMarginTooLarge)

	writeConfig(t, root, CoreFile, map[string]any{"feed_db": "main"})
	c = newCore(t, root)
	assert.ErrorContains(t, c.PrepareAll(), `feed database "main"`)

	writeConfig(t, root, CoreFile, map[string]any{})
	writeConfig(t, root, KVDBFile, map[string]any{"type": "memcached"})
	c = newCore(t, root)
	assert.ErrorContains(t, c.PrepareAll(), "memcached")

	writeConfig(t, root, CoreFile, map[string]any{"throttle": map[string]any{"groups": map[string]any{"feed": map[string]any{"burst": 0}}}})
	require.NoError(t, os.Remove(filepath.Join(root, "config", KVDBFile)))
	c = newCore(t, root)
	assert.ErrorContains(t, c.PrepareAll(), `throttle group "feed"`)

	writeConfig(t, root, CoreFile, map[string]any{"jobs": map[string]any{"media-sweep": "61 * * * *"}})
	writeConfig(t, root, StoragesFile, map[string]any{"media": map[string]any{"type": "fs", "root": "media"}})
	c = newCore(t, root)
	assert.ErrorContains(t, c.PrepareAll(), "job media-sweep")
}

func TestCore_FullStack(t *testing.T) {
	root := appRoot(t)
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	writeConfig(t, root, CoreFile, map[string]any{
		"app_name": "lgtest",
		"listen":   "127.0.0.1:0",
		"uds_path": "a.sock",
		"feed_db":  "main",
		"pdf":      map[string]any{"paper": "a4"},
		"throttle": map[string]any{
			"groups": map[string]any{"generate": map[string]any{"burst": 5, "increment": 1, "period_ms": 1000}},
		},
		"jobs": map[string]any{"media-sweep": "*/30 * * * *", "retired": "* * * * *"},
	})
	writeConfig(t, root, KVDBFile, map[string]any{"type": "redis", "host": mr.Host(), "port": port})
	writeConfig(t, root, SQLDBFile, map[string]any{"main": map[string]any{"type": "sqlite", "db": ":memory:"}})
	writeConfig(t, root, WebSessionFile, map[string]any{"enckey": "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8"})
	writeConfig(t, root, StoragesFile, map[string]any{"media": map[string]any{"type": "fs", "root": "media"}})
	writeConfig(t, root, ChatAPIFile, map[string]any{"host": "http://127.0.0.1:1"})

	c := newCore(t, root)
	require.NoError(t, c.PrepareAll())
	assert.Equal(t, pdfs.A4Size, c.Generator.Paper)
	require.NotNil(t, c.WebSessionManager)
	require.NotNil(t, c.Feed)
	require.NotNil(t, c.Chat)
	require.NotNil(t, c.MediaStore)
	assert.Equal(t, filepath.Join(root, "media"), c.MediaStore.Root)
	assert.Equal(t, []string{"generate"}, c.ThrottleBucketStore.GroupIDs())
	jobs := c.JobScheduler.CronJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, WizardSessionsJobSpec, jobs[0].Spec)
	assert.Equal(t, "*/30 * * * *", jobs[1].Spec)

	require.NoError(t, c.StartServices())
	resp, err := http.Get("http://" + c.WebService.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.FileExists(t, filepath.Join(root, "a.sock"))

	c.RootCancel()
	waited := make(chan error, 1)
	go func() { waited <- c.WaitServicesDone() }()
	select {
	case err = <-waited:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("services did not stop")
	}
	c.ResourceCleanUp()
}
