package media

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/sec"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStore(t *testing.T, maxBytes int64) *FSStore {
	t.Helper()
	s, err := NewFSStore(filepath.Join(t.TempDir(), "media"), "/media/", maxBytes, nil)
	require.NoError(t, err)
	return s
}

func TestFSStore_Upload(t *testing.T) {
	s := newStore(t, 0)
	assert.EqualValues(t, DefaultMaxBytes, s.MaxBytes)

	obj, err := s.Upload(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.True(t, ValidKey(obj.Key), obj.Key)
	assert.Equal(t, ".png", filepath.Ext(obj.Key))
	assert.Equal(t, sec.HashHexSHA256(pngHeader), obj.SHA256)
	assert.EqualValues(t, len(pngHeader), obj.Size)
	assert.Equal(t, "/media/"+obj.Key, s.PublicURL(obj.Key))

	stored, err := os.ReadFile(filepath.Join(s.Root, obj.Key))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	entries, err := os.ReadDir(s.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFSStore_Rejects(t *testing.T) {
	s := newStore(t, 16)
	_, err := s.Upload(context.Background(), bytes.NewReader([]byte("just some plain text")))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.Upload(context.Background(), bytes.NewReader([]byte("plain text")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Upload(ctx, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFSStore_Serve(t *testing.T) {
	s := newStore(t, 0)
	obj, err := s.Upload(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("GET /media/{key}", s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/"+obj.Key, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/not-a-key.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFSStore_SweepTemp(t *testing.T) {
	s := newStore(t, 0)
	obj, err := s.Upload(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)

	stale := filepath.Join(s.Root, ".upload-stale")
	fresh := filepath.Join(s.Root, ".upload-fresh")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	now := time.Now()
	require.NoError(t, os.Chtimes(stale, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))

	n, err := s.SweepTemp(now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, filepath.Join(s.Root, obj.Key))
}
