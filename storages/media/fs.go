package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/sec"
)

const tempPrefix = ".upload-"

var regexKey = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[a-z0-9]{2,5}$`)

// FSStore keeps objects as flat files named <uuid><ext> under Root.
type FSStore struct {
	Root     string
	BaseURL  string
	MaxBytes int64
	Logger   *zap.Logger
}

var _ Store = (*FSStore)(nil)

func NewFSStore(root, baseURL string, maxBytes int64, logger *zap.Logger) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes, Logger: logger}, nil
}

func (s *FSStore) Upload(ctx context.Context, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media read: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return nil, ErrTooLarge
	}
	contentType := sniff(data)
	ext, ok := AllowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	obj := &Object{
		Key:         uuid.NewString() + ext,
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      sec.HashHexSHA256(data),
	}
	tmp, err := os.CreateTemp(s.Root, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("media temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("media write: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("media write: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(s.Root, obj.Key)); err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}
	s.Logger.Debug("media stored", zap.String("key", obj.Key), zap.Int64("size", obj.Size))
	return obj, nil
}

func (s *FSStore) PublicURL(key string) string {
	return s.BaseURL + "/" + key
}

// ServeHTTP serves GET {BaseURL}/{key} for the object key in the "key" path value.
func (s *FSStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !regexKey.MatchString(key) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFileFS(w, r, os.DirFS(s.Root), key)
}

// ValidKey reports whether key could have been produced by Upload.
func ValidKey(key string) bool {
	return regexKey.MatchString(key)
}

// SweepTemp removes upload temp files older than olderThan, left behind by interrupted writes.
func (s *FSStore) SweepTemp(now time.Time, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return 0, fmt.Errorf("media sweep: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < olderThan {
			continue
		}
		if err = os.Remove(filepath.Join(s.Root, e.Name())); err != nil && !os.IsNotExist(err) {
			s.Logger.Warn("media temp file not removed", zap.String("name", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
