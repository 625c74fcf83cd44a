package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

const DefaultMaxBytes = 10 << 20

var (
	ErrTooLarge        = errors.New("media: object too large")
	ErrUnsupportedType = errors.New("media: unsupported content type")
	ErrInvalidKey      = errors.New("media: invalid key")
)

// AllowedTypes maps accepted sniffed content types to the stored extension.
var AllowedTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"application/pdf": ".pdf",
}

// Object describes a stored upload.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
}

type Store interface {
	Upload(ctx context.Context, r io.Reader) (*Object, error)
	PublicURL(key string) string
}

// sniff returns the content type without parameters.
func sniff(head []byte) string {
	ct := http.DetectContentType(head)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
