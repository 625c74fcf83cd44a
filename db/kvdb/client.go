package kvdb

import (
	"context"
	"errors"
	"time"
)

// Client is the key-value store behind wizard sessions. Records are flat string hashes with a TTL.
type Client interface {
	Init() error
	Close() error
	GetConf() *Conf

	Ping(ctx context.Context) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Expire updates the TTL of key and reports whether the key exists.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ScanKeys returns one batch of keys matching pattern ("" = all) and the cursor of the next batch.
	// nextCursor is nil once the scan is complete. Cursors are backend-specific.
	// Backends that cannot iterate keys return ErrNotSupported.
	ScanKeys(ctx context.Context, pattern string, cursor any, batchSize int) (keys []string, nextCursor any, err error)

	// PutHash writes fields into the hash at key and sets its TTL in one step.
	PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
	// UpdateHash writes fields only when key still exists and reports whether it did.
	// The TTL is left as is.
	UpdateHash(ctx context.Context, key string, fields map[string]any) (bool, error)
	// GetHash returns every field of key; a missing key gives an empty map.
	GetHash(ctx context.Context, key string) (map[string]string, error)
}

var ErrNotSupported = errors.New("kvdb: operation not supported")

// CountKeys scans every key matching pattern.
func CountKeys(ctx context.Context, c Client, pattern string) (int, error) {
	var (
		total  int
		cursor any
	)
	for {
		keys, next, err := c.ScanKeys(ctx, pattern, cursor, 100)
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == nil {
			return total, nil
		}
		cursor = next
	}
}
