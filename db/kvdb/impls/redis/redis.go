package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/kvdb"
)

// initTimeout bounds the startup ping so a missing server fails the boot instead of the first request.
const initTimeout = 3 * time.Second

const maxWatchRetries = 5

type Client struct {
	Conf *kvdb.Conf

	internal *lowimpl.Client
}

var _ kvdb.Client = (*Client)(nil)

var errKeyGone = errors.New("redis: key gone")

func (c *Client) Init() error {
	c.internal = lowimpl.NewClient(&lowimpl.Options{
		Addr:     c.Conf.Addr(),
		Password: c.Conf.PW,
		DB:       c.Conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.internal.Close()
		return fmt.Errorf("redis %s: %w", c.Conf.Addr(), err)
	}
	zap.L().Info("redis client initialized", zap.String("addr", c.Conf.Addr()), zap.Int("db", c.Conf.DB))
	return nil
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

func (c *Client) Ping(ctx context.Context) error {
	return c.internal.Ping(ctx).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.internal.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	return c.internal.Del(ctx, keys...).Result()
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.internal.Expire(ctx, key, ttl).Result()
}

func (c *Client) ScanKeys(ctx context.Context, pattern string, cursor any, batchSize int) ([]string, any, error) {
	var cur uint64
	if cursor != nil {
		var ok bool
		if cur, ok = cursor.(uint64); !ok {
			return nil, nil, fmt.Errorf("redis: invalid scan cursor %T", cursor)
		}
	}
	if pattern == "" {
		pattern = "*"
	}
	keys, next, err := c.internal.Scan(ctx, cur, pattern, int64(batchSize)).Result()
	if err != nil {
		return nil, nil, err
	}
	if next == 0 {
		return keys, nil, nil
	}
	return keys, next, nil
}

func (c *Client) PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error {
	_, err := c.internal.TxPipelined(ctx, func(p lowimpl.Pipeliner) error {
		p.HSet(ctx, key, fields)
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// UpdateHash watches key so a delete or expiry between the check and the write aborts the write.
// A concurrent touch of key (e.g. a TTL refresh) retries.
func (c *Client) UpdateHash(ctx context.Context, key string, fields map[string]any) (bool, error) {
	update := func(tx *lowimpl.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return errKeyGone
		}
		_, err = tx.TxPipelined(ctx, func(p lowimpl.Pipeliner) error {
			p.HSet(ctx, key, fields)
			return nil
		})
		return err
	}
	for range maxWatchRetries {
		err := c.internal.Watch(ctx, update, key)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, errKeyGone):
			return false, nil
		case !errors.Is(err, lowimpl.TxFailedErr):
			return false, err
		}
	}
	return false, fmt.Errorf("redis: %s changed %d times during update", key, maxWatchRetries)
}

func (c *Client) GetHash(ctx context.Context, key string) (map[string]string, error) {
	return c.internal.HGetAll(ctx, key).Result()
}
