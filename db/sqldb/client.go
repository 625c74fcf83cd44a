package sqldb

import (
	"context"
	"errors"
)

var (
	ErrNoRows       = errors.New("sqldb: no rows in result set")
	ErrNotSupported = errors.New("sqldb: operation not supported by this driver")
)

type Client interface {
	Handle // Methods required for Handle are also required, so, promote it
	Init() error
	Close() error
	GetConf() *Conf
	GetDSN() string
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	// PlaceholderPrefix is the bind parameter style of the driver. See PlaceholderPrefixForDBType
	PlaceholderPrefix() byte
}
