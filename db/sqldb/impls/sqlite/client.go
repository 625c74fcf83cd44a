package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // side-effect: registers the "sqlite" driver

	"github.com/zeptools/legalgram/db/sqldb"
	"github.com/zeptools/legalgram/db/sqldb/stdsql"
)

const DBType = "sqlite"

// MemoryDB opens a private in-memory database.
const MemoryDB = ":memory:"

func init() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf) (sqldb.Client, error) {
		return &Client{Conf: conf}, nil
	})
}

type Client struct {
	stdsql.Handle // [Embedded] for Promoted Methods
	Conf          *sqldb.Conf
	dsn           string
}

// Ensure sqlite.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

// Init opens Conf.DSN, or the file Conf.DB. Foreign keys are enforced.
func (c *Client) Init() error {
	var err error
	switch {
	case c.Conf.DSN != "":
		c.dsn = c.Conf.DSN
	case c.Conf.DB == "" || c.Conf.DB == MemoryDB:
		c.dsn = MemoryDB
	default:
		c.dsn = "file:" + c.Conf.DB
	}
	dsn := c.dsn
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	if c.DB, err = sql.Open(DBType, dsn); err != nil {
		return err
	}
	// a second connection to :memory: would see a different, empty database
	c.DB.SetMaxOpenConns(1)
	if err = c.Ping(context.Background()); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	zap.L().Info("sqlite client initialized", zap.String("dsn", c.dsn))
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) GetDSN() string {
	return c.dsn
}

func (c *Client) PlaceholderPrefix() byte {
	return sqldb.PlaceholderPrefixForDBType[DBType]
}

func (c *Client) Ping(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("sqlite client not initialized")
	}
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
