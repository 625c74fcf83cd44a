package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/sqldb"
	"github.com/zeptools/legalgram/db/sqldb/stdsql"
)

const DBType = "mysql"

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

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	var err error
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		dc := driver.NewConfig()
		dc.User = c.Conf.User
		dc.Passwd = c.Conf.PW
		dc.Net = "tcp"
		dc.Addr = c.Conf.Addr()
		dc.DBName = c.Conf.DB
		dc.ParseTime = true
		dc.Loc = c.Conf.Location()
		// standard identifier quoting, same as pgsql and sqlite
		dc.Params = map[string]string{"sql_mode": "'ANSI_QUOTES'"}
		c.dsn = dc.FormatDSN()
	}
	if c.DB, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	c.DB.SetConnMaxLifetime(time.Minute * 3)
	maxConns := 10
	if c.Conf.MaxOpenConns > 0 {
		maxConns = c.Conf.MaxOpenConns
	}
	c.DB.SetMaxOpenConns(maxConns)
	c.DB.SetMaxIdleConns(maxConns)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	zap.L().Info("mysql client initialized", zap.String("db", c.Conf.DB))
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
		return fmt.Errorf("mysql client not initialized")
	}
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	zap.L().Info("closing mysql client")
	if err := c.DB.Close(); err != nil {
		return err
	}
	zap.L().Info("mysql client closed")
	return nil
}
