package sqldb

import (
	"net"
	"strconv"
	"time"
)

// Conf is one named entry of config/.sql-databases.json.
type Conf struct {
	Type string `json:"type"` // pgsql, mysql, sqlite
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	PW   string `json:"pw"`
	DB   string `json:"db"`  // database name, or the file path for sqlite
	TZ   string `json:"tz"`  // session time zone, UTC when empty
	DSN  string `json:"dsn"` // used verbatim instead of the fields above

	MaxOpenConns int `json:"max_open_conns"` // 0 = driver default
}

func (c *Conf) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Conf) TimeZone() string {
	if c.TZ == "" {
		return "UTC"
	}
	return c.TZ
}

// Location resolves TimeZone, falling back to UTC for unknown names.
func (c *Conf) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone())
	if err != nil {
		return time.UTC
	}
	return loc
}
