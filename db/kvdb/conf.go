package kvdb

import (
	"net"
	"strconv"
)

// DefaultPort is used when Conf.Port is zero.
const DefaultPort = 6379

// Conf is one entry of config/.kv-databases.json.
type Conf struct {
	Type string `json:"type"` // only "redis" is registered
	Host string `json:"host"`
	Port int    `json:"port"`
	PW   string `json:"pw"`
	DB   int    `json:"db"` // logical database number
}

// Addr is host:port with the default port filled in.
func (c *Conf) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
