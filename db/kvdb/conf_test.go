package kvdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConf_Addr(t *testing.T) {
	assert.Equal(t, "cache:6379", (&Conf{Host: "cache"}).Addr())
	assert.Equal(t, "127.0.0.1:7000", (&Conf{Host: "127.0.0.1", Port: 7000}).Addr())
	assert.Equal(t, "[::1]:6379", (&Conf{Host: "::1"}).Addr())
}
