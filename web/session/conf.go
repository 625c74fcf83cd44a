package session

import (
	"time"

	"github.com/zeptools/legalgram/sec"
)

const (
	DefaultExpireSliding = 30 * 60      // seconds
	DefaultExpireHardcap = 24 * 60 * 60 // seconds
)

// Conf is loaded from config/.web-session.json
type Conf struct {
	EncryptionKey string                       `json:"enckey"`
	Cipher        *sec.XChaCha20Poly1305Cipher `json:"-"`

	ExpireSliding int `json:"expire_sliding"` // seconds of inactivity before a wizard session expires
	ExpireHardcap int `json:"expire_hardcap"` // seconds since start after which a session expires regardless

	// InsecureCookie drops the Secure flag and the __Host- prefix. For plain-HTTP local development only.
	InsecureCookie bool `json:"insecure_cookie"`
}

// Prepare fills defaults and builds the cookie cipher from EncryptionKey.
func (c *Conf) Prepare() error {
	if c.ExpireSliding <= 0 {
		c.ExpireSliding = DefaultExpireSliding
	}
	if c.ExpireHardcap <= 0 {
		c.ExpireHardcap = DefaultExpireHardcap
	}
	if c.ExpireSliding > c.ExpireHardcap {
		c.ExpireSliding = c.ExpireHardcap
	}
	key, err := sec.ParseKey(c.EncryptionKey)
	if err != nil {
		return err
	}
	c.Cipher, err = sec.NewXChaCha20Poly1305Cipher(key)
	return err
}

func (c *Conf) Sliding() time.Duration { return time.Duration(c.ExpireSliding) * time.Second }

func (c *Conf) Hardcap() time.Duration { return time.Duration(c.ExpireHardcap) * time.Second }
