package sec

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertextInvalid = errors.New("sec: ciphertext invalid")

// XChaCha20Poly1305Cipher seals short values (session ids) into URL-safe strings.
// The random 24-byte nonce is prepended to every ciphertext.
type XChaCha20Poly1305Cipher struct {
	aead cipher.AEAD
}

func NewXChaCha20Poly1305Cipher(key []byte) (*XChaCha20Poly1305Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &XChaCha20Poly1305Cipher{aead: aead}, nil
}

// ParseKey accepts a 32-byte key written as 64 hex digits or unpadded/padded base64 (URL or standard alphabet).
func ParseKey(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
			return b, nil
		}
	}
	return nil, fmt.Errorf("encryption key must encode %d bytes as hex or base64", chacha20poly1305.KeySize)
}

// EncryptEncode seals plaintext bound to additionalData (e.g. the cookie name).
func (c *XChaCha20Poly1305Cipher) EncryptEncode(plaintext []byte, additionalData []byte) (string, error) {
	// Generate a random nonce every time, and leave capacity for the ciphertext
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ciphertext := c.aead.Seal(nonce, nonce, plaintext, additionalData)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (c *XChaCha20Poly1305Cipher) DecodeDecrypt(encoded string, additionalData []byte) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertextInvalid, err)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: too short", ErrCiphertextInvalid)
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	// Decrypt the message and check it wasn't tampered with
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertextInvalid, err)
	}
	return plaintext, nil
}
