package sec

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// PrivateKeyFileSuffix is the name suffix WriteKeyPair gives the private half.
const PrivateKeyFileSuffix = "_private.pem"

// WriteKeyPair stores key under dir as <kid>_private.pem and <kid>_public.pem.
// The directory is created if needed. Returns the private key path.
func WriteKeyPair(dir, kid string, key *rsa.PrivateKey) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", err
	}
	privPath := filepath.Join(dir, kid+PrivateKeyFileSuffix)
	if err = writePEM(privPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), 0o600); err != nil {
		return "", err
	}
	if err = writePEM(filepath.Join(dir, kid+PublicKeyFileSuffix), "PUBLIC KEY", pub, 0o644); err != nil {
		return "", err
	}
	return privPath, nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	return os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), perm)
}

// ReadPrivateKey loads an RSA private key in PKCS#1 or PKCS#8 PEM form.
func ReadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA key", path)
		}
		return rk, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM block %q", path, block.Type)
	}
}

// KeyID derives a stable hex key id of n bytes from the public key.
func KeyID(pub *rsa.PublicKey, n int) (string, error) {
	if n < 8 || n > sha256.Size {
		return "", errors.New("sec: key id length must be within 8..32")
	}
	h := sha256.New()
	h.Write(pub.N.Bytes())
	h.Write(big.NewInt(int64(pub.E)).Bytes())
	return hex.EncodeToString(h.Sum(nil)[:n]), nil
}
