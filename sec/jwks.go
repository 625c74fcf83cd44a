package sec

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

var ErrKeyNotFound = errors.New("sec: key not found")

// PublicKeyFileSuffix marks key files in a JWKS directory. The key id is the file name without it.
const PublicKeyFileSuffix = "_public.pem"

// JWK JSON Web Key
type JWK struct {
	Kty string `json:"kty"` // Key Type
	Use string `json:"use"` // Usage
	Kid string `json:"kid"` // Key ID
	Alg string `json:"alg"` // Algorithm
	N   string `json:"n"`   // Modulus
	E   string `json:"e"`   // Exponent
}

// ToPublicKey Convert JWK to an rsa.PublicKey
func (j *JWK) ToPublicKey() (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode N: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode E: %w", err)
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: e,
	}, nil
}

func NewJWKFromPublicKey(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// JWKS JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

func (s *JWKS) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (s *JWKS) GetJWKByKID(kid string) (*JWK, error) {
	for _, key := range s.Keys {
		if key.Kid == kid {
			return &key, nil // copy
		}
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

// PublicKeys converts every key of the set, indexed by key id.
func (s *JWKS) PublicKeys() (map[string]*rsa.PublicKey, error) {
	keys := make(map[string]*rsa.PublicKey, len(s.Keys))
	for _, jwk := range s.Keys {
		pub, err := jwk.ToPublicKey()
		if err != nil {
			return nil, fmt.Errorf("kid %q: %w", jwk.Kid, err)
		}
		keys[jwk.Kid] = pub
	}
	return keys, nil
}

// LoadPublicPEMKeysAsJWKS reads every RSA `<kid>_public.pem` file of dirPath.
// Non-RSA keys are skipped.
func LoadPublicPEMKeysAsJWKS(dirPath string) (*JWKS, error) {
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}
	var keys []JWK
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), PublicKeyFileSuffix) {
			continue
		}
		pemBytes, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read pem file %s: %w", entry.Name(), err)
		}
		pemBlock, rest := pem.Decode(pemBytes)
		if pemBlock == nil || pemBlock.Type != "PUBLIC KEY" {
			continue
		}
		if len(rest) > 0 {
			// We need a single public pem key for each key_id
			return nil, fmt.Errorf("extra data found after PEM block in %s", entry.Name())
		}
		pub, err := x509.ParsePKIXPublicKey(pemBlock.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key %s: %w", entry.Name(), err)
		}
		publicKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			continue
		}
		kid := strings.TrimSuffix(entry.Name(), PublicKeyFileSuffix)
		keys = append(keys, NewJWKFromPublicKey(kid, publicKey))
	}
	return &JWKS{Keys: keys}, nil
}
