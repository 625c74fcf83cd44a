package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("sec: token invalid")

// Claims is the subset of an access token the service relies on.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// TokenVerifier checks RS256 bearer tokens against a fixed key set.
type TokenVerifier struct {
	keys     map[string]*rsa.PublicKey
	issuer   string
	audience string
	leeway   time.Duration
}

// NewTokenVerifier accepts tokens signed by any key in jwks. Empty issuer or audience disables that check.
func NewTokenVerifier(jwks *JWKS, issuer string, audience string) (*TokenVerifier, error) {
	keys, err := jwks.PublicKeys()
	if err != nil {
		return nil, err
	}
	return &TokenVerifier{keys: keys, issuer: issuer, audience: audience, leeway: 30 * time.Second}, nil
}

func (v *TokenVerifier) KeyCount() int {
	return len(v.keys)
}

func (v *TokenVerifier) keyFunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key, nil
}

// Verify parses signedToken and returns its claims. Tokens without a subject are rejected.
func (v *TokenVerifier) Verify(signedToken string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(signedToken, claims, v.keyFunc, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// IssueRS256Token signs claims with privateKey under key id kid.
func IssueRS256Token(claims *Claims, privateKey *rsa.PrivateKey, kid string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	return token.SignedString(privateKey)
}

// GenerateOpaqueToken generates a Base64-encoded, URL-safe, opaque random string
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32 // default 32 bytes (256 bits)
	}
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func HashHexSHA256(data []byte) string {
	checksum := sha256.Sum256(data)
	return hex.EncodeToString(checksum[:])
}
