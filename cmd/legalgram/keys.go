package main

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zeptools/legalgram/sec"
)

func newKeygenCmd() *cobra.Command {
	var (
		dir  string
		bits int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create an RSA signing key pair for feed access tokens",
		Long:  "Writes <kid>_private.pem and <kid>_public.pem. Point auth.jwks_dir of .core.json at the public key directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bits < 2048 {
				return errors.New("--bits must be at least 2048")
			}
			key, err := rsa.GenerateKey(rand.Reader, bits)
			if err != nil {
				return err
			}
			kid, err := sec.KeyID(&key.PublicKey, 16)
			if err != nil {
				return err
			}
			if _, err = sec.WriteKeyPair(dir, kid, key); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), kid)
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "keys", "output directory")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		keyPath  string
		kid      string
		subject  string
		name     string
		issuer   string
		audience string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with a keygen private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keyPath == "" {
				return errors.New("--key is required")
			}
			key, err := sec.ReadPrivateKey(keyPath)
			if err != nil {
				return err
			}
			if kid == "" {
				if kid, err = sec.KeyID(&key.PublicKey, 16); err != nil {
					return err
				}
			}
			if subject == "" {
				subject = uuid.NewString()
			}
			now := time.Now()
			claims := &sec.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   subject,
					Issuer:    issuer,
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				},
				Name: name,
			}
			if audience != "" {
				claims.Audience = jwt.ClaimStrings{audience}
			}
			token, err := sec.IssueRS256Token(claims, key, kid)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&keyPath, "key", "", "private PEM key file")
	flags.StringVar(&kid, "kid", "", "key id (default: derived from the key)")
	flags.StringVar(&subject, "sub", "", "user id (default: a random UUID)")
	flags.StringVar(&name, "name", "", "display name")
	flags.StringVar(&issuer, "issuer", "", "iss claim")
	flags.StringVar(&audience, "audience", "", "aud claim")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
