package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/sec"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	out, _, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "bill-of-sale")
	assert.Contains(t, out, "Bill of Sale")

	out, _, err = run(t, "list", "bill-of-sale")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Seller")
	assert.Contains(t, out, "sellerName")

	_, _, err = run(t, "list", "no-such-type")
	assert.Error(t, err)
}

func TestGenerate_TextToStdout(t *testing.T) {
	out, stderr, err := run(t, "generate", "bill-of-sale",
		"--set", "sellerName=Zyxwvut", "--set", "nope=1",
		"--format", "text", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Zyxwvut")
	assert.Contains(t, out, "BILL OF SALE")
	assert.Contains(t, stderr, "ignored unknown fields: nope")
}

func TestGenerate_PDFFile(t *testing.T) {
	dir := t.TempDir()
	fields := filepath.Join(dir, "fields.json")
	raw, err := json.Marshal(map[string]string{"buyerName": "Grace Hopper"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fields, raw, 0o644))

	out := filepath.Join(dir, "out", "sale.pdf")
	_, stderr, err := run(t, "generate", "bill-of-sale", "--fields", fields, "--paper", "a4", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote "+out)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerate_BadInput(t *testing.T) {
	cases := map[string][]string{
		"bad set":      {"generate", "bill-of-sale", "--set", "novalue", "-o", "-"},
		"bad format":   {"generate", "bill-of-sale", "--format", "docx", "-o", "-"},
		"bad paper":    {"generate", "bill-of-sale", "--paper", "tabloid", "-o", "-"},
		"missing file": {"generate", "bill-of-sale", "--fields", filepath.Join(t.TempDir(), "none.json")},
		"no type":      {"generate"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestPreview(t *testing.T) {
	out, _, err := run(t, "preview", "bill-of-sale", "--raw", "--set", "sellerName=Zyxwvut")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# BILL OF SALE"), out)
	assert.Contains(t, out, "Zyxwvut")

	out, _, err = run(t, "preview", "bill-of-sale", "--width", "60")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestKeygenAndToken(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "keygen", "--dir", dir)
	require.NoError(t, err)
	kid := strings.TrimSpace(out)
	require.Len(t, kid, 32)
	assert.FileExists(t, filepath.Join(dir, kid+sec.PrivateKeyFileSuffix))
	assert.FileExists(t, filepath.Join(dir, kid+sec.PublicKeyFileSuffix))

	out, _, err = run(t, "token", "--key", filepath.Join(dir, kid+sec.PrivateKeyFileSuffix),
		"--sub", "u-1", "--name", "Ada", "--issuer", "legalgram")
	require.NoError(t, err)

	jwks, err := sec.LoadPublicPEMKeysAsJWKS(dir)
	require.NoError(t, err)
	verifier, err := sec.NewTokenVerifier(jwks, "legalgram", "")
	require.NoError(t, err)
	claims, err := verifier.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)

	_, _, err = run(t, "keygen", "--dir", dir, "--bits", "1024")
	assert.Error(t, err)
	_, _, err = run(t, "token")
	assert.Error(t, err)
}

func TestRoot_BadLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "list")
	assert.Error(t, err)
}
