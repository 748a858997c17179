package token_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/damnyan/caxur/internal/token"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *token.Signer {
	t.Helper()
	pub, priv, err := token.GenerateEd25519()
	require.NoError(t, err)
	s, err := token.NewSigner("https://caxur.test", priv, pub)
	require.NoError(t, err)
	return s
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := newTestSigner(t)

	signed, exp, err := s.Issue("principal-1", repository.PrincipalTypeUser, 5*time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 2*time.Second)

	claims, err := s.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "principal-1", claims.PrincipalID)
	require.Equal(t, repository.PrincipalTypeUser, claims.PrincipalType)
	require.WithinDuration(t, exp, claims.ExpiresAt, time.Second)
}

func TestVerifyExpired(t *testing.T) {
	s := newTestSigner(t)

	signed, _, err := s.Issue("principal-1", repository.PrincipalTypeUser, 1*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = s.Verify(signed)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyMalformed(t *testing.T) {
	s := newTestSigner(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := s.Verify(raw)
		require.ErrorIs(t, err, token.ErrTokenMalformed, "raw=%q", raw)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	signer := newTestSigner(t)
	other := newTestSigner(t)

	signed, _, err := signer.Issue("principal-1", repository.PrincipalTypeUser, time.Minute)
	require.NoError(t, err)

	_, err = other.Verify(signed)
	require.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	s := newTestSigner(t)

	_, _, err := s.Issue("principal-1", repository.PrincipalTypeUser, 0)
	require.ErrorIs(t, err, token.ErrInvalidTTL)
}

func TestVerifyOnlyMode(t *testing.T) {
	pub, priv, err := token.GenerateEd25519()
	require.NoError(t, err)

	full, err := token.NewSigner("https://caxur.test", priv, pub)
	require.NoError(t, err)
	verifyOnly, err := token.NewSigner("https://caxur.test", nil, pub)
	require.NoError(t, err)

	require.False(t, verifyOnly.CanIssue())

	_, _, err = verifyOnly.Issue("principal-1", repository.PrincipalTypeUser, time.Minute)
	require.ErrorIs(t, err, token.ErrNoSigningKey)

	// Verification still works without the private key.
	signed, _, err := full.Issue("principal-1", repository.PrincipalTypeAdministrator, time.Minute)
	require.NoError(t, err)
	claims, err := verifyOnly.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, repository.PrincipalTypeAdministrator, claims.PrincipalType)
}

func TestNewSignerFromFiles(t *testing.T) {
	pub, priv, err := token.GenerateEd25519()
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private_key.pem")
	pubPath := filepath.Join(dir, "public_key.pem")

	privPEM, err := token.MarshalPrivateKeyPEM(priv)
	require.NoError(t, err)
	pubPEM, err := token.MarshalPublicKeyPEM(pub)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))

	s, err := token.NewSignerFromFiles("https://caxur.test", privPath, pubPath)
	require.NoError(t, err)
	require.True(t, s.CanIssue())

	signed, _, err := s.Issue("p1", repository.PrincipalTypeUser, time.Minute)
	require.NoError(t, err)
	_, err = s.Verify(signed)
	require.NoError(t, err)
}

func TestNewSignerFromFilesMissingPrivateIsVerifyOnly(t *testing.T) {
	pub, _, err := token.GenerateEd25519()
	require.NoError(t, err)

	dir := t.TempDir()
	pubPath := filepath.Join(dir, "public_key.pem")
	pubPEM, err := token.MarshalPublicKeyPEM(pub)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))

	s, err := token.NewSignerFromFiles("https://caxur.test", filepath.Join(dir, "nope.pem"), pubPath)
	require.NoError(t, err)
	require.False(t, s.CanIssue())
}

func TestNewSignerFromFilesMalformedKey(t *testing.T) {
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "public_key.pem")
	require.NoError(t, os.WriteFile(pubPath, []byte("not a pem"), 0o644))

	_, err := token.NewSignerFromFiles("https://caxur.test", "", pubPath)
	require.ErrorIs(t, err, token.ErrMalformedKey)
}
