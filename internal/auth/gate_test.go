package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/damnyan/caxur/internal/auth"
	"github.com/damnyan/caxur/internal/authz"
	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/damnyan/caxur/internal/security/password"
	"github.com/damnyan/caxur/internal/store/memory"
	"github.com/damnyan/caxur/internal/token"
	"github.com/stretchr/testify/require"
)

var hashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type fixture struct {
	store  *memory.Store
	gate   *auth.Gate
	signer *token.Signer
}

func newFixture(t *testing.T, accessTTL time.Duration) *fixture {
	t.Helper()
	pub, priv, err := token.GenerateEd25519()
	require.NoError(t, err)
	signer, err := token.NewSigner("https://caxur.test", priv, pub)
	require.NoError(t, err)

	store := memory.New()
	gate := auth.NewGate(auth.Deps{
		Principals: store,
		Tokens:     store,
		Resolver:   authz.NewResolver(store),
		Signer:     signer,
		AccessTTL:  accessTTL,
		RefreshTTL: time.Hour,
	})
	return &fixture{store: store, gate: gate, signer: signer}
}

func (f *fixture) seedUser(t *testing.T, identifier, plain string, perms ...string) *repository.Principal {
	t.Helper()
	hash, err := password.Hash(hashParams, plain)
	require.NoError(t, err)
	p := f.store.SeedPrincipal(repository.Principal{
		Identifier:     identifier,
		CredentialHash: hash,
		Type:           repository.PrincipalTypeUser,
	})
	if len(perms) > 0 {
		role := f.store.SeedRole(repository.Role{
			Name:        "role-for-" + identifier,
			Scope:       repository.RoleScopeAdministrator,
			Permissions: perms,
		})
		require.NoError(t, f.store.AssignRole(context.Background(), p.ID, role.ID))
	}
	return p
}

func TestLoginThenAuthorize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5*time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234", "users:read")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.InDelta(t, 300, pair.ExpiresIn, 5)

	claims, err := f.gate.AuthorizeRequest(ctx, pair.AccessToken, "users:read")
	require.NoError(t, err)
	require.Equal(t, repository.PrincipalTypeUser, claims.PrincipalType)
}

func TestLoginFailuresAreUndifferentiated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234")

	// Unknown account and wrong password must be indistinguishable.
	_, errUnknown := f.gate.Login(ctx, repository.PrincipalTypeUser, "nobody@example.com", "pass-1234")
	_, errWrongPw := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "wrong")

	require.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPw, auth.ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestAuthorizeExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1*time.Millisecond)
	f.seedUser(t, "alice@example.com", "pass-1234", "users:read")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = f.gate.AuthorizeRequest(ctx, pair.AccessToken, "users:read")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestAuthorizeForbiddenVsAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234", "users:read")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)

	_, err = f.gate.AuthorizeRequest(ctx, pair.AccessToken, "users:read")
	require.NoError(t, err)

	_, err = f.gate.AuthorizeRequest(ctx, pair.AccessToken, "users:delete")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestAuthorizeWildcard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "root@example.com", "pass-1234", "*")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "root@example.com", "pass-1234")
	require.NoError(t, err)

	for _, p := range []string{"users:read", "users:delete", "roles:manage"} {
		_, err := f.gate.AuthorizeRequest(ctx, pair.AccessToken, p)
		require.NoError(t, err, "permission %q", p)
	}
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)

	next, err := f.gate.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed secret can never be exchanged again, even well before
	// its original expiry.
	_, err = f.gate.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// The replacement works.
	_, err = f.gate.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExactlyOnceConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.gate.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	okCount, notFoundCount := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case repository.IsNotFound(err):
			notFoundCount++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	require.Equal(t, 1, okCount)
	require.Equal(t, 1, notFoundCount)
}

func TestRevokeAllInvalidatesEverySecret(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	p := f.seedUser(t, "alice@example.com", "pass-1234")

	var secrets []string
	for i := 0; i < 3; i++ {
		pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
		require.NoError(t, err)
		secrets = append(secrets, pair.RefreshToken)
	}

	n, err := f.gate.RevokeAll(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	for _, s := range secrets {
		_, err := f.gate.Refresh(ctx, s)
		require.ErrorIs(t, err, repository.ErrNotFound)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.seedUser(t, "alice@example.com", "pass-1234")

	pair, err := f.gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.NoError(t, err)

	require.NoError(t, f.gate.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.gate.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.gate.Logout(ctx, "never-issued"))

	_, err = f.gate.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerifyOnlyGateDisablesLoginAndRefresh(t *testing.T) {
	ctx := context.Background()
	pub, priv, err := token.GenerateEd25519()
	require.NoError(t, err)
	full, err := token.NewSigner("https://caxur.test", priv, pub)
	require.NoError(t, err)
	verifyOnly, err := token.NewSigner("https://caxur.test", nil, pub)
	require.NoError(t, err)

	store := memory.New()
	hash, err := password.Hash(hashParams, "pass-1234")
	require.NoError(t, err)
	store.SeedPrincipal(repository.Principal{
		Identifier:     "alice@example.com",
		CredentialHash: hash,
		Type:           repository.PrincipalTypeUser,
	})

	gate := auth.NewGate(auth.Deps{
		Principals: store,
		Tokens:     store,
		Resolver:   authz.NewResolver(store),
		Signer:     verifyOnly,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})

	_, err = gate.Login(ctx, repository.PrincipalTypeUser, "alice@example.com", "pass-1234")
	require.ErrorIs(t, err, token.ErrNoSigningKey)

	_, err = gate.Refresh(ctx, "whatever")
	require.ErrorIs(t, err, token.ErrNoSigningKey)

	// authorize_request keeps working with only the public key.
	signed, _, err := full.Issue("some-id", repository.PrincipalTypeUser, time.Minute)
	require.NoError(t, err)
	claims, err := gate.AuthorizeRequest(ctx, signed, "")
	require.NoError(t, err)
	require.Equal(t, "some-id", claims.PrincipalID)
}
