package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/damnyan/caxur/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func TestCreateAndConsume(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	rec, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "hash-1",
		TTL:           time.Hour,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "hash-1", rec.TokenHash)

	got, err := s.ConsumeByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)

	// Consumed means gone.
	_, err = s.ConsumeByHash(ctx, "hash-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateDuplicateHashConflicts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	in := repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "same-hash",
		TTL:           time.Hour,
	}
	_, err := s.Create(ctx, in)
	require.NoError(t, err)
	_, err = s.Create(ctx, in)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestConsumeExpiredDeletesRecord(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "stale",
		TTL:           -time.Minute,
	})
	require.NoError(t, err)

	_, err = s.ConsumeByHash(ctx, "stale")
	require.ErrorIs(t, err, repository.ErrTokenExpired)

	// Side effect: the expired record was removed, a second attempt is NotFound.
	_, err = s.ConsumeByHash(ctx, "stale")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRotateReplacesRecord(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeAdministrator,
		TokenHash:     "old",
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	next, err := s.Rotate(ctx, "old", "new", time.Hour)
	require.NoError(t, err)
	require.Equal(t, "p1", next.PrincipalID)
	require.Equal(t, repository.PrincipalTypeAdministrator, next.PrincipalType)
	require.Equal(t, "new", next.TokenHash)

	// The rotated-away hash can never succeed again.
	_, err = s.Rotate(ctx, "old", "newer", time.Hour)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// The replacement is live.
	_, err = s.ConsumeByHash(ctx, "new")
	require.NoError(t, err)
}

func TestRotateExactlyOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "contested",
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Rotate(ctx, "contested", "replacement-"+string(rune('a'+i)), time.Hour)
		}(i)
	}
	wg.Wait()

	var successes, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case repository.IsNotFound(err):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, notFound)
}

func TestRevokeAllByPrincipal(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for _, h := range []string{"h1", "h2", "h3"} {
		_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
			PrincipalID:   "p1",
			PrincipalType: repository.PrincipalTypeUser,
			TokenHash:     h,
			TTL:           time.Hour,
		})
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p2",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "other",
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	n, err := s.RevokeAllByPrincipal(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	for _, h := range []string{"h1", "h2", "h3"} {
		_, err := s.ConsumeByHash(ctx, h)
		require.ErrorIs(t, err, repository.ErrNotFound)
	}

	// p2 untouched.
	_, err = s.ConsumeByHash(ctx, "other")
	require.NoError(t, err)

	// Idempotent.
	n, err = s.RevokeAllByPrincipal(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestRevokeByIDIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	rec, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   "p1",
		PrincipalType: repository.PrincipalTypeUser,
		TokenHash:     "h1",
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, rec.ID))
	require.NoError(t, s.Revoke(ctx, rec.ID))
	require.NoError(t, s.Revoke(ctx, "never-existed"))

	_, err = s.ConsumeByHash(ctx, "h1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID: "p1", PrincipalType: repository.PrincipalTypeUser,
		TokenHash: "live", TTL: time.Hour,
	})
	require.NoError(t, err)
	_, err = s.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID: "p1", PrincipalType: repository.PrincipalTypeUser,
		TokenHash: "dead", TTL: -time.Minute,
	})
	require.NoError(t, err)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.ConsumeByHash(ctx, "live")
	require.NoError(t, err)
}

func TestRoleAssignment(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	role := s.SeedRole(repository.Role{
		Name:        "auditor",
		Scope:       repository.RoleScopeAdministrator,
		Permissions: []string{"users:read"},
	})

	require.NoError(t, s.AssignRole(ctx, "p1", role.ID))
	require.ErrorIs(t, s.AssignRole(ctx, "p1", role.ID), repository.ErrConflict)

	perms, err := s.GetPrincipalPermissions(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"users:read"}, perms)

	require.NoError(t, s.RemoveRole(ctx, "p1", role.ID))
	perms, err = s.GetPrincipalPermissions(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestGetRoleByNameScopeGroup(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	gid := "group-1"
	s.SeedRole(repository.Role{Name: "manager", Scope: repository.RoleScopeGroup, GroupID: &gid})
	s.SeedRole(repository.Role{Name: "manager", Scope: repository.RoleScopeAdministrator})

	got, err := s.GetRole(ctx, "manager", repository.RoleScopeGroup, &gid)
	require.NoError(t, err)
	require.NotNil(t, got.GroupID)

	got, err = s.GetRole(ctx, "manager", repository.RoleScopeAdministrator, nil)
	require.NoError(t, err)
	require.Nil(t, got.GroupID)

	_, err = s.GetRole(ctx, "manager", repository.RoleScopeGroup, nil)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
