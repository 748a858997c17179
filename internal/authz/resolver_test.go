package authz_test

import (
	"context"
	"testing"

	"github.com/damnyan/caxur/internal/authz"
	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/stretchr/testify/require"
)

type fakeRoleRepo struct {
	perms map[string][]string
}

func (f *fakeRoleRepo) GetPrincipalRoles(ctx context.Context, principalID string) ([]repository.Role, error) {
	return nil, nil
}

func (f *fakeRoleRepo) GetPrincipalPermissions(ctx context.Context, principalID string) ([]string, error) {
	return f.perms[principalID], nil
}

func (f *fakeRoleRepo) AssignRole(ctx context.Context, principalID, roleID string) error {
	return nil
}

func (f *fakeRoleRepo) RemoveRole(ctx context.Context, principalID, roleID string) error {
	return nil
}

func (f *fakeRoleRepo) GetRole(ctx context.Context, name, scope string, groupID *string) (*repository.Role, error) {
	return nil, repository.ErrNotFound
}

func TestAllowsExactMatch(t *testing.T) {
	set := authz.NewPermissionSet([]string{"users:read", "users:write"})

	require.True(t, set.Allows("users:read"))
	require.True(t, set.Allows("users:write"))
	require.False(t, set.Allows("users:delete"))
}

func TestAllowsWildcard(t *testing.T) {
	set := authz.NewPermissionSet([]string{"*"})

	for _, p := range []string{"users:read", "users:delete", "anything:at-all"} {
		require.True(t, set.Allows(p))
	}
}

func TestNoPrefixWildcardMatching(t *testing.T) {
	// "users:*" is an exact string, not a hierarchy: it must not cover
	// "users:delete".
	set := authz.NewPermissionSet([]string{"users:*"})

	require.False(t, set.Allows("users:delete"))
	require.True(t, set.Allows("users:*"))
}

func TestEmptySetAllowsNothing(t *testing.T) {
	set := authz.NewPermissionSet(nil)

	require.False(t, set.Allows("users:read"))
	require.False(t, set.Allows("*"))
}

func TestResolvePermissionsDeduplicates(t *testing.T) {
	repo := &fakeRoleRepo{perms: map[string][]string{
		// Same permission granted by two roles.
		"p1": {"users:read", "users:read", "roles:manage"},
	}}
	r := authz.NewResolver(repo)

	set, err := r.ResolvePermissions(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.True(t, set.Allows("users:read"))
	require.True(t, set.Allows("roles:manage"))
}
