package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/damnyan/caxur/internal/rate"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	l := rate.NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d", i+1)
	}

	res, err := l.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.EqualValues(t, 0, res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := rate.NewMemoryLimiter(1, time.Minute)

	res, err := l.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "bob@example.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, res.Allowed)
}
