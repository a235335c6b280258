package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestNotificationCooldownQueries(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewNotificationRepository(testutil.NewDB(t))

	n := &db.Notification{UserID: 2, FromUserID: 1, Type: "nearby_match", CreatedAt: t0}
	require.NoError(t, repo.Create(ctx, n))
	assert.NotZero(t, n.ID)

	// either direction
	ok, err := repo.ExistsBetweenSince(ctx, "nearby_match", 1, 2, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsBetweenSince(ctx, "nearby_match", 2, 1, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	// outside the window or another type
	ok, err = repo.ExistsBetweenSince(ctx, "nearby_match", 1, 2, t0.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.ExistsBetweenSince(ctx, "mutual_match", 1, 2, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	// one direction only
	ok, err = repo.ExistsFromSince(ctx, "nearby_match", 2, 1, t0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsFromSince(ctx, "nearby_match", 1, 2, t0)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := repo.ListForUser(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
