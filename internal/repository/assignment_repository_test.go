package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestAssignmentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAssignmentRepository(testutil.NewDB(t))

	a, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, repo.Upsert(ctx, 1, 2, t0))
	require.NoError(t, repo.Upsert(ctx, 1, 3, t0.Add(time.Hour)))

	a, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, uint64(3), a.PartnerID)
	assert.True(t, a.AssignedAt.Equal(t0.Add(time.Hour)))

	require.NoError(t, repo.Delete(ctx, 1))
	require.NoError(t, repo.Delete(ctx, 1))
	a, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, a)
}
