package repository

import (
	"context"
	"testing"

	"foodshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDecided_OnlyOncePerRequest(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRequestRepository(db)

	owner := seedUser(t, db, "owner")
	requester := seedUser(t, db, "requester")
	post := seedPost(t, db, owner.ID, 5)

	req := &models.FoodRequest{
		OwnerID:     owner.ID,
		RequesterID: requester.ID,
		FoodPostID:  post.ID,
		Kind:        models.RequestKindBook,
		Quantity:    1,
		Status:      models.RequestStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), req))

	ctx := context.Background()

	ok, err := repo.MarkDecided(ctx, req.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second decision, either way, loses without error
	ok, err = repo.MarkDecided(ctx, req.ID, models.RequestStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkDecided(ctx, req.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	var current models.FoodRequest
	require.NoError(t, db.First(&current, req.ID).Error)
	assert.Equal(t, models.RequestStatusAccepted, current.Status)
}

func TestByRequester_NewestFirst(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRequestRepository(db)

	owner := seedUser(t, db, "owner")
	requester := seedUser(t, db, "requester")
	post := seedPost(t, db, owner.ID, 5)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.FoodRequest{
			OwnerID:     owner.ID,
			RequesterID: requester.ID,
			FoodPostID:  post.ID,
			Kind:        models.RequestKindBook,
			Quantity:    1,
			Status:      models.RequestStatusPending,
		}))
	}

	mine, err := repo.ByRequester(ctx, requester.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.GreaterOrEqual(t, mine[0].ID, mine[1].ID)

	received, err := repo.ByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, received, 3)

	none, err := repo.ByRequester(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
