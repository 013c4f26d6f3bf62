package repository

import (
	"context"
	"testing"
	"time"

	"fashfolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionRepository_Lifecycle(t *testing.T) {
	repo := NewCollectionRepository(setupSQLite(t))
	ctx := context.Background()

	older := &models.Collection{OwnerKey: "alice", Name: "Spring", CreatedAt: baseTime}
	newer := &models.Collection{OwnerKey: "alice", Name: "Summer", CreatedAt: baseTime.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, &models.Collection{OwnerKey: "bob", Name: "Other"}))

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Summer", mine[0].Name)

	c, err := repo.AddOutfit(ctx, older.ID, "o1")
	require.NoError(t, err)
	c, err = repo.AddOutfit(ctx, older.ID, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"o1", "o1"}, c.OutfitIDs)

	c, err = repo.RemoveOutfit(ctx, older.ID, "o1")
	require.NoError(t, err)
	assert.Empty(t, c.OutfitIDs)

	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, got.OutfitIDs)

	_, err = repo.AddOutfit(ctx, "missing", "o1")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
