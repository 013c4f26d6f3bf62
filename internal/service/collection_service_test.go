package service

import (
	"context"
	"strings"
	"testing"

	"fashfolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionService_CreateCollection(t *testing.T) {
	t.Parallel()

	svc := NewCollectionService(noopCollectionRepo(), noopOutfitRepo())
	ctx := context.Background()

	_, err := svc.CreateCollection(ctx, "alice", "  ", "")
	assertValidationError(t, err)
	_, err = svc.CreateCollection(ctx, "alice", strings.Repeat("n", 101), "")
	assertValidationError(t, err)
	_, err = svc.CreateCollection(ctx, "alice", "Winter", strings.Repeat("d", 501))
	assertValidationError(t, err)

	c, err := svc.CreateCollection(ctx, "alice", " Winter ", "warm")
	require.NoError(t, err)
	assert.Equal(t, "Winter", c.Name)
	assert.Equal(t, "alice", c.OwnerKey)
	assert.NotNil(t, c.OutfitIDs)
}

func TestCollectionService_GetCollection(t *testing.T) {
	t.Parallel()

	collections := noopCollectionRepo()
	collections.getByIDFn = func(_ context.Context, id string) (*models.Collection, error) {
		return &models.Collection{ID: id, OwnerKey: "alice", OutfitIDs: models.StringList{"o3", "o1", "o2", "o1", "gone"}}, nil
	}
	outfits := noopOutfitRepo()
	outfits.getManyByIDsFn = func(_ context.Context, ids []string) ([]models.Outfit, error) {
		return []models.Outfit{
			{ID: "o1", OwnerKey: "alice", IsPublic: true},
			{ID: "o2", OwnerKey: "alice", IsPublic: false},
			{ID: "o3", OwnerKey: "carol", IsPublic: true},
		}, nil
	}
	svc := NewCollectionService(collections, outfits)

	view, err := svc.GetCollection(context.Background(), "bob", "c1")
	require.NoError(t, err)
	ids := []string{}
	for _, o := range view.Outfits {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"o3", "o1"}, ids)

	view, err = svc.GetCollection(context.Background(), "alice", "c1")
	require.NoError(t, err)
	assert.Len(t, view.Outfits, 3)
}

func TestCollectionService_Ownership(t *testing.T) {
	t.Parallel()

	collections := noopCollectionRepo()
	collections.addOutfitFn = func(context.Context, string, string) (*models.Collection, error) {
		t.Fatal("must not modify")
		return nil, nil
	}
	collections.removeOutfitFn = collections.addOutfitFn
	svc := NewCollectionService(collections, noopOutfitRepo())

	_, err := svc.AddOutfit(context.Background(), "bob", "c1", "o1")
	assertForbiddenError(t, err)
	_, err = svc.RemoveOutfit(context.Background(), "bob", "c1", "o1")
	assertForbiddenError(t, err)
	_, err = svc.AddOutfit(context.Background(), "", "c1", "o1")
	assertUnauthorizedError(t, err)
}

func TestCollectionService_AddOutfit(t *testing.T) {
	t.Parallel()

	t.Run("invisible outfit is not found", func(t *testing.T) {
		t.Parallel()
		svc := NewCollectionService(noopCollectionRepo(), privateOutfitRepo("carol"))
		_, err := svc.AddOutfit(context.Background(), "owner", "c1", "o1")
		assertNotFoundError(t, err)
	})

	t.Run("owner adds visible outfit", func(t *testing.T) {
		t.Parallel()
		var added string
		collections := noopCollectionRepo()
		collections.addOutfitFn = func(_ context.Context, id, oid string) (*models.Collection, error) {
			added = oid
			return &models.Collection{ID: id, OutfitIDs: models.StringList{oid}}, nil
		}
		c, err := NewCollectionService(collections, noopOutfitRepo()).AddOutfit(context.Background(), "owner", "c1", "o9")
		require.NoError(t, err)
		assert.Equal(t, "o9", added)
		assert.Equal(t, models.StringList{"o9"}, c.OutfitIDs)
	})
}
