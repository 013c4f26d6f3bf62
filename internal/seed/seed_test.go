package seed

import (
	"context"
	"net/url"
	"testing"
	"time"

	"fashfolio/internal/database"
	"fashfolio/internal/models"
	"fashfolio/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryBuildOutfit(t *testing.T) {
	f := NewFactory(7, 30)
	owner := f.BuildUser(1)

	o := f.BuildOutfit(owner)
	assert.Equal(t, owner.ExternalID, o.OwnerKey)
	_, err := url.ParseRequestURI(o.ImageURL)
	require.NoError(t, err)
	require.NoError(t, o.Items.Validate())
	assert.Contains(t, seasons, o.Season)
	// created_at stays within MaxDays
	assert.WithinDuration(t, time.Now(), o.CreatedAt, 31*24*time.Hour)

	private := f.BuildOutfit(owner, func(o *models.Outfit) { o.IsPublic = false })
	assert.False(t, private.IsPublic)
}

func TestFactoryIsDeterministic(t *testing.T) {
	a, b := NewFactory(42, 0), NewFactory(42, 0)
	assert.Equal(t, a.BuildUser(3).Username, b.BuildUser(3).Username)
	assert.Equal(t, a.pick(10, 4, 2), b.pick(10, 4, 2))
	assert.NotContains(t, a.pick(10, 9, 2), 2)
}

func TestSeederRun(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	repos := repository.NewGormRepositories(db)

	opts := Options{
		NumUsers:        6,
		OutfitsPerUser:  2,
		FollowsPerUser:  2,
		LikesPerOutfit:  3,
		CommentsPerPost: 1,
		NumProducts:     4,
		Seed:            99,
	}
	ctx := context.Background()
	sum, err := NewSeeder(repos, opts).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 12, sum.Follows)
	assert.Equal(t, 12, sum.Outfits)
	assert.Equal(t, 6, sum.Collections)
	assert.Equal(t, 4, sum.Products)

	user, err := repos.Users.GetByExternalID(ctx, "seed_0000")
	require.NoError(t, err)
	assert.Len(t, user.Following, 2)

	// Comment counters match the comments written.
	public, err := repos.Outfits.List(ctx, models.OutfitFilter{Limit: 100})
	require.NoError(t, err)
	total := 0
	for _, o := range public {
		total += o.CommentsCount
		assert.Equal(t, opts.LikesPerOutfit, o.LikesCount)
	}
	assert.Equal(t, sum.Comments, total)

	products, err := repos.Products.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}
