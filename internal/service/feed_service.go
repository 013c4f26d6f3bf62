package service

import (
	"context"

	"fashfolio/internal/models"
	"fashfolio/internal/observability"
	"fashfolio/internal/repository"
)

// Feed modes.
const (
	FeedGlobal    = "global"
	FeedFollowing = "following"
)

type FeedService struct {
	users   repository.UserRepository
	outfits repository.OutfitRepository
}

func NewFeedService(users repository.UserRepository, outfits repository.OutfitRepository) *FeedService {
	return &FeedService{users: users, outfits: outfits}
}

// Compose returns the newest PageSize outfits for mode. The following feed
// is empty for guests and for actors who follow nobody.
func (s *FeedService) Compose(ctx context.Context, mode, actor string) ([]models.FeedItem, error) {
	var filter models.OutfitFilter
	switch mode {
	case FeedGlobal, "":
		mode = FeedGlobal
		filter = models.OutfitFilter{Limit: PageSize}
	case FeedFollowing:
		if actor == "" {
			observability.ObserveFeed(mode, 0)
			return []models.FeedItem{}, nil
		}
		user, err := s.users.GetByExternalID(ctx, actor)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		if user == nil || len(user.Following) == 0 {
			observability.ObserveFeed(mode, 0)
			return []models.FeedItem{}, nil
		}
		filter = models.OutfitFilter{Viewer: actor, OwnerKeys: user.Following, Limit: PageSize}
	default:
		return nil, models.NewValidationError("mode must be global or following")
	}

	outfits, err := s.outfits.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.Enrich(ctx, outfits, actor)
	if err != nil {
		return nil, err
	}
	observability.ObserveFeed(mode, len(items))
	return items, nil
}

// Enrich attaches author snapshots, resolved in one batched lookup, and the
// actor's like state.
func (s *FeedService) Enrich(ctx context.Context, outfits []models.Outfit, actor string) ([]models.FeedItem, error) {
	items := make([]models.FeedItem, 0, len(outfits))
	if len(outfits) == 0 {
		return items, nil
	}

	seen := make(map[string]struct{}, len(outfits))
	keys := make([]string, 0, len(outfits))
	for i := range outfits {
		if _, ok := seen[outfits[i].OwnerKey]; !ok {
			seen[outfits[i].OwnerKey] = struct{}{}
			keys = append(keys, outfits[i].OwnerKey)
		}
	}
	authors, err := s.users.GetManyByExternalIDs(ctx, keys)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]models.Author, len(authors))
	for i := range authors {
		byKey[authors[i].ExternalID] = authors[i].Author()
	}

	for i := range outfits {
		author, ok := byKey[outfits[i].OwnerKey]
		if !ok {
			author = models.UnknownAuthor(outfits[i].OwnerKey)
		}
		items = append(items, models.FeedItem{
			Outfit:    outfits[i],
			Author:    author,
			LikedByMe: outfits[i].LikedBy(actor),
		})
	}
	return items, nil
}
