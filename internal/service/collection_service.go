package service

import (
	"context"

	"fashfolio/internal/models"
	"fashfolio/internal/repository"
)

const (
	maxCollectionName        = 100
	maxCollectionDescription = 500
)

type CollectionService struct {
	collections repository.CollectionRepository
	outfits     repository.OutfitRepository
}

func NewCollectionService(collections repository.CollectionRepository, outfits repository.OutfitRepository) *CollectionService {
	return &CollectionService{collections: collections, outfits: outfits}
}

func (s *CollectionService) CreateCollection(ctx context.Context, actor, name, description string) (*models.Collection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name, err := boundedText("Name", name, maxCollectionName, true)
	if err != nil {
		return nil, err
	}
	description, err = boundedText("Description", description, maxCollectionDescription, false)
	if err != nil {
		return nil, err
	}

	collection := &models.Collection{
		OwnerKey:    actor,
		Name:        name,
		Description: description,
		OutfitIDs:   models.StringList{},
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// ListMine returns the actor's collections, newest first.
func (s *CollectionService) ListMine(ctx context.Context, actor string) ([]models.Collection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	collections, err := s.collections.ListByOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []models.Collection{}
	}
	return collections, nil
}

// GetCollection resolves the collection's outfits in stored order, keeping
// only those visible to viewer.
func (s *CollectionService) GetCollection(ctx context.Context, viewer, id string) (*models.CollectionView, error) {
	collection, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	outfits, err := s.outfits.GetManyByIDs(ctx, collection.OutfitIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Outfit, len(outfits))
	for i := range outfits {
		byID[outfits[i].ID] = outfits[i]
	}

	view := &models.CollectionView{Collection: *collection, Outfits: []models.Outfit{}}
	seen := make(map[string]struct{}, len(collection.OutfitIDs))
	for _, oid := range collection.OutfitIDs {
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		if o, ok := byID[oid]; ok && o.VisibleTo(viewer) {
			view.Outfits = append(view.Outfits, o)
		}
	}
	return view, nil
}

func (s *CollectionService) AddOutfit(ctx context.Context, actor, id, outfitID string) (*models.Collection, error) {
	if _, err := s.ownedCollection(ctx, actor, id); err != nil {
		return nil, err
	}
	outfit, err := s.outfits.GetByID(ctx, outfitID)
	if err != nil {
		return nil, err
	}
	if !outfit.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Outfit", outfitID)
	}
	return s.collections.AddOutfit(ctx, id, outfitID)
}

func (s *CollectionService) RemoveOutfit(ctx context.Context, actor, id, outfitID string) (*models.Collection, error) {
	if _, err := s.ownedCollection(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.collections.RemoveOutfit(ctx, id, outfitID)
}

func (s *CollectionService) ownedCollection(ctx context.Context, actor, id string) (*models.Collection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	collection, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collection.OwnerKey != actor {
		return nil, models.NewForbiddenError("You can only modify your own collections")
	}
	return collection, nil
}
