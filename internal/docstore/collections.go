package docstore

import (
	"context"
	"time"

	"fashfolio/internal/models"
	"fashfolio/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionStore keeps collections with an embedded outfit id list.
type CollectionStore struct {
	coll *mongo.Collection
}

var _ repository.CollectionRepository = (*CollectionStore)(nil)

// NewCollectionStore returns a CollectionStore on db.
func NewCollectionStore(db *mongo.Database) *CollectionStore {
	return &CollectionStore{coll: db.Collection(CollectionsCollection)}
}

func (s *CollectionStore) Create(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		collection.ID = models.NewID()
	}
	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	collection.UpdatedAt = now
	if collection.OutfitIDs == nil {
		collection.OutfitIDs = models.StringList{}
	}
	if _, err := s.coll.InsertOne(ctx, collection); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *CollectionStore) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&collection); err != nil {
		return nil, translate(err, "Collection", id)
	}
	return &collection, nil
}

func (s *CollectionStore) ListByOwner(ctx context.Context, ownerKey string) ([]models.Collection, error) {
	cur, err := s.coll.Find(ctx, bson.M{"ownerKey": ownerKey}, options.Find().SetSort(newestFirst()))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	collections := []models.Collection{}
	if err := cur.All(ctx, &collections); err != nil {
		return nil, models.NewInternalError(err)
	}
	return collections, nil
}

// AddOutfit appends outfitID. Duplicates are kept.
func (s *CollectionStore) AddOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return s.update(ctx, id, bson.M{"$push": bson.M{"outfitIds": outfitID}})
}

func (s *CollectionStore) RemoveOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return s.update(ctx, id, bson.M{"$pull": bson.M{"outfitIds": outfitID}})
}

func (s *CollectionStore) update(ctx context.Context, id string, change bson.M) (*models.Collection, error) {
	change["$set"] = bson.M{"updatedAt": time.Now().UTC()}
	var collection models.Collection
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, change,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&collection)
	if err != nil {
		return nil, translate(err, "Collection", id)
	}
	if collection.OutfitIDs == nil {
		collection.OutfitIDs = models.StringList{}
	}
	return &collection, nil
}
