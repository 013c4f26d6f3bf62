package docstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"fashfolio/internal/models"
	"fashfolio/internal/observability"
	"fashfolio/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutfitStore keeps outfits with an embedded like set.
type OutfitStore struct {
	coll     *mongo.Collection
	comments *mongo.Collection
	metrics  *observability.StoreMetrics
}

var _ repository.OutfitRepository = (*OutfitStore)(nil)

// NewOutfitStore returns an OutfitStore on db.
func NewOutfitStore(db *mongo.Database) *OutfitStore {
	return &OutfitStore{
		coll:     db.Collection(OutfitsCollection),
		comments: db.Collection(CommentsCollection),
		metrics:  observability.NewStoreMetrics("mongo"),
	}
}

func normalizeOutfit(o *models.Outfit) {
	o.Likes = nonNil(o.Likes)
	o.LikesCount = len(o.Likes)
}

func (s *OutfitStore) Create(ctx context.Context, outfit *models.Outfit) error {
	if outfit.ID == "" {
		outfit.ID = models.NewID()
	}
	now := time.Now().UTC()
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = now
	}
	outfit.UpdatedAt = now
	outfit.Likes = []string{}
	outfit.LikesCount = 0

	if _, err := s.coll.InsertOne(ctx, outfit); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *OutfitStore) GetByID(ctx context.Context, id string) (*models.Outfit, error) {
	defer s.metrics.TrackQuery("get_by_id", OutfitsCollection)()

	var outfit models.Outfit
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&outfit); err != nil {
		return nil, translate(err, "Outfit", id)
	}
	normalizeOutfit(&outfit)
	return &outfit, nil
}

func (s *OutfitStore) GetManyByIDs(ctx context.Context, ids []string) ([]models.Outfit, error) {
	if len(ids) == 0 {
		return []models.Outfit{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *OutfitStore) List(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	if filter.OwnerKeys != nil && len(filter.OwnerKeys) == 0 {
		return []models.Outfit{}, nil
	}
	ctx, span := observability.GetTraceLayer().TraceStoreMethod(ctx, "mongodb", "List", OutfitsCollection)
	defer span.End()
	defer s.metrics.TrackQuery("list", OutfitsCollection)()

	opts := options.Find().SetSort(newestFirst())
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return s.find(ctx, listFilter(filter), opts)
}

// listFilter translates an OutfitFilter into a query document.
func listFilter(filter models.OutfitFilter) bson.M {
	var and bson.A
	if filter.Viewer == "" {
		and = append(and, bson.M{"isPublic": true})
	} else {
		and = append(and, bson.M{"$or": bson.A{bson.M{"isPublic": true}, bson.M{"ownerKey": filter.Viewer}}})
	}
	if filter.OwnerKey != "" {
		and = append(and, bson.M{"ownerKey": filter.OwnerKey})
	}
	if filter.OwnerKeys != nil {
		and = append(and, bson.M{"ownerKey": bson.M{"$in": filter.OwnerKeys}})
	}
	if filter.Season != "" {
		and = append(and, bson.M{"$or": bson.A{bson.M{"season": filter.Season}, bson.M{"context.season": filter.Season}}})
	}
	if filter.Mood != "" {
		and = append(and, bson.M{"$or": bson.A{bson.M{"mood": filter.Mood}, bson.M{"context.mood": filter.Mood}}})
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{bson.M{"description": re}, bson.M{"mood": re}}})
	}
	return bson.M{"$and": and}
}

func (s *OutfitStore) Update(ctx context.Context, outfit *models.Outfit) error {
	outfit.UpdatedAt = time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": outfit.ID}, bson.M{"$set": bson.M{
		"season":      outfit.Season,
		"mood":        outfit.Mood,
		"description": outfit.Description,
		"isPublic":    outfit.IsPublic,
		"items":       outfit.Items,
		"context":     outfit.Context,
		"imageUrl":    outfit.ImageURL,
		"publicId":    outfit.PublicID,
		"updatedAt":   outfit.UpdatedAt,
	}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Outfit", outfit.ID)
	}
	return nil
}

func (s *OutfitStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Outfit", id)
	}
	if _, err := s.comments.DeleteMany(ctx, bson.M{"outfitId": id}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *OutfitStore) DeleteByOwner(ctx context.Context, ownerKey string) error {
	owned, err := s.coll.Distinct(ctx, "_id", bson.M{"ownerKey": ownerKey})
	if err != nil {
		return models.NewInternalError(err)
	}
	if len(owned) > 0 {
		if _, err := s.comments.DeleteMany(ctx, bson.M{"outfitId": bson.M{"$in": owned}}); err != nil {
			return models.NewInternalError(err)
		}
		if _, err := s.coll.DeleteMany(ctx, bson.M{"ownerKey": ownerKey}); err != nil {
			return models.NewInternalError(err)
		}
	}
	if _, err := s.coll.UpdateMany(ctx, bson.M{"likes": ownerKey}, bson.M{"$pull": bson.M{"likes": ownerKey}}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *OutfitStore) CountByPublicID(ctx context.Context, publicID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"publicId": publicID})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(n), nil
}

func (s *OutfitStore) AddLike(ctx context.Context, outfitID, userKey string) (int, error) {
	return s.updateLikes(ctx, "$addToSet", outfitID, userKey)
}

func (s *OutfitStore) RemoveLike(ctx context.Context, outfitID, userKey string) (int, error) {
	return s.updateLikes(ctx, "$pull", outfitID, userKey)
}

func (s *OutfitStore) updateLikes(ctx context.Context, op, outfitID, userKey string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var doc struct {
		Likes []string `bson:"likes"`
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": outfitID}, bson.M{op: bson.M{"likes": userKey}}, opts).Decode(&doc)
	if err != nil {
		return 0, translate(err, "Outfit", outfitID)
	}
	return len(doc.Likes), nil
}

func (s *OutfitStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Outfit, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	outfits := []models.Outfit{}
	if err := cur.All(ctx, &outfits); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range outfits {
		normalizeOutfit(&outfits[i])
	}
	return outfits, nil
}
