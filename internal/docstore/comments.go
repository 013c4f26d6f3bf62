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

// CommentStore keeps comments in their own collection and maintains the
// outfit counter.
type CommentStore struct {
	coll    *mongo.Collection
	outfits *mongo.Collection
}

var _ repository.CommentRepository = (*CommentStore)(nil)

// NewCommentStore returns a CommentStore on db.
func NewCommentStore(db *mongo.Database) *CommentStore {
	return &CommentStore{coll: db.Collection(CommentsCollection), outfits: db.Collection(OutfitsCollection)}
}

// Create inserts the comment and then increments the outfit counter. The
// second write is not covered by a transaction.
func (s *CommentStore) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, comment); err != nil {
		return models.NewInternalError(err)
	}
	res, err := s.outfits.UpdateOne(ctx, bson.M{"_id": comment.OutfitID}, bson.M{"$inc": bson.M{"commentsCount": 1}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Outfit", comment.OutfitID)
	}
	return nil
}

func (s *CommentStore) ListByOutfit(ctx context.Context, outfitID string, limit int) ([]models.Comment, error) {
	opts := options.Find().SetSort(newestFirst())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{"outfitId": outfitID}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
