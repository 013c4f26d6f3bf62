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

// ProductStore keeps the studio catalog.
type ProductStore struct {
	coll *mongo.Collection
}

var _ repository.ProductRepository = (*ProductStore)(nil)

// NewProductStore returns a ProductStore on db.
func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{coll: db.Collection(ProductsCollection)}
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = models.NewID()
	}
	if product.Category == "" {
		product.Category = models.DefaultProductCategory
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.AITags == nil {
		product.AITags = models.StringList{}
	}
	if _, err := s.coll.InsertOne(ctx, product); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err, "Product", id)
	}
	return &product, nil
}

func (s *ProductStore) List(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().SetSort(newestFirst())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

func (s *ProductStore) UpdateTrendScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(scores))
	for id, score := range scores {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"trendScore": score}}))
	}
	if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ProductStore) UpdateVisionTags(ctx context.Context, id string, tags models.VisionTags) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"aiTags":        nonNil(tags.AITags),
		"visualScore":   tags.VisualScore,
		"dominantColor": tags.DominantColor,
		"fabricType":    tags.FabricType,
	}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Product", id)
	}
	return nil
}
