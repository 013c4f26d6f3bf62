package docstore

import (
	"context"
	"time"

	"fashfolio/internal/models"
	"fashfolio/internal/observability"
	"fashfolio/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore keeps users with embedded follower and following arrays.
type UserStore struct {
	coll    *mongo.Collection
	metrics *observability.StoreMetrics
}

var _ repository.UserRepository = (*UserStore)(nil)

// NewUserStore returns a UserStore on db.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection), metrics: observability.NewStoreMetrics("mongo")}
}

func normalizeUser(u *models.User) {
	u.Followers = nonNil(u.Followers)
	u.Following = nonNil(u.Following)
}

func (s *UserStore) GetByExternalID(ctx context.Context, key string) (*models.User, error) {
	defer s.metrics.TrackQuery("get_by_external_id", UsersCollection)()

	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"externalId": key}).Decode(&user); err != nil {
		return nil, translate(err, "User", key)
	}
	normalizeUser(&user)
	return &user, nil
}

func (s *UserStore) GetManyByExternalIDs(ctx context.Context, keys []string) ([]models.User, error) {
	if len(keys) == 0 {
		return []models.User{}, nil
	}
	defer s.metrics.TrackQuery("get_many_by_external_ids", UsersCollection)()

	return s.find(ctx, bson.M{"externalId": bson.M{"$in": keys}}, options.Find())
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	normalizeUser(user)

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserStore) List(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().SetSort(newestFirst())
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, bson.M{}, opts)
}

func (s *UserStore) Suggested(ctx context.Context, actor string, exclude []string, limit int) ([]models.User, error) {
	skip := append([]string{actor}, exclude...)
	opts := options.Find().SetSort(newestFirst()).SetLimit(int64(limit))
	return s.find(ctx, bson.M{"externalId": bson.M{"$nin": skip}}, opts)
}

func (s *UserStore) Delete(ctx context.Context, key string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"externalId": key})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("User", key)
	}
	_, err = s.coll.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"followers": key}, bson.M{"following": key}}},
		bson.M{"$pull": bson.M{"followers": key, "following": key}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserStore) SetAdmin(ctx context.Context, key string, admin bool) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"externalId": key},
		bson.M{"$set": bson.M{"isAdmin": admin, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User", key)
	}
	return nil
}

func (s *UserStore) Follow(ctx context.Context, follower, followee string) error {
	return s.updateEdge(ctx, "$addToSet", follower, followee)
}

func (s *UserStore) Unfollow(ctx context.Context, follower, followee string) error {
	return s.updateEdge(ctx, "$pull", follower, followee)
}

// updateEdge applies op to both sides of the follow edge. The two updates
// are independent; a failure after the first leaves the sets diverged.
func (s *UserStore) updateEdge(ctx context.Context, op, follower, followee string) error {
	now := time.Now().UTC()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"externalId": followee},
		bson.M{op: bson.M{"followers": follower}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"externalId": follower},
		bson.M{op: bson.M{"following": followee}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		normalizeUser(&users[i])
	}
	return users, nil
}
