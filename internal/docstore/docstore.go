// Package docstore implements the store contracts on MongoDB.
//
// Documents embed their edge sets (followers, following, likes) and are
// updated with single-document atomic operators. Writes that touch two
// documents run back to back without a transaction.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection       = "users"
	OutfitsCollection     = "outfits"
	CommentsCollection    = "comments"
	CollectionsCollection = "collections"
	ProductsCollection    = "products"
)

// Store is an open MongoDB handle. The caller owns it and must Close it.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the deployment with a ping and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := EnsureIndexes(connectCtx, s.db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	middleware.Logger.Info("Document store connected", slog.String("database", database))
	return s, nil
}

// Database exposes the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Repositories returns every store contract backed by this handle.
func (s *Store) Repositories() *repository.Repositories {
	return NewRepositories(s.db)
}

// NewRepositories wires every document repository to db.
func NewRepositories(db *mongo.Database) *repository.Repositories {
	return &repository.Repositories{
		Users:       NewUserStore(db),
		Outfits:     NewOutfitStore(db),
		Comments:    NewCommentStore(db),
		Collections: NewCollectionStore(db),
		Products:    NewProductStore(db),
	}
}

// EnsureIndexes creates the unique and listing indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		OutfitsCollection: {
			{Keys: bson.D{{Key: "ownerKey", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "outfitId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionsCollection: {
			{Keys: bson.D{{Key: "ownerKey", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the application taxonomy.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(resource, id)
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.NewValidationError(resource + " already exists")
	}
	return models.NewInternalError(err)
}

func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
