// Package repository defines the store contracts and their GORM implementations.
package repository

import (
	"context"

	"fashfolio/internal/models"
)

// UserRepository defines persistence operations for users and the follow graph.
type UserRepository interface {
	GetByExternalID(ctx context.Context, key string) (*models.User, error)
	GetManyByExternalIDs(ctx context.Context, keys []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit int) ([]models.User, error)
	// Suggested returns up to limit users other than actor who are not in exclude.
	Suggested(ctx context.Context, actor string, exclude []string, limit int) ([]models.User, error)
	Delete(ctx context.Context, key string) error
	SetAdmin(ctx context.Context, key string, admin bool) error

	// Follow and Unfollow are idempotent and update both sides of the edge.
	Follow(ctx context.Context, follower, followee string) error
	Unfollow(ctx context.Context, follower, followee string) error
}

// OutfitRepository defines persistence operations for outfits and their likes.
type OutfitRepository interface {
	Create(ctx context.Context, outfit *models.Outfit) error
	GetByID(ctx context.Context, id string) (*models.Outfit, error)
	GetManyByIDs(ctx context.Context, ids []string) ([]models.Outfit, error)
	// List returns outfits matching filter, newest first.
	List(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error)
	Update(ctx context.Context, outfit *models.Outfit) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerKey string) error
	// CountByPublicID counts outfits referencing the stored media key.
	CountByPublicID(ctx context.Context, publicID string) (int, error)

	// AddLike and RemoveLike have set semantics and return the new like count.
	AddLike(ctx context.Context, outfitID, userKey string) (int, error)
	RemoveLike(ctx context.Context, outfitID, userKey string) (int, error)
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	// Create stores the comment and increments the outfit's comment counter by one.
	Create(ctx context.Context, comment *models.Comment) error
	ListByOutfit(ctx context.Context, outfitID string, limit int) ([]models.Comment, error)
}

// CollectionRepository defines persistence operations for collections.
type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	ListByOwner(ctx context.Context, ownerKey string) ([]models.Collection, error)
	AddOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error)
	RemoveOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error)
}

// ProductRepository defines persistence operations for the studio catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// List returns products newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]models.Product, error)
	UpdateTrendScores(ctx context.Context, scores map[string]float64) error
	UpdateVisionTags(ctx context.Context, id string, tags models.VisionTags) error
}

// Repositories bundles every store contract behind one driver.
type Repositories struct {
	Users       UserRepository
	Outfits     OutfitRepository
	Comments    CommentRepository
	Collections CollectionRepository
	Products    ProductRepository
}
