package repository

import (
	"context"

	"fashfolio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.OutfitIDs == nil {
		collection.OutfitIDs = models.StringList{}
	}
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&collection).Error; err != nil {
		return nil, translate(err, "Collection", id)
	}
	return &collection, nil
}

func (r *collectionRepository) ListByOwner(ctx context.Context, ownerKey string) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("created_at DESC").
		Find(&collections).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return collections, nil
}

func (r *collectionRepository) AddOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return r.mutate(ctx, id, func(c *models.Collection) {
		c.OutfitIDs = append(c.OutfitIDs, outfitID)
	})
}

func (r *collectionRepository) RemoveOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return r.mutate(ctx, id, func(c *models.Collection) {
		kept := make(models.StringList, 0, len(c.OutfitIDs))
		for _, existing := range c.OutfitIDs {
			if existing != outfitID {
				kept = append(kept, existing)
			}
		}
		c.OutfitIDs = kept
	})
}

// mutate applies fn to the stored list under a row lock so concurrent edits
// do not overwrite each other.
func (r *collectionRepository) mutate(ctx context.Context, id string, fn func(*models.Collection)) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("id = ?", id).First(&collection).Error; err != nil {
			return err
		}
		fn(&collection)
		return tx.Model(&collection).Select("outfit_ids", "updated_at").Updates(&collection).Error
	})
	if err != nil {
		return nil, translate(err, "Collection", id)
	}
	return &collection, nil
}
