package repository

import (
	"context"

	"fashfolio/internal/models"

	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a new ProductRepository implementation.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	if product.AITags == nil {
		product.AITags = models.StringList{}
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, translate(err, "Product", id)
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

func (r *productRepository) UpdateTrendScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, score := range scores {
			if err := tx.Model(&models.Product{}).Where("id = ?", id).Update("trend_score", score).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *productRepository) UpdateVisionTags(ctx context.Context, id string, tags models.VisionTags) error {
	aiTags := models.StringList(tags.AITags)
	if aiTags == nil {
		aiTags = models.StringList{}
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"ai_tags":        aiTags,
		"visual_score":   tags.VisualScore,
		"dominant_color": tags.DominantColor,
		"fabric_type":    tags.FabricType,
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Product", id)
	}
	return nil
}

// NewGormRepositories wires every relational repository to db.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(db),
		Outfits:     NewOutfitRepository(db),
		Comments:    NewCommentRepository(db),
		Collections: NewCollectionRepository(db),
		Products:    NewProductRepository(db),
	}
}
