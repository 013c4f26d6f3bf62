package repository

import (
	"context"
	"strings"

	"fashfolio/internal/models"
	"fashfolio/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type outfitRepository struct {
	db      *gorm.DB
	metrics *observability.StoreMetrics
}

// NewOutfitRepository returns a new OutfitRepository implementation.
func NewOutfitRepository(db *gorm.DB) OutfitRepository {
	return &outfitRepository{db: db, metrics: observability.NewStoreMetrics(db.Dialector.Name())}
}

func (r *outfitRepository) Create(ctx context.Context, outfit *models.Outfit) error {
	if err := r.db.WithContext(ctx).Create(outfit).Error; err != nil {
		return models.NewInternalError(err)
	}
	outfit.Likes = []string{}
	outfit.LikesCount = 0
	return nil
}

func (r *outfitRepository) GetByID(ctx context.Context, id string) (*models.Outfit, error) {
	defer r.metrics.TrackQuery("get_by_id", "outfits")()

	var outfit models.Outfit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&outfit).Error; err != nil {
		return nil, translate(err, "Outfit", id)
	}
	outfits := []models.Outfit{outfit}
	if err := r.populateLikes(ctx, outfits); err != nil {
		return nil, err
	}
	return &outfits[0], nil
}

func (r *outfitRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Outfit, error) {
	if len(ids) == 0 {
		return []models.Outfit{}, nil
	}
	var outfits []models.Outfit
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&outfits).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateLikes(ctx, outfits); err != nil {
		return nil, err
	}
	return outfits, nil
}

func (r *outfitRepository) List(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	if filter.OwnerKeys != nil && len(filter.OwnerKeys) == 0 {
		return []models.Outfit{}, nil
	}
	ctx, span := observability.GetTraceLayer().TraceStoreMethod(ctx, r.db.Dialector.Name(), "List", "outfits")
	defer span.End()
	defer r.metrics.TrackQuery("list", "outfits")()

	q := r.db.WithContext(ctx).Model(&models.Outfit{})

	if filter.Viewer == "" {
		q = q.Where("is_public = ?", true)
	} else {
		q = q.Where("(is_public = ? OR owner_key = ?)", true, filter.Viewer)
	}
	if filter.OwnerKey != "" {
		q = q.Where("owner_key = ?", filter.OwnerKey)
	}
	if filter.OwnerKeys != nil {
		q = q.Where("owner_key IN ?", filter.OwnerKeys)
	}
	// Context is a JSON text column, so the season/mood match on it is a
	// substring test against the encoded field.
	if filter.Season != "" {
		q = q.Where(`(season = ? OR context LIKE ? ESCAPE '\')`, filter.Season, contextFieldPattern("season", filter.Season))
	}
	if filter.Mood != "" {
		q = q.Where(`(mood = ? OR context LIKE ? ESCAPE '\')`, filter.Mood, contextFieldPattern("mood", filter.Mood))
	}
	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		like := "%" + escapeLike(query) + "%"
		q = q.Where(`(LOWER(description) LIKE ? ESCAPE '\' OR LOWER(mood) LIKE ? ESCAPE '\')`, like, like)
	}

	q = q.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var outfits []models.Outfit
	if err := q.Find(&outfits).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateLikes(ctx, outfits); err != nil {
		return nil, err
	}
	return outfits, nil
}

func (r *outfitRepository) Update(ctx context.Context, outfit *models.Outfit) error {
	err := r.db.WithContext(ctx).Model(&models.Outfit{}).
		Where("id = ?", outfit.ID).
		Select("season", "mood", "description", "is_public", "items", "context", "image_url", "public_id", "updated_at").
		Updates(outfit).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *outfitRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outfit_id = ?", id).Delete(&models.OutfitLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("outfit_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Outfit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "Outfit", id)
}

func (r *outfitRepository) DeleteByOwner(ctx context.Context, ownerKey string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Outfit{}).Select("id").Where("owner_key = ?", ownerKey)
		if err := tx.Where("outfit_id IN (?) OR user_key = ?", owned, ownerKey).Delete(&models.OutfitLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("outfit_id IN (?)", owned).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_key = ?", ownerKey).Delete(&models.Outfit{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *outfitRepository) CountByPublicID(ctx context.Context, publicID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Outfit{}).Where("public_id = ?", publicID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(count), nil
}

func (r *outfitRepository) AddLike(ctx context.Context, outfitID, userKey string) (int, error) {
	like := models.OutfitLike{OutfitID: outfitID, UserKey: userKey}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return r.countLikes(ctx, outfitID)
}

func (r *outfitRepository) RemoveLike(ctx context.Context, outfitID, userKey string) (int, error) {
	err := r.db.WithContext(ctx).
		Where("outfit_id = ? AND user_key = ?", outfitID, userKey).
		Delete(&models.OutfitLike{}).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return r.countLikes(ctx, outfitID)
}

func (r *outfitRepository) countLikes(ctx context.Context, outfitID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OutfitLike{}).Where("outfit_id = ?", outfitID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(count), nil
}

// populateLikes fills Likes and LikesCount with one batched query.
func (r *outfitRepository) populateLikes(ctx context.Context, outfits []models.Outfit) error {
	if len(outfits) == 0 {
		return nil
	}
	ids := make([]string, len(outfits))
	index := make(map[string]int, len(outfits))
	for i := range outfits {
		ids[i] = outfits[i].ID
		index[outfits[i].ID] = i
		outfits[i].Likes = []string{}
	}

	var likes []models.OutfitLike
	if err := r.db.WithContext(ctx).Where("outfit_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		if i, ok := index[l.OutfitID]; ok {
			outfits[i].Likes = append(outfits[i].Likes, l.UserKey)
		}
	}
	for i := range outfits {
		outfits[i].LikesCount = len(outfits[i].Likes)
	}
	return nil
}

// contextFieldPattern matches "field":"value" inside the encoded context.
func contextFieldPattern(field, value string) string {
	return `%"` + field + `":"` + escapeLike(value) + `"%`
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
