package repository

import (
	"context"

	"fashfolio/internal/models"
	"fashfolio/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db      *gorm.DB
	metrics *observability.StoreMetrics
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, metrics: observability.NewStoreMetrics(db.Dialector.Name())}
}

func (r *userRepository) GetByExternalID(ctx context.Context, key string) (*models.User, error) {
	defer r.metrics.TrackQuery("get_by_external_id", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", key).First(&user).Error; err != nil {
		return nil, translate(err, "User", key)
	}
	users := []models.User{user}
	if err := r.populateGraph(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (r *userRepository) GetManyByExternalIDs(ctx context.Context, keys []string) ([]models.User, error) {
	if len(keys) == 0 {
		return []models.User{}, nil
	}
	defer r.metrics.TrackQuery("get_many_by_external_ids", "users")()

	var users []models.User
	if err := r.db.WithContext(ctx).Where("external_id IN ?", keys).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateGraph(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Suggested(ctx context.Context, actor string, exclude []string, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Where("external_id <> ?", actor)
	if len(exclude) > 0 {
		q = q.Where("external_id NOT IN ?", exclude)
	}
	if err := q.Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_key = ? OR followee_key = ?", key, key).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		res := tx.Where("external_id = ?", key).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "User", key)
}

func (r *userRepository) SetAdmin(ctx context.Context, key string, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("external_id = ?", key).
		Update("is_admin", admin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", key)
	}
	return nil
}

func (r *userRepository) Follow(ctx context.Context, follower, followee string) error {
	edge := models.Follow{FollowerKey: follower, FolloweeKey: followee}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Unfollow(ctx context.Context, follower, followee string) error {
	err := r.db.WithContext(ctx).
		Where("follower_key = ? AND followee_key = ?", follower, followee).
		Delete(&models.Follow{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// populateGraph fills Followers and Following for users in two batched queries.
func (r *userRepository) populateGraph(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	keys := make([]string, len(users))
	index := make(map[string]int, len(users))
	for i := range users {
		keys[i] = users[i].ExternalID
		index[users[i].ExternalID] = i
		users[i].Followers = []string{}
		users[i].Following = []string{}
	}

	var edges []models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_key IN ? OR followee_key IN ?", keys, keys).
		Order("created_at ASC").
		Find(&edges).Error
	if err != nil {
		return models.NewInternalError(err)
	}

	for _, e := range edges {
		if i, ok := index[e.FolloweeKey]; ok {
			users[i].Followers = append(users[i].Followers, e.FollowerKey)
		}
		if i, ok := index[e.FollowerKey]; ok {
			users[i].Following = append(users[i].Following, e.FolloweeKey)
		}
	}
	return nil
}
