package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"fashfolio/internal/media"
	"fashfolio/internal/models"
	"fashfolio/internal/relay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByExternalIDFn      func(context.Context, string) (*models.User, error)
	getManyByExternalIDsFn func(context.Context, []string) ([]models.User, error)
	createFn               func(context.Context, *models.User) error
	listFn                 func(context.Context, int) ([]models.User, error)
	suggestedFn            func(context.Context, string, []string, int) ([]models.User, error)
	deleteFn               func(context.Context, string) error
	setAdminFn             func(context.Context, string, bool) error
	followFn               func(context.Context, string, string) error
	unfollowFn             func(context.Context, string, string) error
}

func (s *userRepoStub) GetByExternalID(ctx context.Context, key string) (*models.User, error) {
	return s.getByExternalIDFn(ctx, key)
}
func (s *userRepoStub) GetManyByExternalIDs(ctx context.Context, keys []string) ([]models.User, error) {
	return s.getManyByExternalIDsFn(ctx, keys)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit int) ([]models.User, error) {
	return s.listFn(ctx, limit)
}
func (s *userRepoStub) Suggested(ctx context.Context, actor string, exclude []string, limit int) ([]models.User, error) {
	return s.suggestedFn(ctx, actor, exclude, limit)
}
func (s *userRepoStub) Delete(ctx context.Context, key string) error {
	return s.deleteFn(ctx, key)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, key string, admin bool) error {
	return s.setAdminFn(ctx, key, admin)
}
func (s *userRepoStub) Follow(ctx context.Context, follower, followee string) error {
	return s.followFn(ctx, follower, followee)
}
func (s *userRepoStub) Unfollow(ctx context.Context, follower, followee string) error {
	return s.unfollowFn(ctx, follower, followee)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByExternalIDFn: func(_ context.Context, key string) (*models.User, error) {
			return &models.User{ExternalID: key, Username: key}, nil
		},
		getManyByExternalIDsFn: func(context.Context, []string) ([]models.User, error) { return nil, nil },
		createFn:               func(context.Context, *models.User) error { return nil },
		listFn:                 func(context.Context, int) ([]models.User, error) { return nil, nil },
		suggestedFn:            func(context.Context, string, []string, int) ([]models.User, error) { return nil, nil },
		deleteFn:               func(context.Context, string) error { return nil },
		setAdminFn:             func(context.Context, string, bool) error { return nil },
		followFn:               func(context.Context, string, string) error { return nil },
		unfollowFn:             func(context.Context, string, string) error { return nil },
	}
}

// outfitRepoStub is a stub for repository.OutfitRepository.
type outfitRepoStub struct {
	createFn        func(context.Context, *models.Outfit) error
	getByIDFn       func(context.Context, string) (*models.Outfit, error)
	getManyByIDsFn  func(context.Context, []string) ([]models.Outfit, error)
	listFn          func(context.Context, models.OutfitFilter) ([]models.Outfit, error)
	updateFn        func(context.Context, *models.Outfit) error
	deleteFn        func(context.Context, string) error
	deleteByOwnerFn func(context.Context, string) error
	countByPublicFn func(context.Context, string) (int, error)
	addLikeFn       func(context.Context, string, string) (int, error)
	removeLikeFn    func(context.Context, string, string) (int, error)
}

func (s *outfitRepoStub) Create(ctx context.Context, outfit *models.Outfit) error {
	return s.createFn(ctx, outfit)
}
func (s *outfitRepoStub) GetByID(ctx context.Context, id string) (*models.Outfit, error) {
	return s.getByIDFn(ctx, id)
}
func (s *outfitRepoStub) GetManyByIDs(ctx context.Context, ids []string) ([]models.Outfit, error) {
	return s.getManyByIDsFn(ctx, ids)
}
func (s *outfitRepoStub) List(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	return s.listFn(ctx, filter)
}
func (s *outfitRepoStub) Update(ctx context.Context, outfit *models.Outfit) error {
	return s.updateFn(ctx, outfit)
}
func (s *outfitRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *outfitRepoStub) DeleteByOwner(ctx context.Context, ownerKey string) error {
	return s.deleteByOwnerFn(ctx, ownerKey)
}
func (s *outfitRepoStub) CountByPublicID(ctx context.Context, publicID string) (int, error) {
	return s.countByPublicFn(ctx, publicID)
}
func (s *outfitRepoStub) AddLike(ctx context.Context, outfitID, userKey string) (int, error) {
	return s.addLikeFn(ctx, outfitID, userKey)
}
func (s *outfitRepoStub) RemoveLike(ctx context.Context, outfitID, userKey string) (int, error) {
	return s.removeLikeFn(ctx, outfitID, userKey)
}

func noopOutfitRepo() *outfitRepoStub {
	return &outfitRepoStub{
		createFn: func(context.Context, *models.Outfit) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Outfit, error) {
			return &models.Outfit{ID: id, OwnerKey: "owner", IsPublic: true, Likes: []string{}}, nil
		},
		getManyByIDsFn:  func(context.Context, []string) ([]models.Outfit, error) { return nil, nil },
		listFn:          func(context.Context, models.OutfitFilter) ([]models.Outfit, error) { return nil, nil },
		updateFn:        func(context.Context, *models.Outfit) error { return nil },
		deleteFn:        func(context.Context, string) error { return nil },
		deleteByOwnerFn: func(context.Context, string) error { return nil },
		countByPublicFn: func(context.Context, string) (int, error) { return 0, nil },
		addLikeFn:       func(context.Context, string, string) (int, error) { return 1, nil },
		removeLikeFn:    func(context.Context, string, string) (int, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	listByOutfitFn func(context.Context, string, int) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByOutfit(ctx context.Context, outfitID string, limit int) ([]models.Comment, error) {
	return s.listByOutfitFn(ctx, outfitID, limit)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(context.Context, *models.Comment) error { return nil },
		listByOutfitFn: func(context.Context, string, int) ([]models.Comment, error) { return nil, nil },
	}
}

// collectionRepoStub is a stub for repository.CollectionRepository.
type collectionRepoStub struct {
	createFn       func(context.Context, *models.Collection) error
	getByIDFn      func(context.Context, string) (*models.Collection, error)
	listByOwnerFn  func(context.Context, string) ([]models.Collection, error)
	addOutfitFn    func(context.Context, string, string) (*models.Collection, error)
	removeOutfitFn func(context.Context, string, string) (*models.Collection, error)
}

func (s *collectionRepoStub) Create(ctx context.Context, c *models.Collection) error {
	return s.createFn(ctx, c)
}
func (s *collectionRepoStub) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	return s.getByIDFn(ctx, id)
}
func (s *collectionRepoStub) ListByOwner(ctx context.Context, ownerKey string) ([]models.Collection, error) {
	return s.listByOwnerFn(ctx, ownerKey)
}
func (s *collectionRepoStub) AddOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return s.addOutfitFn(ctx, id, outfitID)
}
func (s *collectionRepoStub) RemoveOutfit(ctx context.Context, id, outfitID string) (*models.Collection, error) {
	return s.removeOutfitFn(ctx, id, outfitID)
}

func noopCollectionRepo() *collectionRepoStub {
	return &collectionRepoStub{
		createFn: func(context.Context, *models.Collection) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Collection, error) {
			return &models.Collection{ID: id, OwnerKey: "owner"}, nil
		},
		listByOwnerFn: func(context.Context, string) ([]models.Collection, error) { return nil, nil },
		addOutfitFn: func(_ context.Context, id, _ string) (*models.Collection, error) {
			return &models.Collection{ID: id}, nil
		},
		removeOutfitFn: func(_ context.Context, id, _ string) (*models.Collection, error) {
			return &models.Collection{ID: id}, nil
		},
	}
}

// productRepoStub is a stub for repository.ProductRepository.
type productRepoStub struct {
	createFn            func(context.Context, *models.Product) error
	getByIDFn           func(context.Context, string) (*models.Product, error)
	listFn              func(context.Context, int) ([]models.Product, error)
	updateTrendScoresFn func(context.Context, map[string]float64) error
	updateVisionTagsFn  func(context.Context, string, models.VisionTags) error
}

func (s *productRepoStub) Create(ctx context.Context, p *models.Product) error {
	return s.createFn(ctx, p)
}
func (s *productRepoStub) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return s.getByIDFn(ctx, id)
}
func (s *productRepoStub) List(ctx context.Context, limit int) ([]models.Product, error) {
	return s.listFn(ctx, limit)
}
func (s *productRepoStub) UpdateTrendScores(ctx context.Context, scores map[string]float64) error {
	return s.updateTrendScoresFn(ctx, scores)
}
func (s *productRepoStub) UpdateVisionTags(ctx context.Context, id string, tags models.VisionTags) error {
	return s.updateVisionTagsFn(ctx, id, tags)
}

func noopProductRepo() *productRepoStub {
	return &productRepoStub{
		createFn: func(context.Context, *models.Product) error { return nil },
		getByIDFn: func(_ context.Context, id string) (*models.Product, error) {
			return &models.Product{ID: id}, nil
		},
		listFn:              func(context.Context, int) ([]models.Product, error) { return nil, nil },
		updateTrendScoresFn: func(context.Context, map[string]float64) error { return nil },
		updateVisionTagsFn:  func(context.Context, string, models.VisionTags) error { return nil },
	}
}

// invokerStub is a stub for relay.Invoker that decodes a canned reply.
type invokerStub struct {
	invokeFn func(context.Context, relay.Target, interface{}) ([]byte, error)
	calls    []relay.Target
}

func (s *invokerStub) Invoke(ctx context.Context, target relay.Target, payload, out interface{}) error {
	s.calls = append(s.calls, target)
	raw, err := s.invokeFn(ctx, target, payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func replyWith(raw string) *invokerStub {
	return &invokerStub{invokeFn: func(context.Context, relay.Target, interface{}) ([]byte, error) {
		return []byte(raw), nil
	}}
}

// analyzerStub is a stub for Analyzer.
type analyzerStub struct {
	enabled   bool
	analyzeFn func(context.Context, string) (*relay.OutfitAnalysis, error)
}

func (s *analyzerStub) Enabled() bool { return s.enabled }
func (s *analyzerStub) Analyze(ctx context.Context, imageURL string) (*relay.OutfitAnalysis, error) {
	return s.analyzeFn(ctx, imageURL)
}

// uploaderStub is a stub for Uploader.
type uploaderStub struct {
	uploadFn func(context.Context, string, []byte) (*media.Stored, error)
	deleted  []string
	deleteFn func(context.Context, string) error
}

func (s *uploaderStub) Upload(ctx context.Context, ownerKey string, content []byte) (*media.Stored, error) {
	return s.uploadFn(ctx, ownerKey, content)
}
func (s *uploaderStub) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	if s.deleteFn != nil {
		return s.deleteFn(ctx, key)
	}
	return nil
}

// assertAppCode asserts that err is an AppError with the given code.
func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppCode(t, err, models.CodeValidation)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppCode(t, err, models.CodeUnauthorized)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppCode(t, err, models.CodeNotFound)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppCode(t, err, models.CodeForbidden)
}
