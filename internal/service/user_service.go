package service

import (
	"context"
	"log/slog"

	"fashfolio/internal/cache"
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/repository"
	"fashfolio/internal/validation"

	"github.com/redis/go-redis/v9"
)

// SuggestedLimit is the number of follow suggestions returned.
const SuggestedLimit = 5

// MediaRemover deletes stored media by key.
type MediaRemover interface {
	Delete(ctx context.Context, key string) error
}

type UserService struct {
	users   repository.UserRepository
	outfits repository.OutfitRepository
	media   MediaRemover
	rdb     *redis.Client
}

func NewUserService(users repository.UserRepository, outfits repository.OutfitRepository, media MediaRemover, rdb *redis.Client) *UserService {
	return &UserService{users: users, outfits: outfits, media: media, rdb: rdb}
}

// EnsureUser returns the stored user for id, creating it from the token
// claims on first access.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	if err := requireActor(id.Key); err != nil {
		return nil, err
	}
	user, err := s.users.GetByExternalID(ctx, id.Key)
	if err == nil {
		return user, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	user = &models.User{
		ExternalID: id.Key,
		Email:      id.Email,
		Username:   id.Username,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		Photo:      id.Picture,
		Followers:  []string{},
		Following:  []string{},
	}
	if validation.ValidateUsername(user.Username) != nil {
		user.Username = DefaultUsername(id.Key)
	}

	createErr := s.users.Create(ctx, user)
	if createErr == nil {
		middleware.Logger.InfoContext(ctx, "Synced new user", slog.String("user_key", id.Key))
		return user, nil
	}
	if !models.IsCode(createErr, models.CodeValidation) {
		return nil, createErr
	}

	// A concurrent request may have created the user first.
	if existing, err := s.users.GetByExternalID(ctx, id.Key); err == nil {
		return existing, nil
	}
	// Otherwise the username belongs to someone else.
	user.ID = ""
	user.Username = DefaultUsername(id.Key) + "_" + models.NewID()[:4]
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DefaultUsername is user_ followed by the first five characters of key.
func DefaultUsername(key string) string {
	runes := []rune(key)
	if len(runes) > 5 {
		runes = runes[:5]
	}
	return "user_" + string(runes)
}

// cachedProfile is the cached form of a profile. User omits the email from
// JSON, so it is carried alongside.
type cachedProfile struct {
	User  models.User `json:"user"`
	Email string      `json:"email"`
}

// Profile returns key as seen by viewer. The email is included only when
// viewer is key.
func (s *UserService) Profile(ctx context.Context, key, viewer string) (*models.Profile, error) {
	var cached cachedProfile
	err := cache.Aside(ctx, s.rdb, cache.ProfileKey(key), &cached, cache.ProfileTTL, func() (any, error) {
		user, err := s.users.GetByExternalID(ctx, key)
		if err != nil {
			return nil, err
		}
		return cachedProfile{User: *user, Email: user.Email}, nil
	})
	if err != nil {
		return nil, err
	}
	user := cached.User
	profile := &models.Profile{
		User:           &user,
		FollowersCount: len(user.Followers),
		FollowingCount: len(user.Following),
		IsFollowing:    viewer != "" && contains(user.Followers, viewer),
	}
	if viewer != "" && viewer == key {
		profile.Email = cached.Email
	}
	return profile, nil
}

func (s *UserService) Follow(ctx context.Context, actor, target string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor == target {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByExternalID(ctx, target); err != nil {
		return err
	}
	if err := s.users.Follow(ctx, actor, target); err != nil {
		return err
	}
	cache.InvalidateProfiles(ctx, s.rdb, actor, target)
	return nil
}

// Unfollow succeeds whether or not actor followed target.
func (s *UserService) Unfollow(ctx context.Context, actor, target string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.users.Unfollow(ctx, actor, target); err != nil {
		return err
	}
	cache.InvalidateProfiles(ctx, s.rdb, actor, target)
	return nil
}

func (s *UserService) Followers(ctx context.Context, key string) ([]models.User, error) {
	user, err := s.users.GetByExternalID(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.users.GetManyByExternalIDs(ctx, user.Followers)
}

func (s *UserService) Following(ctx context.Context, key string) ([]models.User, error) {
	user, err := s.users.GetByExternalID(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.users.GetManyByExternalIDs(ctx, user.Following)
}

// Suggested returns users the actor does not follow yet.
func (s *UserService) Suggested(ctx context.Context, actor string) ([]models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var exclude []string
	user, err := s.users.GetByExternalID(ctx, actor)
	switch {
	case err == nil:
		exclude = user.Following
	case !models.IsCode(err, models.CodeNotFound):
		return nil, err
	}
	users, err := s.users.Suggested(ctx, actor, exclude, SuggestedLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// DeleteUser hard-deletes key with their outfits, comments on those outfits,
// likes and follow edges. Media deletion is best effort.
func (s *UserService) DeleteUser(ctx context.Context, key string) error {
	user, err := s.users.GetByExternalID(ctx, key)
	if err != nil {
		return err
	}

	owned, err := s.outfits.List(ctx, models.OutfitFilter{Viewer: key, OwnerKey: key})
	if err != nil {
		return err
	}
	if err := s.outfits.DeleteByOwner(ctx, key); err != nil {
		return err
	}
	released := make(map[string]bool, len(owned))
	for i := range owned {
		if id := owned[i].PublicID; !released[id] {
			released[id] = true
			releaseMedia(ctx, s.outfits, s.media, key, id)
		}
	}

	if err := s.users.Delete(ctx, key); err != nil {
		return err
	}
	keys := append([]string{key}, user.Followers...)
	keys = append(keys, user.Following...)
	cache.InvalidateProfiles(ctx, s.rdb, keys...)
	return nil
}
