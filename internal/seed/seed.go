package seed

import (
	"context"
	"fmt"
	"log/slog"

	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/repository"
)

// Options configures a seeding run.
type Options struct {
	NumUsers        int
	OutfitsPerUser  int
	FollowsPerUser  int
	LikesPerOutfit  int
	CommentsPerPost int
	NumProducts     int
	MaxDays         int
	// Seed makes runs reproducible; zero picks a random one.
	Seed int64
}

// DefaultOptions is a small demo network.
var DefaultOptions = Options{
	NumUsers:        25,
	OutfitsPerUser:  4,
	FollowsPerUser:  5,
	LikesPerOutfit:  6,
	CommentsPerPost: 2,
	NumProducts:     12,
	MaxDays:         90,
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Follows     int
	Outfits     int
	Likes       int
	Comments    int
	Collections int
	Products    int
}

// Seeder writes demo data through the repository contracts.
type Seeder struct {
	repos   *repository.Repositories
	factory *Factory
	opts    Options
}

// NewSeeder binds a seeder to repos.
func NewSeeder(repos *repository.Repositories, opts Options) *Seeder {
	return &Seeder{repos: repos, factory: NewFactory(opts.Seed, opts.MaxDays), opts: opts}
}

// Run creates users, the follow mesh, outfits with likes and comments, one
// collection per user and the studio catalog.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	users, err := s.seedUsers(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	middleware.Logger.Info("Seeded users", slog.Int("count", sum.Users))

	if sum.Follows, err = s.seedFollows(ctx, users); err != nil {
		return sum, fmt.Errorf("failed to create follows: %w", err)
	}

	outfits, err := s.seedOutfits(ctx, users)
	if err != nil {
		return sum, fmt.Errorf("failed to create outfits: %w", err)
	}
	sum.Outfits = len(outfits)
	middleware.Logger.Info("Seeded outfits", slog.Int("count", sum.Outfits))

	if sum.Likes, sum.Comments, err = s.seedEngagement(ctx, users, outfits); err != nil {
		return sum, fmt.Errorf("failed to create engagement: %w", err)
	}
	if sum.Collections, err = s.seedCollections(ctx, users, outfits); err != nil {
		return sum, fmt.Errorf("failed to create collections: %w", err)
	}
	if sum.Products, err = s.seedProducts(ctx, users); err != nil {
		return sum, fmt.Errorf("failed to create products: %w", err)
	}

	middleware.Logger.Info("Seeding completed",
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments),
		slog.Int("products", sum.Products))
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user := s.factory.BuildUser(i)
		if err := s.repos.Users.Create(ctx, user); err != nil {
			if models.IsCode(err, models.CodeValidation) {
				middleware.Logger.Warn("Skipping duplicate seed user", slog.String("user_key", user.ExternalID))
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) (int, error) {
	count := 0
	for i, follower := range users {
		for _, j := range s.factory.pick(len(users), s.opts.FollowsPerUser, i) {
			if err := s.repos.Users.Follow(ctx, follower.ExternalID, users[j].ExternalID); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) seedOutfits(ctx context.Context, users []*models.User) ([]*models.Outfit, error) {
	outfits := make([]*models.Outfit, 0, len(users)*s.opts.OutfitsPerUser)
	for _, owner := range users {
		for n := 0; n < s.opts.OutfitsPerUser; n++ {
			outfit := s.factory.BuildOutfit(owner)
			if err := s.repos.Outfits.Create(ctx, outfit); err != nil {
				return nil, err
			}
			outfits = append(outfits, outfit)
		}
	}
	return outfits, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, outfits []*models.Outfit) (likes, comments int, err error) {
	if len(users) == 0 {
		return 0, 0, nil
	}
	for _, outfit := range outfits {
		if !outfit.IsPublic {
			continue
		}
		for _, i := range s.factory.pick(len(users), s.opts.LikesPerOutfit, -1) {
			if _, err := s.repos.Outfits.AddLike(ctx, outfit.ID, users[i].ExternalID); err != nil {
				return likes, comments, err
			}
			likes++
		}
		for _, i := range s.factory.pick(len(users), s.opts.CommentsPerPost, -1) {
			if err := s.repos.Comments.Create(ctx, s.factory.BuildComment(users[i], outfit)); err != nil {
				return likes, comments, err
			}
			comments++
		}
	}
	return likes, comments, nil
}

func (s *Seeder) seedCollections(ctx context.Context, users []*models.User, outfits []*models.Outfit) (int, error) {
	count := 0
	for _, owner := range users {
		collection := &models.Collection{
			OwnerKey:  owner.ExternalID,
			Name:      "Favorites",
			OutfitIDs: models.StringList{},
		}
		for _, outfit := range outfits {
			if outfit.OwnerKey == owner.ExternalID && len(collection.OutfitIDs) < 2 {
				collection.OutfitIDs = append(collection.OutfitIDs, outfit.ID)
			}
		}
		if err := s.repos.Collections.Create(ctx, collection); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Seeder) seedProducts(ctx context.Context, users []*models.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	designers := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.IsDesigner {
			designers = append(designers, u)
		}
	}
	if len(designers) == 0 {
		designers = users[:1]
	}
	for n := 0; n < s.opts.NumProducts; n++ {
		if err := s.repos.Products.Create(ctx, s.factory.BuildProduct(designers[n%len(designers)])); err != nil {
			return n, err
		}
	}
	return s.opts.NumProducts, nil
}
