package service

import (
	"context"
	"encoding/json"
	"strings"

	"fashfolio/internal/cache"
	"fashfolio/internal/models"
	"fashfolio/internal/relay"
	"fashfolio/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Studio relay limits.
const (
	RankingUserLimit    = 10
	AgentContextProduct = 10
)

type StudioService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	relay    relay.Invoker
	rdb      *redis.Client
}

type CreateProductInput struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Designer       string  `json:"designer" validate:"max=200"`
	Price          float64 `json:"price" validate:"gte=0"`
	Category       string  `json:"category" validate:"max=100"`
	Image          string  `json:"image" validate:"omitempty,url"`
	MarketingBlurb string  `json:"marketingBlurb" validate:"max=2000"`
}

func NewStudioService(products repository.ProductRepository, users repository.UserRepository, invoker relay.Invoker, rdb *redis.Client) *StudioService {
	return &StudioService{products: products, users: users, relay: invoker, rdb: rdb}
}

// ListProducts returns the catalog, newest first.
func (s *StudioService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := cache.Aside(ctx, s.rdb, cache.ProductsKey, &products, cache.ProductsTTL, func() (any, error) {
		return s.products.List(ctx, 0)
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *StudioService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("Price must not be negative")
	}
	product := &models.Product{
		Title:          title,
		Designer:       strings.TrimSpace(in.Designer),
		Price:          in.Price,
		Category:       strings.TrimSpace(in.Category),
		Image:          strings.TrimSpace(in.Image),
		MarketingBlurb: strings.TrimSpace(in.MarketingBlurb),
		AITags:         models.StringList{},
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	cache.InvalidateProducts(ctx, s.rdb)
	return product, nil
}

// AnalyzeTrends scores the catalog through the trend script, stores the
// returned scores and returns the refreshed catalog.
func (s *StudioService) AnalyzeTrends(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []models.Product{}, nil
	}

	var scored []relay.TrendScore
	if err := s.relay.Invoke(ctx, relay.TargetTrend, relay.TrendPayload(products), &scored); err != nil {
		return nil, relay.AsAppError(err)
	}

	known := make(map[string]struct{}, len(products))
	for i := range products {
		known[products[i].ID] = struct{}{}
	}
	scores := make(map[string]float64, len(scored))
	for _, sc := range scored {
		if _, ok := known[sc.ID]; ok {
			scores[sc.ID] = sc.TrendScore
		}
	}
	if err := s.products.UpdateTrendScores(ctx, scores); err != nil {
		return nil, err
	}
	cache.InvalidateProducts(ctx, s.rdb)
	return s.products.List(ctx, 0)
}

// ScoreUsers relays users to the scoring script and returns its output
// unmodified.
func (s *StudioService) ScoreUsers(ctx context.Context, users []models.UserSnapshot) (json.RawMessage, error) {
	payload, err := relay.ScoringPayload(users)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := s.relay.Invoke(ctx, relay.TargetScoring, payload, &out); err != nil {
		return nil, relay.AsAppError(err)
	}
	return out, nil
}

// RankUsers scores the most recent RankingUserLimit users.
func (s *StudioService) RankUsers(ctx context.Context) (json.RawMessage, error) {
	users, err := s.users.List(ctx, RankingUserLimit)
	if err != nil {
		return nil, err
	}
	return s.ScoreUsers(ctx, relay.UserSnapshots(users))
}

// Seyna runs a goal through the agent team.
func (s *StudioService) Seyna(ctx context.Context, goal string) (*relay.SeynaReport, error) {
	payload, err := relay.SeynaPayload(goal)
	if err != nil {
		return nil, err
	}
	var report relay.SeynaReport
	if err := s.relay.Invoke(ctx, relay.TargetSeyna, payload, &report); err != nil {
		return nil, relay.AsAppError(err)
	}
	if report.TeamReports == nil {
		report.TeamReports = []relay.TeamReport{}
	}
	return &report, nil
}

// AgentChat answers message with the newest catalog entries as context.
func (s *StudioService) AgentChat(ctx context.Context, message, mode string) (*relay.AgentReply, error) {
	products, err := s.products.List(ctx, AgentContextProduct)
	if err != nil {
		return nil, err
	}
	payload, err := relay.AgentPayload(message, mode, products)
	if err != nil {
		return nil, err
	}
	var reply relay.AgentReply
	if err := s.relay.Invoke(ctx, relay.TargetAgent, payload, &reply); err != nil {
		return nil, relay.AsAppError(err)
	}
	return &reply, nil
}

// TagProduct runs the vision agent on the product image and stores the tags.
func (s *StudioService) TagProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := relay.PixelPayload(product.Image)
	if err != nil {
		return nil, err
	}

	var report relay.PixelReport
	if err := s.relay.Invoke(ctx, relay.TargetPixel, payload, &report); err != nil {
		return nil, relay.AsAppError(err)
	}
	if report.Error != "" {
		details := report.Error
		if report.RawOutput != "" {
			details += ": " + report.RawOutput
		}
		return nil, models.NewExternalError("AI Parsing Failed", details, nil)
	}

	if err := s.products.UpdateVisionTags(ctx, id, report.Tags()); err != nil {
		return nil, err
	}
	cache.InvalidateProducts(ctx, s.rdb)
	return s.products.GetByID(ctx, id)
}
