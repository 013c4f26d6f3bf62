package service

import (
	"context"

	"fashfolio/internal/models"
	"fashfolio/internal/repository"
	"fashfolio/internal/weather"
)

// RecommendationLimit caps weather-based outfit suggestions.
const RecommendationLimit = 4

// WeatherSource reports current conditions.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

type WeatherService struct {
	source  WeatherSource
	outfits repository.OutfitRepository
}

// Recommendations pairs current conditions with matching outfits.
type Recommendations struct {
	Weather         weather.Snapshot `json:"weather"`
	Target          weather.Target   `json:"target"`
	Recommendations []models.Outfit  `json:"recommendations"`
}

func NewWeatherService(source WeatherSource, outfits repository.OutfitRepository) *WeatherService {
	return &WeatherService{source: source, outfits: outfits}
}

func (s *WeatherService) Current(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	return s.source.Current(ctx, lat, lon)
}

// Recommend picks up to RecommendationLimit of the actor's own outfits that
// suit the weather at lat/lon.
func (s *WeatherService) Recommend(ctx context.Context, actor string, lat, lon float64) (*Recommendations, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	snap, err := s.source.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	target := weather.TargetFor(*snap)

	owned, err := s.outfits.List(ctx, models.OutfitFilter{Viewer: actor, OwnerKey: actor})
	if err != nil {
		return nil, err
	}
	return &Recommendations{
		Weather:         *snap,
		Target:          target,
		Recommendations: weather.Recommend(owned, target, RecommendationLimit),
	}, nil
}
