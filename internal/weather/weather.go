// Package weather looks up current conditions from Open-Meteo and maps them
// onto outfit seasons and moods.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fashfolio/internal/cache"
	"fashfolio/internal/models"
	"fashfolio/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
)

// DefaultBaseURL is the public Open-Meteo API.
const DefaultBaseURL = "https://api.open-meteo.com"

// Conditions derived from WMO weather codes.
const (
	ClearSky = "Clear Sky"
	Cloudy   = "Cloudy"
	Foggy    = "Foggy"
	Rainy    = "Rainy"
	Snowy    = "Snowy"
	Stormy   = "Stormy"
	Unknown  = "Unknown"
)

// Snapshot is the current weather at a coordinate pair.
type Snapshot struct {
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
	Code      int    `json:"code"`
}

// Target is the season and mood an outfit should match for a snapshot.
type Target struct {
	Season string `json:"season"`
	Mood   string `json:"mood,omitempty"`
}

// Client fetches snapshots, caching them in Redis when available.
type Client struct {
	baseURL string
	http    *http.Client
	rdb     *redis.Client
}

// NewClient returns a Client. An empty baseURL uses DefaultBaseURL and rdb may
// be nil.
func NewClient(baseURL string, rdb *redis.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Current returns the conditions at lat/lon.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	var snap Snapshot
	err := cache.Aside(ctx, c.rdb, cache.WeatherKey(lat, lon), &snap, cache.WeatherTTL, func() (any, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "open-meteo", "forecast")
	defer span.End()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,weather_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, models.NewExternalError("Failed to fetch weather", "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, models.NewExternalError("Failed to fetch weather", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return nil, models.NewExternalError("Failed to fetch weather", clip(body), fmt.Errorf("open-meteo returned %d", resp.StatusCode))
	}

	var parsed forecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, models.NewExternalError("Failed to fetch weather", clip(body), err)
	}
	return &Snapshot{
		Temp:      RoundHalfUp(parsed.Current.Temperature),
		Condition: Condition(parsed.Current.WeatherCode),
		Code:      parsed.Current.WeatherCode,
	}, nil
}

// ValidateCoordinates rejects latitudes outside [-90,90] and longitudes
// outside [-180,180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return models.NewValidationError("lat must be between -90 and 90")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return models.NewValidationError("lon must be between -180 and 180")
	}
	return nil
}

// RoundHalfUp rounds halves toward positive infinity.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Condition maps a WMO weather code.
func Condition(code int) string {
	switch {
	case code == 0:
		return ClearSky
	case code >= 1 && code <= 3:
		return Cloudy
	case code >= 45 && code <= 48:
		return Foggy
	case code >= 51 && code <= 67:
		return Rainy
	case code >= 71 && code <= 77:
		return Snowy
	case code >= 80 && code <= 82:
		return Rainy
	case code >= 85 && code <= 86:
		return Snowy
	case code >= 95:
		return Stormy
	default:
		return Unknown
	}
}

// TargetFor picks the season from the temperature and a Rainy mood for wet
// conditions.
func TargetFor(s Snapshot) Target {
	t := Target{Season: "Fall"}
	switch {
	case s.Temp >= 25:
		t.Season = "Summer"
	case s.Temp <= 15:
		t.Season = "Winter"
	}
	if s.Condition == Rainy || s.Condition == Stormy {
		t.Mood = Rainy
	}
	return t
}

// Matches reports whether o suits t.
func (t Target) Matches(o *models.Outfit) bool {
	if o.Season == t.Season || o.Context.Season == t.Season {
		return true
	}
	if t.Mood != Rainy {
		return false
	}
	return o.Mood == Rainy || o.Context.Mood == Rainy ||
		strings.Contains(strings.ToLower(o.Description), "rain")
}

// Recommend returns up to limit outfits matching t, preserving order.
func Recommend(outfits []models.Outfit, t Target, limit int) []models.Outfit {
	out := make([]models.Outfit, 0, limit)
	for i := range outfits {
		if len(out) == limit {
			break
		}
		if t.Matches(&outfits[i]) {
			out = append(out, outfits[i])
		}
	}
	return out
}

func clip(body []byte) string {
	const max = 4 << 10
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
