package server

import (
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) weatherUnavailable(c *fiber.Ctx) bool {
	if s.weatherService != nil {
		return false
	}
	_ = models.RespondWithError(c, fiber.StatusServiceUnavailable,
		models.NewExternalError("Weather is not configured", "", nil))
	return true
}

// GetWeather handles GET /api/weather?lat=&lon=
// @Summary Current weather
// @Description Current temperature and condition at a coordinate.
// @Tags weather
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} weather.Snapshot
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /weather [get]
func (s *Server) GetWeather(c *fiber.Ctx) error {
	if s.weatherUnavailable(c) {
		return nil
	}
	lat, lon, err := parseCoordinates(c)
	if err != nil {
		return nil
	}

	snapshot, err := s.weatherService.Current(c.UserContext(), lat, lon)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(snapshot)
}

// GetWeatherRecommendations handles GET /api/weather/recommendations?lat=&lon=
// @Summary Weather recommendations
// @Description Own outfits that suit the current weather.
// @Tags weather
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} service.Recommendations
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /weather/recommendations [get]
func (s *Server) GetWeatherRecommendations(c *fiber.Ctx) error {
	if s.weatherUnavailable(c) {
		return nil
	}
	lat, lon, err := parseCoordinates(c)
	if err != nil {
		return nil
	}

	recs, err := s.weatherService.Recommend(c.UserContext(), middleware.UserKey(c), lat, lon)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(recs)
}
