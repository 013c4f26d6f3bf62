package server

import (
	"net/http"
	"testing"

	"fashfolio/internal/service"
	"fashfolio/internal/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWeather(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(http.MethodGet, "/api/weather?lat=51.5&lon=-0.12", "", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, weather.Snapshot{Temp: 12, Condition: weather.Rainy, Code: 61}, decode[weather.Snapshot](t, raw))

	status, _ = env.do(http.MethodGet, "/api/weather?lat=abc&lon=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodGet, "/api/weather?lat=95&lon=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetWeatherRecommendations(t *testing.T) {
	env := newTestEnv(t)
	winter := env.createOutfit("alice", map[string]interface{}{"season": "Winter"})
	rainy := env.createOutfit("alice", map[string]interface{}{"season": "Summer", "description": "Rain coat day"})
	env.createOutfit("alice", map[string]interface{}{"season": "Summer"})
	env.createOutfit("bob", map[string]interface{}{"season": "Winter"})

	status, raw := env.do(http.MethodGet, "/api/weather/recommendations?lat=51.5&lon=-0.12", "alice", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	recs := decode[service.Recommendations](t, raw)
	assert.Equal(t, weather.Target{Season: "Winter", Mood: weather.Rainy}, recs.Target)
	var ids []string
	for _, o := range recs.Recommendations {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{winter.ID, rainy.ID}, ids)

	status, _ = env.do(http.MethodGet, "/api/weather/recommendations?lat=51.5&lon=-0.12", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
