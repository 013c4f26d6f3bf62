package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fashfolio/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition(t *testing.T) {
	tests := map[int]string{
		0: ClearSky, 2: Cloudy, 45: Foggy, 48: Foggy, 51: Rainy, 67: Rainy,
		71: Snowy, 80: Rainy, 82: Rainy, 86: Snowy, 95: Stormy, 99: Stormy,
		4: Unknown, 90: Unknown,
	}
	for code, want := range tests {
		assert.Equal(t, want, Condition(code), "code %d", code)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 25, RoundHalfUp(24.5))
	assert.Equal(t, 24, RoundHalfUp(24.49))
	assert.Equal(t, -2, RoundHalfUp(-2.5))
	assert.Equal(t, -3, RoundHalfUp(-2.51))
}

func TestTargetFor(t *testing.T) {
	assert.Equal(t, Target{Season: "Summer"}, TargetFor(Snapshot{Temp: 25, Condition: ClearSky}))
	assert.Equal(t, Target{Season: "Winter"}, TargetFor(Snapshot{Temp: 15, Condition: Cloudy}))
	assert.Equal(t, Target{Season: "Fall", Mood: Rainy}, TargetFor(Snapshot{Temp: 18, Condition: Rainy}))
	assert.Equal(t, Target{Season: "Summer", Mood: Rainy}, TargetFor(Snapshot{Temp: 30, Condition: Stormy}))
}

func TestRecommend(t *testing.T) {
	outfits := []models.Outfit{
		{ID: "a", Season: "Winter"},
		{ID: "b", Context: models.OutfitContext{Version: 1, Season: "Fall"}},
		{ID: "c", Mood: "Rainy"},
		{ID: "d", Description: "Caught in the RAIN again"},
		{ID: "e", Season: "Fall"},
		{ID: "f", Context: models.OutfitContext{Version: 1, Mood: "Rainy"}},
		{ID: "g", Season: "Fall"},
	}

	dry := Recommend(outfits, Target{Season: "Fall"}, 4)
	require.Len(t, dry, 3)
	assert.Equal(t, "b", dry[0].ID)
	assert.Equal(t, "e", dry[1].ID)

	wet := Recommend(outfits, Target{Season: "Fall", Mood: Rainy}, 4)
	ids := make([]string, len(wet))
	for i := range wet {
		ids[i] = wet[i].ID
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, ids)
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(90, -180))
	assert.Error(t, ValidateCoordinates(90.1, 0))
	assert.Error(t, ValidateCoordinates(0, 181))
}

func TestClientCurrent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "temperature_2m,weather_code", r.URL.Query().Get("current"))
		assert.Equal(t, "51.5", r.URL.Query().Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":12.5,"weather_code":61}}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	client := NewClient(srv.URL, rdb)
	snap, err := client.Current(context.Background(), 51.5, -0.12)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Temp: 13, Condition: Rainy, Code: 61}, *snap)

	again, err := client.Current(context.Background(), 51.501, -0.121)
	require.NoError(t, err)
	assert.Equal(t, *snap, *again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClientUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Current(context.Background(), 10, 10)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeExternal))
	assert.Equal(t, http.StatusBadGateway, models.StatusFor(err))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "quota exceeded")
}

func TestClientRejectsBadCoordinates(t *testing.T) {
	_, err := NewClient("http://unused", nil).Current(context.Background(), 100, 0)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
