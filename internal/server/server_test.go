package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fashfolio/internal/bootstrap"
	"fashfolio/internal/config"
	"fashfolio/internal/database"
	"fashfolio/internal/media"
	"fashfolio/internal/models"
	"fashfolio/internal/relay"
	"fashfolio/internal/repository"
	"fashfolio/internal/testutil"
	"fashfolio/internal/weather"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockInvoker is a mock of the relay.Invoker interface. The first return
// value is raw JSON decoded into out.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, target relay.Target, payload, out interface{}) error {
	args := m.Called(ctx, target, payload, out)
	if raw, ok := args.Get(0).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			return err
		}
	}
	return args.Error(1)
}

type weatherStub struct {
	snapshot weather.Snapshot
	err      error
}

func (w weatherStub) Current(_ context.Context, lat, lon float64) (*weather.Snapshot, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if w.err != nil {
		return nil, w.err
	}
	snap := w.snapshot
	return &snap, nil
}

type testEnv struct {
	t       *testing.T
	app     *fiber.App
	server  *Server
	repos   *repository.Repositories
	redis   *redis.Client
	invoker *MockInvoker
	media   *testutil.MediaStoreStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repos := repository.NewGormRepositories(db)
	store := testutil.NewMediaStoreStub()
	invoker := new(MockInvoker)

	cfg := &config.Config{
		JWTSecret:        testSecret,
		Env:              "test",
		AllowedOrigins:   "http://localhost:3000",
		MediaMaxUploadMB: 10,
	}
	srv, err := NewServerWithDeps(cfg, Deps{
		Repos:   repos,
		Redis:   rdb,
		Media:   media.NewProcessor(store, cfg.MaxUploadBytes()),
		Invoker: invoker,
		Weather: weatherStub{snapshot: weather.Snapshot{Temp: 12, Condition: weather.Rainy, Code: 61}},
		Checks: map[string]bootstrap.Check{
			"store": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})
	require.NoError(t, err)

	return &testEnv{
		t:       t,
		app:     srv.App(),
		server:  srv,
		repos:   repos,
		redis:   rdb,
		invoker: invoker,
		media:   store,
	}
}

func tokenFor(t *testing.T, sub, username string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":                sub,
		"email":              username + "@example.com",
		"preferred_username": username,
		"given_name":         username,
		"picture":            "https://img.example.com/" + username + ".png",
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// do sends a request as sub ("" for a guest) and returns the status and body.
func (e *testEnv) do(method, path, sub string, body interface{}) (int, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(e.t, sub, sub))
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) (int, []byte) {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// createOutfit posts an outfit as sub and returns it.
func (e *testEnv) createOutfit(sub string, body map[string]interface{}) models.Outfit {
	e.t.Helper()
	if _, ok := body["imageUrl"]; !ok {
		body["imageUrl"] = "https://img.example.com/" + sub + ".webp"
	}
	status, raw := e.do(http.MethodPost, "/api/outfits", sub, body)
	require.Equal(e.t, http.StatusCreated, status, string(raw))
	return decode[models.Outfit](e.t, raw)
}
