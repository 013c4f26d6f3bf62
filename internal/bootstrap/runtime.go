// Package bootstrap opens the runtime dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fashfolio/internal/cache"
	"fashfolio/internal/config"
	"fashfolio/internal/database"
	"fashfolio/internal/docstore"
	"fashfolio/internal/media"
	"fashfolio/internal/middleware"
	"fashfolio/internal/observability"
	"fashfolio/internal/relay"
	"fashfolio/internal/repository"
	"fashfolio/internal/weather"

	"github.com/redis/go-redis/v9"
)

// Check tests one dependency for readiness.
type Check func(ctx context.Context) error

// Runtime holds every long-lived handle the server needs. Close releases them.
type Runtime struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Redis    *redis.Client
	Media    *media.Processor
	Relay    *relay.Relay
	Analyzer *relay.VisionAnalyzer
	Weather  *weather.Client
	// Checks are run by the readiness endpoint, keyed by dependency name.
	Checks map[string]Check

	closers []func(context.Context) error
}

// Options control runtime initialization behavior.
type Options struct {
	// SkipMedia leaves Media nil, for tools that never upload.
	SkipMedia bool
}

// InitRuntime connects the store selected by cfg.StoreDriver, Redis, the
// media store and the AI relay. On error every handle opened so far is
// released.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Checks: map[string]Check{}}
	defer func() {
		if err != nil {
			if closeErr := rt.Close(context.Background()); closeErr != nil {
				middleware.Logger.Warn("Failed to release partial runtime", slog.String("error", closeErr.Error()))
			}
		}
	}()

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "fashfolio-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, shutdownTracing)

	if err := rt.openStore(ctx, cfg); err != nil {
		return nil, err
	}

	// Redis backs caching and rate limiting; both degrade without it.
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache",
			slog.String("error", err.Error()))
	} else {
		rt.Redis = rdb
		rt.closers = append(rt.closers, func(context.Context) error { return rdb.Close() })
	}
	rt.Checks["redis"] = func(ctx context.Context) error {
		if rt.Redis == nil {
			return errors.New("redis unavailable")
		}
		return rt.Redis.Ping(ctx).Err()
	}

	if !opts.SkipMedia {
		store, err := media.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
		if closer, ok := store.(io.Closer); ok {
			rt.closers = append(rt.closers, func(context.Context) error { return closer.Close() })
		}
		rt.Media = media.NewProcessor(store, cfg.MaxUploadBytes())
	}

	rt.Relay = relay.New(transportFor(cfg), relay.Options{
		Timeout:        cfg.RelayTimeout(),
		MaxConcurrency: int64(cfg.RelayMaxConcurrency),
	})
	rt.Analyzer = relay.NewVisionAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	rt.Weather = weather.NewClient(cfg.WeatherBaseURL, rt.Redis)

	middleware.Logger.Info("Runtime initialized",
		slog.String("store", cfg.StoreDriver),
		slog.String("media", cfg.MediaDriver),
		slog.String("relay", rt.Relay.Transport()),
		slog.Bool("vision", rt.Analyzer.Enabled()),
	)
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, cfg *config.Config) error {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	rt.Repos = store.Repos
	rt.Checks["store"] = store.Ping
	rt.closers = append(rt.closers, store.Close)
	return nil
}

// Store is an opened persistence driver.
type Store struct {
	Repos *repository.Repositories
	Ping  Check
	Close func(ctx context.Context) error
}

// OpenStore connects the driver selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("document store connection failed: %w", err)
		}
		return &Store{Repos: store.Repositories(), Ping: store.Ping, Close: store.Close}, nil
	default:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return &Store{
			Repos: repository.NewGormRepositories(db),
			Ping:  func(ctx context.Context) error { return database.Ping(ctx, db) },
			Close: func(context.Context) error { return database.Close(db) },
		}, nil
	}
}

func transportFor(cfg *config.Config) relay.Transport {
	if cfg.AIBackendURL != "" {
		return relay.NewHTTPTransport(cfg.AIBackendURL)
	}
	return relay.NewProcessTransport(cfg.PythonCommand, cfg.AIScriptsDir)
}

// Close releases every handle in reverse order of opening.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
