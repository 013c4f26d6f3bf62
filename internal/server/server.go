// Package server contains the HTTP handlers for the FashFolio API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"fashfolio/internal/bootstrap"
	"fashfolio/internal/config"
	"fashfolio/internal/featureflags"
	"fashfolio/internal/media"
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/notifications"
	"fashfolio/internal/relay"
	"fashfolio/internal/repository"
	"fashfolio/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// AI routes share one per-identity budget.
const (
	aiRateLimit  = 10
	aiRateWindow = time.Minute
)

// Deps are the collaborators a Server is built on. Media, Analyzer and
// Weather may be nil.
type Deps struct {
	Repos    *repository.Repositories
	Redis    *redis.Client
	Media    *media.Processor
	Invoker  relay.Invoker
	Analyzer service.Analyzer
	Weather  service.WeatherSource
	// Checks are run by the readiness endpoint, keyed by dependency name.
	Checks map[string]bootstrap.Check
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	runtime        *bootstrap.Runtime
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *middleware.Authenticator
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	validate       *validator.Validate
	checks         map[string]bootstrap.Check

	// stopNotifications cancels the subscriber started by Start.
	stopNotifications context.CancelFunc

	feedService       *service.FeedService
	engagementService *service.EngagementService
	userService       *service.UserService
	outfitService     *service.OutfitService
	collectionService *service.CollectionService
	weatherService    *service.WeatherService
	studioService     *service.StudioService
}

// NewServer opens the runtime described by cfg and builds a server on it.
// Shutdown releases the runtime.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	server, err := NewServerWithDeps(cfg, Deps{
		Repos:    rt.Repos,
		Redis:    rt.Redis,
		Media:    rt.Media,
		Invoker:  rt.Relay,
		Analyzer: rt.Analyzer,
		Weather:  rt.Weather,
		Checks:   rt.Checks,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	server.runtime = rt
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when the caller owns the store and Redis handles.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("server requires repositories")
	}
	repos := deps.Repos

	// Interfaces stay nil when the concrete dependency is absent.
	var uploader service.Uploader
	var remover service.MediaRemover
	if deps.Media != nil {
		uploader = deps.Media
		remover = deps.Media
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	feed := service.NewFeedService(repos.Users, repos.Outfits)

	server := &Server{
		config:         cfg,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("fashfolio-api"),
		auth: middleware.NewAuthenticator(middleware.AuthConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}, deps.Redis),
		featureFlags:      flags,
		notifier:          notifications.NewNotifier(deps.Redis),
		validate:          newValidator(),
		checks:            deps.Checks,
		feedService:       feed,
		engagementService: service.NewEngagementService(repos.Outfits, repos.Comments),
		userService:       service.NewUserService(repos.Users, repos.Outfits, remover, deps.Redis),
		outfitService:     service.NewOutfitService(repos.Outfits, feed, uploader, deps.Analyzer, flags),
		collectionService: service.NewCollectionService(repos.Collections, repos.Outfits),
		studioService:     service.NewStudioService(repos.Products, repos.Users, deps.Invoker, deps.Redis),
	}
	if deps.Weather != nil {
		server.weatherService = service.NewWeatherService(deps.Weather, repos.Outfits)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and user key
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		middleware.RegisterMetricsEndpoint(app, s.promMiddleware, "/metrics")
	}

	// Uploaded images on the local driver are served by the API itself.
	if s.config.MediaDriver == config.MediaLocal && s.config.MediaLocalDir != "" {
		app.Static("/media", s.config.MediaLocalDir)
	}

	api := app.Group("/api")
	optional := s.auth.Optional()
	aiLimit := middleware.RateLimit(s.redis, aiRateLimit, aiRateWindow, "ai")

	api.Get("/feed", optional, s.GetFeed)

	// Outfit routes. Static segments come before /:id.
	outfits := api.Group("/outfits")
	outfits.Get("/", optional, s.GetOutfits)
	outfits.Post("/", s.authed(s.CreateOutfit)...)
	outfits.Post("/upload", s.authed(s.UploadOutfitImage)...)
	outfits.Post("/analyze", s.authed(aiLimit, s.AnalyzeOutfit)...)
	outfits.Get("/:id/comments", optional, s.GetComments)
	outfits.Post("/:id/comments", s.authed(s.CreateComment)...)
	outfits.Post("/:id/like", s.authed(s.ToggleLike)...)
	outfits.Get("/:id", optional, s.GetOutfit)
	outfits.Patch("/:id", s.authed(s.UpdateOutfit)...)
	outfits.Delete("/:id", s.authed(s.DeleteOutfit)...)

	// User routes. /me, /suggested and /ai-ranking before /:key.
	users := api.Group("/users")
	users.Get("/me", s.authed(s.GetMyProfile)...)
	users.Get("/suggested", s.authed(s.GetSuggestedUsers)...)
	users.Post("/ai-ranking", s.authed(aiLimit, s.RankUsers)...)
	users.Get("/:key/outfits", optional, s.GetUserOutfits)
	users.Get("/:key/followers", s.GetFollowers)
	users.Get("/:key/following", s.GetFollowing)
	users.Post("/:key/follow", s.authed(s.FollowUser)...)
	users.Delete("/:key/follow", s.authed(s.UnfollowUser)...)
	users.Get("/:key", optional, s.GetUserProfile)

	// Collection routes
	collections := api.Group("/collections")
	collections.Get("/", s.authed(s.GetMyCollections)...)
	collections.Post("/", s.authed(s.CreateCollection)...)
	collections.Get("/:id", optional, s.GetCollection)
	collections.Post("/:id/outfits/:outfitId", s.authed(s.AddCollectionOutfit)...)
	collections.Delete("/:id/outfits/:outfitId", s.authed(s.RemoveCollectionOutfit)...)

	// Weather routes
	api.Get("/weather", s.GetWeather)
	api.Get("/weather/recommendations", s.authed(s.GetWeatherRecommendations)...)

	// Studio routes
	api.Get("/products", s.GetProducts)
	api.Post("/products", s.authed(s.CreateProduct)...)
	api.Post("/products/:id/vision", s.authed(aiLimit, s.TagProduct)...)
	api.Get("/analyze-trends", s.authed(aiLimit, s.AnalyzeTrends)...)
	api.Post("/score-users", s.authed(aiLimit, s.ScoreUsers)...)
	api.Post("/seyna/command", s.authed(aiLimit, s.SeynaCommand)...)
	api.Post("/agent/chat", s.authed(aiLimit, s.AgentChat)...)

	// Admin routes
	admin := api.Group("/admin")
	admin.Delete("/users/:key", s.authed(s.AdminRequired(), s.AdminDeleteUser)...)
	admin.Get("/feature-flags", s.authed(s.AdminRequired(), s.GetFeatureFlags)...)
}

// authed prefixes handlers with token verification and the lazy user sync.
func (s *Server) authed(handlers ...fiber.Handler) []fiber.Handler {
	return append([]fiber.Handler{s.auth.Required(), s.SyncUser()}, handlers...)
}

// App builds a Fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "FashFolio API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.App()
	if err := s.startNotificationRelay(context.Background()); err != nil {
		middleware.Logger.Warn("Notification subscriber unavailable", "error", err.Error())
	}
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Shutdown the HTTP server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	s.stopNotificationRelay()

	// Close store, Redis, media and tracing handles
	if s.runtime != nil {
		if err := s.runtime.Close(ctx); err != nil {
			log.Printf("error closing runtime: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
