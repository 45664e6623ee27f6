package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/ami-labs/emotion-api/internal/api/docs"
	"github.com/ami-labs/emotion-api/internal/api/handler"
	"github.com/ami-labs/emotion-api/internal/api/middleware"
	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/provider"
	"github.com/ami-labs/emotion-api/internal/repository"
	"github.com/ami-labs/emotion-api/internal/service"
)

type Dependencies struct {
	Analyzer          provider.FaceAnalyzer
	Pipeline          *classifier.Pipeline
	OverrideThreshold float64
	AllowOrigins      string
	DB                *pgxpool.Pool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Emotion API",
		BodyLimit:    16 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	allowOrigins := "*"
	if r.deps != nil && r.deps.AllowOrigins != "" {
		allowOrigins = r.deps.AllowOrigins
	}

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	var db handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil || r.deps.Analyzer == nil {
		return
	}

	// Per-client rate limiting
	r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	// Detection audit is best effort and only wired when Postgres is up
	var detectionRepo service.DetectionRepositoryInterface
	if r.deps.DB != nil {
		detectionRepo = repository.NewDetectionRepository(r.deps.DB)
	}

	emotionService := service.NewEmotionService(r.deps.Analyzer, detectionRepo, r.logger)
	if r.deps.Pipeline != nil {
		emotionService = emotionService.WithPipeline(r.deps.Pipeline)
	}
	if r.deps.OverrideThreshold > 0 {
		emotionService = emotionService.WithOverrideThreshold(r.deps.OverrideThreshold)
	}

	emotionHandler := handler.NewEmotionHandler(emotionService, r.logger)
	r.app.Post("/detect_emotion", r.rateLimiter.Handler(), emotionHandler.DetectEmotion)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
