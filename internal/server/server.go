// Package server contains the HTTP handlers for the job tracker API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobtracker/internal/cache"
	"jobtracker/internal/config"
	"jobtracker/internal/middleware"
	"jobtracker/internal/models"
	"jobtracker/internal/observability"
	"jobtracker/internal/repository"
	"jobtracker/internal/service"
	"jobtracker/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          repository.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *service.AuthService
	jobs           *service.JobService
	documents      *service.DocumentService
	profiles       *service.ProfileService
}

// NewServer opens the selected data backend and Redis, then wires services.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("data store unavailable: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, store, cache.GetClient(), storage.NewLocal(cfg.DocumentsDir)), nil
}

// NewServerWithDeps creates a Server from already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, store repository.Store, redisClient *redis.Client, files *storage.Local) *Server {
	return &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("jobtracker-api"),
		auth:           service.NewAuthService(store.Users()),
		jobs:           service.NewJobService(store.Jobs(), cfg.StatsTTL()),
		documents:      service.NewDocumentService(store.Documents(), files),
		profiles:       service.NewProfileService(store.Profiles(), store.CareerGoals()),
	}
}

// App builds the fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Job Tracker API",
		BodyLimit: s.config.MaxUploadBytes(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "Unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", middleware.AuthRequired(s.config.JWTSecret))

	protected.Put("/auth/password", s.ChangePassword)
	protected.Get("/users/me", s.GetMe)
	protected.Delete("/users/me", s.DeleteAccount)

	jobs := protected.Group("/jobs")
	jobs.Get("/", s.GetJobs)
	jobs.Post("/", s.CreateJob)
	jobs.Put("/", s.SaveJobs)
	jobs.Get("/:id", s.GetJob)
	jobs.Put("/:id", s.UpdateJob)
	jobs.Delete("/:id", s.DeleteJob)

	protected.Get("/stats", s.GetStats)
	protected.Get("/dashboard", s.GetDashboard)

	docs := protected.Group("/documents")
	docs.Get("/", s.GetDocuments)
	docs.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadDocument)
	// Specific routes before generic /:id
	docs.Put("/preferences", s.SaveDocumentPreferences)
	docs.Get("/preferred", s.GetPreferredResume)
	docs.Get("/:id/content", s.GetDocumentContent)
	docs.Delete("/:id", s.DeleteDocument)

	protected.Get("/profile", s.GetProfile)
	protected.Put("/profile", s.UpdateProfile)

	goals := protected.Group("/career-goals")
	goals.Get("/", s.GetCareerGoals)
	goals.Post("/", s.AddCareerGoals)
	goals.Get("/current", s.GetCurrentCareerGoals)
}

// HealthCheck pings the data backend and reports Redis availability.
// Redis is optional, so only the data backend decides the status code.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overall,
		"backend": string(s.store.Backend()),
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	app := s.App()
	observability.Logger.Info("Server starting", slog.String("port", s.config.Port),
		slog.String("backend", string(s.store.Backend())))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and releases the store and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.store.Close(); err != nil {
		observability.Logger.Error("error closing data store", slog.String("error", err.Error()))
	}

	if err := cache.Close(); err != nil {
		observability.Logger.Error("error closing redis", slog.String("error", err.Error()))
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}
