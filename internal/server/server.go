// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "marketplace/docs" // swagger docs
	"marketplace/internal/bootstrap"
	"marketplace/internal/captcha"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/email"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
	"marketplace/internal/notifications"
	"marketplace/internal/otp"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo  repository.UserRepository
	adminRepo repository.AdminRepository

	catalog       *service.Catalog
	authService   *service.AuthService
	notifications *service.NotificationService
	websites      *service.WebsiteVerification

	notifier *notifications.Notifier
	hub      *notifications.Hub
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests pass an in-memory database and a miniredis client; redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("marketplace_api"),
		userRepo:       repository.NewUserRepository(db),
		adminRepo:      repository.NewAdminRepository(db),
	}

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
	}

	var mailer email.Sender
	if cfg.SMTPConfigured() {
		mailer = email.NewService(cfg)
	}

	var publisher notifications.Publisher
	if s.notifier != nil {
		publisher = s.notifier
	}
	dispatcher := notifications.NewDispatcher(
		repository.NewNotificationRepository(db),
		s.userRepo,
		mailer,
		publisher,
		cfg.FrontendURL,
	)

	var gate *captcha.Gate
	if cfg.RecaptchaSecret != "" {
		gate = captcha.NewGate(captcha.NewClient(cfg.RecaptchaSecret, ""), cfg.RecaptchaMinScore)
	}

	s.websites = service.NewWebsiteVerification(
		otp.NewStore(redisClient, "website", time.Duration(cfg.OTPTTLMinutes)*time.Minute, cfg.OTPMaxAttempts),
		mailer,
	)
	s.catalog = service.NewCatalog(service.CatalogDeps{
		DB:           db,
		Dispatcher:   dispatcher,
		Captcha:      gate,
		Websites:     s.websites,
		ListCacheTTL: time.Duration(cfg.PublicListCacheSeconds) * time.Second,
	})
	s.authService = service.NewAuthService(s.userRepo, s.adminRepo, redisClient, cfg.JWTSecret)
	s.notifications = service.NewNotificationService(repository.NewNotificationRepository(db))

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep their headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Marketplace Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)
	api.Post("/admin/auth/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "admin_login"), s.AdminLogin)

	// Notifications
	notif := api.Group("/notifications", s.AuthRequired())
	notif.Get("/", s.GetNotifications)
	notif.Post("/read-all", s.MarkAllNotificationsRead)
	notif.Post("/:id/read", s.MarkNotificationRead)

	// Website contact verification
	api.Post("/websites/otp", middleware.RateLimit(s.redis, 5, 10*time.Minute, "website_otp"), s.SendWebsiteOTP)

	// Realtime
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())

	// Moderated submissions
	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	registerEntity(s, api, admin, s.catalog.Careers)
	registerEntity(s, api, admin, s.catalog.Publications)
	registerEntity(s, api, admin, s.catalog.Reporters)
	registerEntity(s, api, admin, s.catalog.Themes)
	registerEntity(s, api, admin, s.catalog.Powerlists)
	registerEntity(s, api, admin, s.catalog.Websites)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis backs OTP and rate limiting but the API still serves without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"schema":   database.GetSchemaStatus(s.config),
		},
		"time": time.Now(),
	})
}

// NewApp builds a Fiber app with the error handler, middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Marketplace API",
		BodyLimit: 2 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				slog.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

	slog.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", "error", rerr)
		}
	}

	slog.Info("server shutdown complete")
	return nil
}

// actorFrom reads the identity resolved by the auth middleware.
func actorFrom(c *fiber.Ctx) moderation.Actor {
	var a moderation.Actor
	a.UserID, _ = c.Locals("userID").(uint)
	a.AdminID, _ = c.Locals("adminID").(uint)
	a.AdminRole, _ = c.Locals("adminRole").(string)
	return a
}
