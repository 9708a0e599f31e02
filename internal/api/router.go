package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

type Dependencies struct {
	Enrollment      *service.EnrollmentService
	Recognition     *service.RecognitionService
	Hub             *ws.Hub
	APIKey          string
	RateLimit       middleware.RateLimiterConfig
	MaxImageBytes   int64
	MaxEnrollImages int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	bodyLimit := 4 * 1024 * 1024
	if deps != nil && deps.MaxImageBytes > 0 {
		images := deps.MaxEnrollImages
		if images <= 0 {
			images = service.DefaultMaxEnrollImages
		}
		// enrollment sends several images in one form, plus room for the multipart framing
		bodyLimit = int(deps.MaxImageBytes)*images + 64*1024
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vigia API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger, "/health", "/ready"))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var checker handler.ReadinessChecker
	if r.deps != nil && r.deps.Enrollment != nil {
		checker = r.deps.Enrollment
	}
	healthHandler := handler.NewHealthHandler(checker, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Only configure authenticated routes if dependencies were provided
	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")
	v1.Use(middleware.Auth(r.deps.APIKey))

	// Rate limiting per API key (or IP when auth is off) - after auth so the key is known
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	identityHandler := handler.NewIdentityHandler(r.deps.Enrollment, r.logger, r.deps.MaxImageBytes)
	recognizeHandler := handler.NewRecognizeHandler(r.deps.Recognition, r.logger, r.deps.MaxImageBytes)
	sessionHandler := handler.NewSessionHandler(r.deps.Recognition, r.logger, r.deps.MaxImageBytes)

	// Identity routes (export must be registered before :label)
	v1.Post("/identities", identityHandler.Register)
	v1.Get("/identities", identityHandler.List)
	v1.Get("/identities/export", identityHandler.Export)
	v1.Get("/identities/:label", identityHandler.Get)
	v1.Put("/identities/:label", identityHandler.Enroll)
	v1.Delete("/identities/:label", identityHandler.Delete)

	// Recognition
	v1.Post("/recognize", recognizeHandler.Recognize)

	// Tracking sessions
	v1.Post("/sessions", sessionHandler.Create)
	v1.Get("/sessions/:session_id", sessionHandler.Get)
	v1.Delete("/sessions/:session_id", sessionHandler.Delete)
	v1.Post("/sessions/:session_id/frames", sessionHandler.Frame)

	// WebSocket endpoints
	v1.Get("/sessions/:session_id/stream", ws.UpgradeMiddleware(), ws.StreamHandler(r.deps.Recognition, r.logger))
	if r.deps.Hub != nil {
		v1.Get("/events", ws.UpgradeMiddleware(), ws.EventsHandler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
