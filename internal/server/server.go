package server

import (
	"context"

	"ai-docview/internal/bootstrap"
	"ai-docview/internal/config"
	"ai-docview/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Server is the HTTP face of the mock document service.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.MockContainer
}

func New(cfg *config.Config, container *bootstrap.MockContainer) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.MockAPI.CorsOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Mock document service listening", map[string]interface{}{
		"addr": "http://localhost:" + s.cfg.MockAPI.Port,
	})
	return s.app.Listen(":" + s.cfg.MockAPI.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.MockContainer) {
	c.HealthHandler.RegisterRoutes(app)

	api := app.Group("/api/v1")
	c.AuthController.RegisterRoutes(api)
	c.LibraryController.RegisterRoutes(api, serverutils.JwtMiddleware(cfg.MockAPI.JWTSecret, c.Clock.Now))
}
