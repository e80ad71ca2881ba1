package bootstrap

import (
	"context"

	"ai-docview/internal/config"
	"ai-docview/internal/controller"
	"ai-docview/internal/handler"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/contract"
	"ai-docview/internal/repository/implementation"
	"ai-docview/internal/repository/memory"
	"ai-docview/internal/service"
	pktNats "ai-docview/pkg/nats"
)

// MockContainer wires the stand-in document service.
type MockContainer struct {
	Config *config.Config
	Logger logger.ILogger
	Clock  clock.Clock

	AuthController    controller.IAuthController
	LibraryController controller.ILibraryController
	HealthHandler     *handler.HealthHandler

	// Background Services (Exposed for main.go to run)
	ProcessingService service.IProcessingService

	closers []func()
}

// NewMockContainer builds the mock service over in-memory documents and the
// configured progress store. clk drives timestamps and token expiry.
func NewMockContainer(cfg *config.Config, clk clock.Clock, log logger.ILogger) *MockContainer {
	c := &MockContainer{Config: cfg, Logger: log, Clock: clk}
	deps := map[string]handler.Pinger{}

	var progress contract.ProgressRepository = memory.NewProgressRepository()
	if cfg.MockAPI.ProgressStore == "redis" {
		rdb := newRedisClient(cfg.MockAPI.RedisURL, log)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		progress = implementation.NewRedisProgressRepository(rdb)
		deps["redis"] = handler.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var mirror service.EventMirror
	if cfg.Events.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, pub.Close)
			mirror = pub
			deps["nats"] = pub
		}
	}

	documents := memory.NewDocumentRepository()
	users := memory.NewUserRepository()

	authService := service.NewAuthService(users, cfg.MockAPI.JWTSecret, clk, log)
	libraryService := service.NewLibraryService(documents, progress, mirror, clk, log)

	c.AuthController = controller.NewAuthController(authService)
	c.LibraryController = controller.NewLibraryController(libraryService)
	c.HealthHandler = handler.NewHealthHandler(deps, log)
	c.ProcessingService = service.NewProcessingService(
		documents,
		progress,
		mirror,
		cfg.MockAPI.ProcessingStep,
		cfg.MockAPI.ProcessingTick,
		clk,
		log,
	)
	return c
}

func (c *MockContainer) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
