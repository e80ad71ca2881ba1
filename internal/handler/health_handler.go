package handler

import (
	"context"
	"time"

	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the health endpoint reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthStatus struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type HealthHandler struct {
	deps   map[string]Pinger
	logger logger.ILogger
}

func NewHealthHandler(deps map[string]Pinger, log logger.ILogger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: log}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.Health)
}

// Health answers 200 when every dependency pings, 503 otherwise.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := HealthStatus{Status: "ok"}
	if len(h.deps) > 0 {
		status.Dependencies = make(map[string]string, len(h.deps))
	}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("Health", "Dependency unhealthy", map[string]interface{}{"dependency": name, "error": err.Error()})
			status.Status = "degraded"
			status.Dependencies[name] = err.Error()
			continue
		}
		status.Dependencies[name] = "ok"
	}

	if status.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(serverutils.BaseResponse[HealthStatus]{
			Success: false,
			Code:    fiber.StatusServiceUnavailable,
			Message: "Service degraded",
			Data:    status,
		})
	}
	return c.JSON(serverutils.SuccessResponse("Service healthy", status))
}
