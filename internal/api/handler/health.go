package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by /health
var Version = "0.1.0"

// ReadinessChecker reports whether the identity store can be reached
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

type HealthHandler struct {
	checker ReadinessChecker
	logger  *slog.Logger
}

func NewHealthHandler(checker ReadinessChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		if err := h.checker.Ready(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.Any("error", err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
