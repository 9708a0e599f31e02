package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger writes one access log line per request. Requests to quietPaths (health
// probes) are logged at debug level when they succeed.
func Logger(logger *slog.Logger, quietPaths ...string) fiber.Handler {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			// handle here so the logged status is the one the client sees
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		var level slog.Level
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quiet[c.Path()]:
			level = slog.LevelDebug
		default:
			level = slog.LevelInfo
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
			slog.String("request_id", requestID(c)),
		}
		if client := GetClientID(c); client != "" {
			attrs = append(attrs, slog.String("client_id", client))
		}

		logger.LogAttrs(c.Context(), level, "http request", attrs...)
		return nil
	}
}

// requestID reads the id set by the requestid middleware, if installed
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
