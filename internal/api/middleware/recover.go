package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// Recover turns a handler panic into a 500 with the usual error body
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("panic recovered",
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", requestID(c)),
				slog.String("stack", string(debug.Stack())),
			)
			err = writeError(c, domain.ErrInternal.StatusCode, domain.ErrInternal.Code, domain.ErrInternal.Message)
		}()
		return c.Next()
	}
}
