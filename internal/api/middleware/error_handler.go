package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// StatusClientClosedRequest is reported when the client went away mid request (nginx 499)
const StatusClientClosedRequest = 499

// fiberErrorCodes names the fiber errors routing and body parsing can produce
var fiberErrorCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUpgradeRequired:       "UPGRADE_REQUIRED",
}

// ErrorHandler renders every error as {"error":{"code","message"}}. Only server side
// failures are logged here; the Logger middleware records the rest.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("path", c.Path()),
					slog.String("request_id", requestID(c)),
				)
			}
			return writeError(c, appErr.StatusCode, appErr.Code, appErr.Message)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code, ok := fiberErrorCodes[fiberErr.Code]
			if !ok {
				code = "HTTP_ERROR"
			}
			return writeError(c, fiberErr.Code, code, fiberErr.Message)
		}

		switch {
		case errors.Is(err, context.Canceled):
			return writeError(c, StatusClientClosedRequest, "REQUEST_CANCELED", "Request canceled by the client")
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("request timed out",
				slog.Any("error", err),
				slog.String("path", c.Path()),
				slog.String("request_id", requestID(c)),
			)
			return writeError(c, fiber.StatusGatewayTimeout, "TIMEOUT", "The face service did not answer in time")
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID(c)),
		)
		return writeError(c, domain.ErrInternal.StatusCode, domain.ErrInternal.Code, domain.ErrInternal.Message)
	}
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
