package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const frameTimeout = 30 * time.Second

// FrameStepper runs one frame through a tracking session
type FrameStepper interface {
	RecognizeStream(ctx context.Context, sessionID string, frame []byte) (*domain.FrameResult, error)
}

// EventsHandler subscribes the connection to hub events. ?session_id= narrows the
// subscription to one session.
func EventsHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := &Client{
			hub:   hub,
			conn:  c,
			topic: c.Query("session_id"),
			send:  make(chan []byte, 256),
		}

		hub.register <- client

		go client.WritePump()
		client.ReadPump()
	})
}

type errorMessage struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StreamHandler treats each binary message as a frame of the session in the route and
// answers with the FrameResult as a text message. Frames are processed in arrival order.
func StreamHandler(stepper FrameStepper, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("session_id")
		defer func() { _ = c.Close() }()

		for {
			messageType, frame, err := c.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
			result, err := stepper.RecognizeStream(ctx, sessionID, frame)
			cancel()

			var reply []byte
			if err != nil {
				reply = encodeError(err)
			} else {
				reply, err = json.Marshal(result)
				if err != nil {
					logger.Error("failed to encode frame result", slog.String("session_id", sessionID), slog.Any("error", err))
					return
				}
			}

			if err := c.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}

			if isSessionFatal(err) {
				logger.Info("closing stream", slog.String("session_id", sessionID), slog.Any("error", err))
				_ = c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"))
				return
			}
		}
	})
}

func encodeError(err error) []byte {
	body := errorBody{Code: domain.ErrInternal.Code, Message: domain.ErrInternal.Message}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		body = errorBody{Code: appErr.Code, Message: appErr.Message}
	}
	out, _ := json.Marshal(errorMessage{Error: body})
	return out
}

func isSessionFatal(err error) bool {
	return errors.Is(err, domain.ErrDimensionMismatch) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrSessionLimitReached)
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
