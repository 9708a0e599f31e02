package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// SessionHandler exposes tracking sessions over plain HTTP, one request per frame
type SessionHandler struct {
	service       RecognitionService
	logger        *slog.Logger
	maxImageBytes int64
}

func NewSessionHandler(service RecognitionService, logger *slog.Logger, maxImageBytes int64) *SessionHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &SessionHandler{
		service:       service,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// Create POST /v1/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	snapshot, err := h.service.CreateSession(c.Context())
	if err != nil {
		return err
	}

	c.Location("/v1/sessions/" + snapshot.ID)
	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

// Frame POST /v1/sessions/:session_id/frames - frames of one session must be sent in order
func (h *SessionHandler) Frame(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if sessionID == "" {
		return domain.ErrValidationFailed.WithMessage("session_id is required")
	}

	frame, err := singleImage(c, h.maxImageBytes)
	if err != nil {
		return err
	}

	result, err := h.service.RecognizeStream(c.Context(), sessionID, frame)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Get GET /v1/sessions/:session_id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	snapshot, err := h.service.SessionInfo(c.Context(), c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

// Delete DELETE /v1/sessions/:session_id
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.EndSession(c.Context(), c.Params("session_id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
