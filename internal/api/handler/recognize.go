package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

// RecognitionService covers one-shot recognition and tracking sessions
type RecognitionService interface {
	RecognizeOnce(ctx context.Context, image []byte) (domain.MatchResult, error)
	CreateSession(ctx context.Context) (tracker.Snapshot, error)
	RecognizeStream(ctx context.Context, sessionID string, frame []byte) (*domain.FrameResult, error)
	SessionInfo(ctx context.Context, sessionID string) (tracker.Snapshot, error)
	EndSession(ctx context.Context, sessionID string) error
}

// RecognizeHandler answers single-image recognition
type RecognizeHandler struct {
	service       RecognitionService
	logger        *slog.Logger
	maxImageBytes int64
}

func NewRecognizeHandler(service RecognitionService, logger *slog.Logger, maxImageBytes int64) *RecognizeHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &RecognizeHandler{
		service:       service,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// RecognizeResponse response for recognize endpoint
type RecognizeResponse struct {
	Label     string          `json:"label"`
	Matched   bool            `json:"matched"`
	Distance  domain.Distance `json:"distance"`
	LatencyMs int64           `json:"latency_ms"`
}

// Recognize POST /v1/recognize - the image must contain exactly one face
func (h *RecognizeHandler) Recognize(c *fiber.Ctx) error {
	start := time.Now()

	image, err := singleImage(c, h.maxImageBytes)
	if err != nil {
		return err
	}

	result, err := h.service.RecognizeOnce(c.Context(), image)
	if err != nil {
		return err
	}

	return c.JSON(RecognizeResponse{
		Label:     result.Label,
		Matched:   result.Matched,
		Distance:  result.Distance,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}
