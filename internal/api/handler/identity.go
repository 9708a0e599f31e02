package handler

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// EnrollmentService is what the identity routes need from the gallery
type EnrollmentService interface {
	Register(ctx context.Context, label string, images [][]byte) (*domain.Identity, error)
	Enroll(ctx context.Context, label string, images [][]byte) (*domain.Identity, error)
	Get(ctx context.Context, label string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	Delete(ctx context.Context, label string) error
	Export(w io.Writer) error
}

// IdentityHandler handles gallery enrollment requests
type IdentityHandler struct {
	service       EnrollmentService
	logger        *slog.Logger
	maxImageBytes int64
}

// NewIdentityHandler creates a new IdentityHandler instance
func NewIdentityHandler(service EnrollmentService, logger *slog.Logger, maxImageBytes int64) *IdentityHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &IdentityHandler{
		service:       service,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// IdentityResponse is an enrolled identity without its descriptor
type IdentityResponse struct {
	Label       string    `json:"label"`
	Dimension   int       `json:"dimension"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListIdentitiesResponse response for list endpoint
type ListIdentitiesResponse struct {
	Identities []IdentityResponse `json:"identities"`
	Total      int                `json:"total"`
}

func toIdentityResponse(id domain.Identity) IdentityResponse {
	return IdentityResponse{
		Label:       id.Label,
		Dimension:   id.Dimension(),
		SourceCount: id.SourceCount,
		CreatedAt:   id.CreatedAt,
		UpdatedAt:   id.UpdatedAt,
	}
}

// Register POST /v1/identities - enroll a new label, 409 if it already exists
func (h *IdentityHandler) Register(c *fiber.Ctx) error {
	label := c.FormValue("label")
	if label == "" {
		return domain.ErrValidationFailed.WithMessage("Field \"label\" is required")
	}

	images, err := formImages(c, h.maxImageBytes)
	if err != nil {
		return err
	}

	identity, err := h.service.Register(c.Context(), label, images)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toIdentityResponse(*identity))
}

// Enroll PUT /v1/identities/:label - create or replace the label's reference descriptor
func (h *IdentityHandler) Enroll(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	images, err := formImages(c, h.maxImageBytes)
	if err != nil {
		return err
	}

	identity, err := h.service.Enroll(c.Context(), label, images)
	if err != nil {
		return err
	}

	return c.JSON(toIdentityResponse(*identity))
}

// Get GET /v1/identities/:label
func (h *IdentityHandler) Get(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	identity, err := h.service.Get(c.Context(), label)
	if err != nil {
		return err
	}

	return c.JSON(toIdentityResponse(*identity))
}

// List GET /v1/identities
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.service.List(c.Context())
	if err != nil {
		return err
	}

	resp := ListIdentitiesResponse{
		Identities: make([]IdentityResponse, 0, len(identities)),
		Total:      len(identities),
	}
	for _, id := range identities {
		resp.Identities = append(resp.Identities, toIdentityResponse(id))
	}

	return c.JSON(resp)
}

// Delete DELETE /v1/identities/:label
func (h *IdentityHandler) Delete(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), label); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Export GET /v1/identities/export - gallery in the text format the CLI reads
func (h *IdentityHandler) Export(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="gallery.csv"`)

	if err := h.service.Export(c.Response().BodyWriter()); err != nil {
		h.logger.Error("gallery export failed", slog.Any("error", err))
		return domain.ErrInternal.WithError(err)
	}
	return nil
}

// labelParam decodes the :label route segment (labels may contain spaces or accents)
func labelParam(c *fiber.Ctx) (string, error) {
	label, err := url.PathUnescape(c.Params("label"))
	if err != nil || label == "" {
		return "", domain.ErrInvalidLabel
	}
	return label, nil
}
