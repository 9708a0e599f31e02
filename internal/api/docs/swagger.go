package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// IdentityResponse represents an enrolled identity
type IdentityResponse struct {
	Label       string `json:"label" example:"alice"`
	Dimension   int    `json:"dimension" example:"128"`
	SourceCount int    `json:"source_count" example:"3"`
	CreatedAt   string `json:"created_at" example:"2026-01-01T00:00:00Z"`
	UpdatedAt   string `json:"updated_at" example:"2026-01-01T00:00:00Z"`
}

// ListIdentitiesResponse represents the gallery listing
type ListIdentitiesResponse struct {
	Identities []IdentityResponse `json:"identities"`
	Total      int                `json:"total" example:"1"`
}

// RecognizeResponse represents a single-image recognition result
type RecognizeResponse struct {
	Label     string  `json:"label" example:"alice"`
	Matched   bool    `json:"matched" example:"true"`
	Distance  float64 `json:"distance" example:"0.31"`
	LatencyMs int64   `json:"latency_ms" example:"45"`
}

// BoundingBox represents a face rectangle in pixels
type BoundingBox struct {
	Left   float64 `json:"left" example:"120"`
	Top    float64 `json:"top" example:"80"`
	Right  float64 `json:"right" example:"220"`
	Bottom float64 `json:"bottom" example:"200"`
}

// Point represents a box centroid
type Point struct {
	X float64 `json:"x" example:"170"`
	Y float64 `json:"y" example:"140"`
}

// TrackedFace represents one labelled face in a frame
type TrackedFace struct {
	Label    string      `json:"label" example:"alice"`
	Matched  bool        `json:"matched" example:"true"`
	Distance float64     `json:"distance" example:"0.31"`
	Box      BoundingBox `json:"box"`
	Centroid Point       `json:"centroid"`
}

// FrameResponse represents the tracker output for one frame
type FrameResponse struct {
	SessionID         string        `json:"session_id" example:"0b6c7d6e-5f43-4a43-9d1e-2a0a3c9f2e11"`
	Frame             int64         `json:"frame" example:"12"`
	Scene             string        `json:"scene" example:"stable"`
	Faces             []TrackedFace `json:"faces"`
	ReclassifyCounter int           `json:"reclassify_counter" example:"3"`
	LabelsChanged     bool          `json:"labels_changed" example:"false"`
	ProcessedAt       string        `json:"processed_at" example:"2026-01-01T00:00:00Z"`
}

// SessionResponse represents a tracking session
type SessionResponse struct {
	ID                string        `json:"id" example:"0b6c7d6e-5f43-4a43-9d1e-2a0a3c9f2e11"`
	Frames            int64         `json:"frames" example:"12"`
	ReclassifyCounter int           `json:"reclassify_counter" example:"3"`
	GallerySize       int           `json:"gallery_size" example:"40"`
	Faces             []TrackedFace `json:"faces"`
	CreatedAt         string        `json:"created_at" example:"2026-01-01T00:00:00Z"`
}

// HealthResponse represents liveness and readiness probes
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errUpstream     = response.New(ErrorResponse{Code: "DESCRIPTOR_SOURCE_FAILURE", Message: "Face detector or descriptor extractor failed"}, "502", "Bad Gateway")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	apiKeyAuth      = []map[string][]string{{"ApiKeyAuth": {}}}
)

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Vigia Face Identity API",
		Version:     "v1.0.0",
		Description: "Face identity matching against an enrolled gallery and frame-by-frame face tracking",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Identities

		// POST /v1/identities - Register identity
		endpoint.New(
			endpoint.POST,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Enroll a new identity"),
			endpoint.WithDescription("Builds the reference descriptor as the mean of the descriptors found in the uploaded images (form field label plus images, repeatable). Fails if the label is already enrolled."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "201", "Identity enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "IDENTITY_ALREADY_EXISTS", Message: "An identity with this label is already enrolled"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "NO_USABLE_DESCRIPTOR", Message: "No face could be described in any of the enrollment images"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errUpstream,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// PUT /v1/identities/{label} - Enroll or replace
		endpoint.New(
			endpoint.PUT,
			"/identities/{label}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Enroll or replace an identity"),
			endpoint.WithDescription("Same as POST /identities but replaces the reference descriptor when the label exists"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, URL encoded")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "200", "Identity enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "DIMENSION_MISMATCH", Message: "Descriptor length does not match the gallery"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errUpstream,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/identities - List
		endpoint.New(
			endpoint.GET,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("List enrolled identities"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListIdentitiesResponse{}, "200", "Gallery listing"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/identities/export - Export gallery
		endpoint.New(
			endpoint.GET,
			"/identities/export",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Export the gallery"),
			endpoint.WithDescription("One row per identity: label followed by the descriptor values. The CLI reads this format."),
			endpoint.WithProduce([]mime.MIME{mime.MIME("text/csv")}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "200", "Gallery file"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/identities/{label}
		endpoint.New(
			endpoint.GET,
			"/identities/{label}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Get an enrolled identity"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, URL encoded")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "200", "Identity"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// DELETE /v1/identities/{label}
		endpoint.New(
			endpoint.DELETE,
			"/identities/{label}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Remove an identity from the gallery"),
			endpoint.WithDescription("Running sessions keep the gallery they started with"),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, URL encoded")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Identity removed"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// Recognition

		// POST /v1/recognize
		endpoint.New(
			endpoint.POST,
			"/recognize",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Recognize the single face in an image"),
			endpoint.WithDescription("Accepts a multipart field image or a raw image body. The image must contain exactly one face."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data"), mime.MIME("image/jpeg"), mime.MIME("image/png")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeResponse{}, "200", "Recognition result, label unknown when no identity is close enough"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "DETECTION_COUNT", Message: "Exactly one face is required in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errUpstream,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// Sessions

		// POST /v1/sessions
		endpoint.New(
			endpoint.POST,
			"/sessions",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Start a tracking session"),
			endpoint.WithDescription("The session pins the gallery as it is now. Idle sessions are evicted."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "201", "Session created"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "SESSION_LIMIT_REACHED", Message: "Too many active tracking sessions, try again later"}, "429", "Too Many Requests"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// POST /v1/sessions/{session_id}/frames
		endpoint.New(
			endpoint.POST,
			"/sessions/{session_id}/frames",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Process the next frame of a session"),
			endpoint.WithDescription("Frames must be sent in order. Unknown session ids start a new session. For continuous streams use the WebSocket at /v1/sessions/{session_id}/stream."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("image/jpeg"), mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Path, parameter.WithDescription("Session id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameResponse{}, "200", "Frame processed"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "DIMENSION_MISMATCH", Message: "Descriptor length does not match the gallery"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "SESSION_LIMIT_REACHED", Message: "Too many active tracking sessions, try again later"}, "429", "Too Many Requests"),
				errUpstream,
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/sessions/{session_id}
		endpoint.New(
			endpoint.GET,
			"/sessions/{session_id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Get session state"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Path, parameter.WithDescription("Session id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "200", "Session state"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Tracking session not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// DELETE /v1/sessions/{session_id}
		endpoint.New(
			endpoint.DELETE,
			"/sessions/{session_id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("End a tracking session"),
			endpoint.WithParams(
				parameter.StrParam("session_id", parameter.Path, parameter.WithDescription("Session id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session ended"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Tracking session not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
