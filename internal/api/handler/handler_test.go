package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

// MockEnrollmentService is a mock implementation of EnrollmentService
type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) Register(ctx context.Context, label string, images [][]byte) (*domain.Identity, error) {
	args := m.Called(ctx, label, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockEnrollmentService) Enroll(ctx context.Context, label string, images [][]byte) (*domain.Identity, error) {
	args := m.Called(ctx, label, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockEnrollmentService) Get(ctx context.Context, label string) (*domain.Identity, error) {
	args := m.Called(ctx, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockEnrollmentService) List(ctx context.Context) ([]domain.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockEnrollmentService) Delete(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockEnrollmentService) Export(w io.Writer) error {
	args := m.Called(w)
	return args.Error(0)
}

// MockRecognitionService is a mock implementation of RecognitionService
type MockRecognitionService struct {
	mock.Mock
}

func (m *MockRecognitionService) RecognizeOnce(ctx context.Context, image []byte) (domain.MatchResult, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(domain.MatchResult), args.Error(1)
}

func (m *MockRecognitionService) CreateSession(ctx context.Context) (tracker.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(tracker.Snapshot), args.Error(1)
}

func (m *MockRecognitionService) RecognizeStream(ctx context.Context, sessionID string, frame []byte) (*domain.FrameResult, error) {
	args := m.Called(ctx, sessionID, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FrameResult), args.Error(1)
}

func (m *MockRecognitionService) SessionInfo(ctx context.Context, sessionID string) (tracker.Snapshot, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(tracker.Snapshot), args.Error(1)
}

func (m *MockRecognitionService) EndSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp mounts handlers behind the real error handler
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})
}

// pngImage encodes a small valid PNG
func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

type formFile struct {
	field   string
	content []byte
}

// multipartBody builds a form with optional text fields and image parts
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for i, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="img`+string(rune('0'+i))+`.png"`)
		h.Set("Content-Type", "image/png")

		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(f.content)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, r io.Reader) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}
