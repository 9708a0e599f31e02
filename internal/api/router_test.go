package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/matcher"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vigia/internal/repository"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/session"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

const testDimension = 16

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noisePNG encodes a deterministic noise image, large enough for the mock provider
func noisePNG(t *testing.T, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newTestRouter wires the full stack over store with the deterministic mock provider
func newTestRouter(t *testing.T, store service.IdentityStore, apiKey string) *Router {
	t.Helper()
	logger := testLogger()
	source := mock.New(mock.WithDimension(testDimension))

	snapshots := service.NewSnapshots(nil)
	enrollment := service.NewEnrollmentService(store, source, snapshots, logger).WithDimension(testDimension)
	require.NoError(t, enrollment.Load(t.Context()))

	engine := tracker.NewEngine(source, matcher.New(matcher.WithThreshold(0.4), matcher.WithDimension(testDimension)))
	sessions := session.NewRegistry(engine, session.Config{MaxSessions: 4, IdleTimeout: time.Minute}, logger)
	recognition := service.NewRecognitionService(engine, sessions, snapshots, logger)

	router := NewRouter(logger, &Dependencies{
		Enrollment:  enrollment,
		Recognition: recognition,
		APIKey:      apiKey,
		RateLimit: middleware.RateLimiterConfig{
			Max:         1000,
			Window:      time.Minute,
			PerEndpoint: middleware.EnrollmentRateLimits(),
		},
		MaxImageBytes: 1 << 20,
	})
	router.Setup()
	t.Cleanup(func() {
		_ = router.Shutdown()
	})
	return router
}

func enrollRequest(t *testing.T, label string, images ...[]byte) *http.Request {
	t.Helper()
	return multipartRequest(t, "POST", "/v1/identities", label, images...)
}

func multipartRequest(t *testing.T, method, path, label string, images ...[]byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("label", label))
	for _, img := range images {
		part, err := w.CreateFormFile("images", "face.png")
		require.NoError(t, err)
		_, _ = part.Write(img)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func imageRequest(method, path string, img []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(img))
	req.Header.Set("Content-Type", "image/png")
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() {
		_ = resp.Body.Close()
	}()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRouter_HealthWithoutDependencies(t *testing.T) {
	router := NewRouter(testLogger(), nil)
	router.Setup()

	resp, err := router.App().Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = router.App().Test(httptest.NewRequest("GET", "/v1/identities", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_RequiresAPIKey(t *testing.T) {
	store := repository.NewFileRepository(filepath.Join(t.TempDir(), "gallery.csv"), testDimension)
	router := newTestRouter(t, store, "secret")

	resp, err := router.App().Test(httptest.NewRequest("GET", "/v1/identities", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/identities", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = router.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// probes stay open
	resp, err = router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRouter_EnrollRecognizeTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.csv")
	store := repository.NewFileRepository(path, testDimension)
	router := newTestRouter(t, store, "")
	app := router.App()

	alice := noisePNG(t, 1)
	stranger := noisePNG(t, 2)

	// enroll
	resp, err := app.Test(enrollRequest(t, "alice", alice), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	// duplicate
	resp, err = app.Test(enrollRequest(t, "alice", alice), -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	// recognize the enrolled image
	resp, err = app.Test(imageRequest("POST", "/v1/recognize", alice), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var known struct {
		Label    string   `json:"label"`
		Matched  bool     `json:"matched"`
		Distance *float64 `json:"distance"`
	}
	decode(t, resp, &known)
	assert.Equal(t, "alice", known.Label)
	assert.True(t, known.Matched)
	require.NotNil(t, known.Distance)
	assert.InDelta(t, 0, *known.Distance, 1e-9)

	// a stranger is unknown
	resp, err = app.Test(imageRequest("POST", "/v1/recognize", stranger), -1)
	require.NoError(t, err)
	var unknown struct {
		Label   string `json:"label"`
		Matched bool   `json:"matched"`
	}
	decode(t, resp, &unknown)
	assert.Equal(t, "unknown", unknown.Label)
	assert.False(t, unknown.Matched)

	// tracking session
	resp, err = app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	var created struct {
		ID          string `json:"id"`
		GallerySize int    `json:"gallery_size"`
	}
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.GallerySize)

	var scenes []string
	for i := 0; i < 3; i++ {
		resp, err = app.Test(imageRequest("POST", "/v1/sessions/"+created.ID+"/frames", alice), -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var frame struct {
			Frame int64  `json:"frame"`
			Scene string `json:"scene"`
			Faces []struct {
				Label string `json:"label"`
			} `json:"faces"`
		}
		decode(t, resp, &frame)
		assert.Equal(t, int64(i+1), frame.Frame)
		require.Len(t, frame.Faces, 1)
		assert.Equal(t, "alice", frame.Faces[0].Label)
		scenes = append(scenes, frame.Scene)
	}
	assert.Equal(t, []string{"changed", "stable", "stable"}, scenes)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+created.ID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/sessions/"+created.ID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+created.ID, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	// export then delete
	resp, err = app.Test(httptest.NewRequest("GET", "/v1/identities/export", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "alice,")

	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/identities/alice", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	resp, err = app.Test(imageRequest("POST", "/v1/recognize", alice), -1)
	require.NoError(t, err)
	decode(t, resp, &unknown)
	assert.Equal(t, "unknown", unknown.Label)

	// the store on disk was updated
	reloaded := repository.NewFileRepository(path, testDimension)
	identities, err := reloaded.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, identities)
}

func TestRouter_ReplaceWithPut(t *testing.T) {
	store := repository.NewFileRepository(filepath.Join(t.TempDir(), "gallery.csv"), testDimension)
	app := newTestRouter(t, store, "").App()

	first := noisePNG(t, 10)
	second := noisePNG(t, 11)

	resp, err := app.Test(enrollRequest(t, "bob", first), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(multipartRequest(t, "PUT", "/v1/identities/bob", "", second), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(imageRequest("POST", "/v1/recognize", second), -1)
	require.NoError(t, err)
	var result struct {
		Label string `json:"label"`
	}
	decode(t, resp, &result)
	assert.Equal(t, "bob", result.Label)

	resp, err = app.Test(imageRequest("POST", "/v1/recognize", first), -1)
	require.NoError(t, err)
	decode(t, resp, &result)
	assert.Equal(t, "unknown", result.Label)
}
