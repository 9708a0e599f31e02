package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(apiKey string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(discardLogger()),
	})
	app.Use(Auth(apiKey))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetClientID(c))
	})
	return app
}

func TestAuth(t *testing.T) {
	validAPIKey := "test-api-key-12345"

	tests := []struct {
		name           string
		url            string
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "valid bearer token",
			url:            "/test",
			headers:        map[string]string{"Authorization": "Bearer " + validAPIKey},
			expectedStatus: 200,
		},
		{
			name:           "lowercase bearer scheme",
			url:            "/test",
			headers:        map[string]string{"Authorization": "bearer " + validAPIKey},
			expectedStatus: 200,
		},
		{
			name:           "valid X-API-Key header",
			url:            "/test",
			headers:        map[string]string{HeaderAPIKey: validAPIKey},
			expectedStatus: 200,
		},
		{
			name:           "query parameter for websocket clients",
			url:            "/test?api_key=" + validAPIKey,
			expectedStatus: 200,
		},
		{
			name:           "missing credentials",
			url:            "/test",
			expectedStatus: 401,
		},
		{
			name:           "wrong key",
			url:            "/test",
			headers:        map[string]string{"Authorization": "Bearer nope"},
			expectedStatus: 401,
		},
		{
			name:           "basic scheme is rejected",
			url:            "/test",
			headers:        map[string]string{"Authorization": "Basic " + validAPIKey},
			expectedStatus: 401,
		},
		{
			name:           "prefix of the key is rejected",
			url:            "/test",
			headers:        map[string]string{HeaderAPIKey: validAPIKey[:5]},
			expectedStatus: 401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(validAPIKey)

			req := httptest.NewRequest("GET", tt.url, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			if tt.expectedStatus == 200 {
				assert.Equal(t, "key:"+hashAPIKey(validAPIKey)[:12], string(body))
				return
			}

			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, "UNAUTHORIZED", payload.Error.Code)
		})
	}
}

func TestAuth_DisabledWithoutKey(t *testing.T) {
	app := newAuthApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, string(body))
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendString(extractBearerToken(c))
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
