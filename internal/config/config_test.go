package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
		check   func(t *testing.T, c *Config)
	}{
		{
			name:    "uses defaults when nothing is set",
			envVars: map[string]string{},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 3000, c.Port)
				assert.Equal(t, "development", c.Environment)
				assert.Equal(t, StoreFile, c.Store)
				assert.Equal(t, "data/gallery.csv", c.GalleryPath)
				assert.Equal(t, ProviderDeepFace, c.ProviderType)
				assert.Equal(t, 128, c.DescriptorDim)
				assert.Equal(t, 0.4, c.MatchThreshold)
				assert.Equal(t, 10, c.ReclassifyInterval)
				assert.Equal(t, 5*time.Minute, c.SessionIdleTimeout)
				assert.Empty(t, c.APIKey)
			},
		},
		{
			name: "loads explicit values",
			envVars: map[string]string{
				"PORT":                 "8080",
				"ENV":                  "production",
				"STORE":                "postgres",
				"DATABASE_URL":         "postgres://localhost/vigia",
				"PROVIDER_TYPE":        "rekognition",
				"MATCH_THRESHOLD":      "0.55",
				"RECLASSIFY_INTERVAL":  "25",
				"SESSION_IDLE_TIMEOUT": "90s",
				"API_KEY":              "s3cret",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 8080, c.Port)
				assert.True(t, c.IsProduction())
				assert.Equal(t, StorePostgres, c.Store)
				assert.Equal(t, "postgres://localhost/vigia", c.DatabaseURL)
				assert.Equal(t, ProviderRekognition, c.ProviderType)
				assert.Equal(t, 0.55, c.MatchThreshold)
				assert.Equal(t, 25, c.ReclassifyInterval)
				assert.Equal(t, 90*time.Second, c.SessionIdleTimeout)
				assert.Equal(t, "s3cret", c.APIKey)
			},
		},
		{
			name:    "postgres store needs DATABASE_URL",
			envVars: map[string]string{"STORE": "postgres"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown store",
			envVars: map[string]string{"STORE": "redis"},
			wantErr: "STORE must be",
		},
		{
			name:    "unknown provider",
			envVars: map[string]string{"PROVIDER_TYPE": "opencv"},
			wantErr: "PROVIDER_TYPE \"opencv\" is not supported",
		},
		{
			name:    "non-positive threshold",
			envVars: map[string]string{"MATCH_THRESHOLD": "0"},
			wantErr: "MATCH_THRESHOLD must be positive",
		},
		{
			name: "webhook events list",
			envVars: map[string]string{
				"WEBHOOK_URL":    "https://hooks.example.com/vigia",
				"WEBHOOK_EVENTS": "identity.enrolled,session.closed",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "https://hooks.example.com/vigia", c.WebhookURL)
				assert.Equal(t, []string{"identity.enrolled", "session.closed"}, c.WebhookEvents)
				assert.Equal(t, 5, c.WebhookMaxAttempts)
			},
		},
		{
			name:    "webhook needs attempts",
			envVars: map[string]string{"WEBHOOK_URL": "https://hooks.example.com", "WEBHOOK_MAX_ATTEMPTS": "0"},
			wantErr: "WEBHOOK_MAX_ATTEMPTS must be positive",
		},
		{
			name:    "malformed number",
			envVars: map[string]string{"RECLASSIFY_INTERVAL": "ten"},
			wantErr: "load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			assert.Equal(t, tt.want, c.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			assert.Equal(t, tt.want, c.IsProduction())
		})
	}
}
