package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"

	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Storage
	Store       string `envconfig:"STORE" default:"file"`
	GalleryPath string `envconfig:"GALLERY_PATH" default:"data/gallery.csv"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	ProviderType     string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"dlib"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Recognition
	DescriptorDim      int     `envconfig:"DESCRIPTOR_DIM" default:"128"`
	MatchThreshold     float64 `envconfig:"MATCH_THRESHOLD" default:"0.4"`
	ReclassifyInterval int     `envconfig:"RECLASSIFY_INTERVAL" default:"10"`

	// Sessions
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"5m"`
	MaxSessions        int           `envconfig:"MAX_SESSIONS" default:"256"`

	// Limits
	MaxEnrollImages int `envconfig:"MAX_ENROLL_IMAGES" default:"10"`
	MaxImageBytes   int `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`

	// Security
	APIKey          string        `envconfig:"API_KEY"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"600"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Webhook (disabled when WEBHOOK_URL is empty)
	WebhookURL         string   `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string   `envconfig:"WEBHOOK_SECRET"`
	WebhookEvents      []string `envconfig:"WEBHOOK_EVENTS"`
	WebhookMaxAttempts int      `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations envconfig tags cannot express
func (c *Config) Validate() error {
	var problems []string

	switch c.Store {
	case StoreFile:
		if c.GalleryPath == "" {
			problems = append(problems, "GALLERY_PATH is required when STORE=file")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when STORE=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE must be %q or %q, got %q", StoreFile, StorePostgres, c.Store))
	}

	switch c.ProviderType {
	case ProviderDeepFace, ProviderRekognition, ProviderMock:
	default:
		problems = append(problems, fmt.Sprintf("PROVIDER_TYPE %q is not supported", c.ProviderType))
	}

	if c.DescriptorDim <= 0 {
		problems = append(problems, "DESCRIPTOR_DIM must be positive")
	}
	if c.MatchThreshold <= 0 {
		problems = append(problems, "MATCH_THRESHOLD must be positive")
	}
	if c.ReclassifyInterval <= 0 {
		problems = append(problems, "RECLASSIFY_INTERVAL must be positive")
	}
	if c.MaxEnrollImages <= 0 {
		problems = append(problems, "MAX_ENROLL_IMAGES must be positive")
	}

	if c.WebhookURL != "" && c.WebhookMaxAttempts <= 0 {
		problems = append(problems, "WEBHOOK_MAX_ATTEMPTS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
