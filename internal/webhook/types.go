package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

type Config struct {
	URL    string
	Secret string
	// Events restricts delivery to these event types; empty delivers everything
	Events      []string
	MaxAttempts int
	QueueSize   int
	Timeout     time.Duration
	// Backoff is the first retry delay, doubled on every further attempt
	Backoff time.Duration
}

func DefaultConfig(url, secret string) Config {
	return Config{
		URL:         url,
		Secret:      secret,
		MaxAttempts: 5,
		QueueSize:   256,
		Timeout:     10 * time.Second,
		Backoff:     time.Second,
	}
}

// EventPayload is the JSON body POSTed to the webhook URL
type EventPayload struct {
	ID        uuid.UUID        `json:"id"`
	Type      domain.EventType `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Data      interface{}      `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

type job struct {
	id          uuid.UUID
	eventType   domain.EventType
	payload     []byte
	attempts    int
	nextRetryAt time.Time
}
