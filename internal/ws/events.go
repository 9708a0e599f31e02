package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// Event is what subscribers receive. Events with a SessionID reach that session's
// subscribers and the global ones; the rest reach global subscribers only.
type Event struct {
	SessionID string           `json:"session_id,omitempty"`
	Type      domain.EventType `json:"type"`
	Data      interface{}      `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}
