package service

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// IdentityStore persists enrolled identities
type IdentityStore interface {
	Create(ctx context.Context, identity *domain.Identity) error
	Save(ctx context.Context, identity *domain.Identity) error
	Get(ctx context.Context, label string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	Delete(ctx context.Context, label string) error
	Ping(ctx context.Context) error
}

// EventPublisher receives notifications for websocket subscribers and webhooks.
// sessionID is empty for gallery-wide events.
type EventPublisher interface {
	Publish(sessionID string, eventType domain.EventType, data interface{})
}

// Publishers fans every event out to each publisher in order
type Publishers []EventPublisher

func (p Publishers) Publish(sessionID string, eventType domain.EventType, data interface{}) {
	for _, pub := range p {
		pub.Publish(sessionID, eventType, data)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, domain.EventType, interface{}) {}
