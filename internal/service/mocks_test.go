package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) Create(ctx context.Context, identity *domain.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockIdentityStore) Save(ctx context.Context, identity *domain.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockIdentityStore) Get(ctx context.Context, label string) (*domain.Identity, error) {
	args := m.Called(ctx, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) List(ctx context.Context) ([]domain.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) Delete(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockIdentityStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockSource struct {
	mock.Mock
}

func (m *MockSource) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

func (m *MockSource) ComputeDescriptor(ctx context.Context, image []byte, face provider.DetectedFace) (domain.Descriptor, error) {
	args := m.Called(ctx, image, face)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Descriptor), args.Error(1)
}

type publishedEvent struct {
	SessionID string
	Type      domain.EventType
	Data      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(sessionID string, eventType domain.EventType, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{SessionID: sessionID, Type: eventType, Data: data})
}

func (p *recordingPublisher) Types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var oneFace = provider.DetectedFace{
	BoundingBox: domain.BoundingBox{Left: 10, Top: 10, Right: 110, Bottom: 110},
	Confidence:  0.99,
}
