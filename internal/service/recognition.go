package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/session"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

// SessionClosed is the payload of session.closed events
type SessionClosed struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

type RecognitionService struct {
	engine    *tracker.Engine
	sessions  *session.Registry
	snapshots *Snapshots
	events    EventPublisher
	logger    *slog.Logger
}

func NewRecognitionService(
	engine *tracker.Engine,
	sessions *session.Registry,
	snapshots *Snapshots,
	logger *slog.Logger,
) *RecognitionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognitionService{
		engine:    engine,
		sessions:  sessions,
		snapshots: snapshots,
		events:    noopPublisher{},
		logger:    logger,
	}
}

func (s *RecognitionService) WithEvents(events EventPublisher) *RecognitionService {
	if events != nil {
		s.events = events
	}
	return s
}

// RecognizeOnce identifies the single face in image against the current gallery
func (s *RecognitionService) RecognizeOnce(ctx context.Context, image []byte) (domain.MatchResult, error) {
	result, err := s.engine.RecognizeOnce(ctx, s.snapshots.Load(), image)
	if err != nil {
		return domain.MatchResult{}, err
	}

	s.logger.Debug("single-shot recognition",
		slog.String("label", result.Label),
		slog.Bool("matched", result.Matched),
	)
	return result, nil
}

// CreateSession starts a session with a fresh id bound to the current gallery
func (s *RecognitionService) CreateSession(ctx context.Context) (tracker.Snapshot, error) {
	sess, err := s.sessions.Create(uuid.NewString(), s.snapshots.Load())
	if err != nil {
		return tracker.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// RecognizeStream steps the session sessionID with frame, creating the session on
// first use. A dimension mismatch ends the session: its gallery snapshot cannot match
// the descriptors the source produces.
func (s *RecognitionService) RecognizeStream(ctx context.Context, sessionID string, frame []byte) (*domain.FrameResult, error) {
	if sessionID == "" {
		return nil, domain.ErrValidationFailed.WithMessage("session id is required")
	}

	sess, _, err := s.sessions.GetOrCreate(sessionID, s.snapshots.Load())
	if err != nil {
		return nil, err
	}

	result, err := sess.Step(ctx, frame)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			s.closeSession(sessionID, "dimension_mismatch")
		}
		return nil, err
	}

	if result.LabelsChanged {
		s.events.Publish(sessionID, domain.EventLabelsChanged, result)
	}
	return result, nil
}

func (s *RecognitionService) SessionInfo(ctx context.Context, sessionID string) (tracker.Snapshot, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return tracker.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *RecognitionService) EndSession(ctx context.Context, sessionID string) error {
	if !s.closeSession(sessionID, "ended") {
		return domain.ErrSessionNotFound
	}
	return nil
}

// SessionEvicted reports a session removed by the idle sweeper
func (s *RecognitionService) SessionEvicted(sessionID string) {
	s.events.Publish(sessionID, domain.EventSessionClosed, SessionClosed{SessionID: sessionID, Reason: "idle"})
}

func (s *RecognitionService) closeSession(sessionID, reason string) bool {
	if !s.sessions.Remove(sessionID) {
		return false
	}
	s.logger.Info("session closed", slog.String("session_id", sessionID), slog.String("reason", reason))
	s.events.Publish(sessionID, domain.EventSessionClosed, SessionClosed{SessionID: sessionID, Reason: reason})
	return true
}

func (s *RecognitionService) ActiveSessions() int {
	return s.sessions.Len()
}
