package tracker

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// Session is the tracking state of one stream. Step calls are serialized.
type Session struct {
	id        string
	engine    *Engine
	gallery   *gallery.Gallery
	createdAt time.Time

	mu    sync.Mutex
	state state
}

// state is what one frame hands to the next.
type state struct {
	faces             []domain.TrackedFace
	reclassifyCounter int
	frames            int64
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID                string               `json:"id"`
	Frames            int64                `json:"frames"`
	ReclassifyCounter int                  `json:"reclassify_counter"`
	GallerySize       int                  `json:"gallery_size"`
	Faces             []domain.TrackedFace `json:"faces"`
	CreatedAt         time.Time            `json:"created_at"`
}

func (s *Session) ID() string {
	return s.id
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	faces := make([]domain.TrackedFace, len(s.state.faces))
	copy(faces, s.state.faces)
	return Snapshot{
		ID:                s.id,
		Frames:            s.state.frames,
		ReclassifyCounter: s.state.reclassifyCounter,
		GallerySize:       s.gallery.Len(),
		Faces:             faces,
		CreatedAt:         s.createdAt,
	}
}

// Reset forgets the tracked faces so the next frame is fully re-matched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state{frames: s.state.frames}
}

// Step processes one frame. On error the frame is dropped and the session keeps the
// state of the last successful frame.
func (s *Session) Step(ctx context.Context, frame []byte) (*domain.FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	detections, err := e.source.DetectFaces(ctx, frame)
	if err != nil {
		e.logger.Warn("frame dropped",
			slog.String("session_id", s.id),
			slog.Int64("frame", s.state.frames+1),
			slog.Any("error", err),
		)
		return nil, domain.SourceFailure(err)
	}

	next, scene, err := s.advance(ctx, frame, detections)
	if err != nil {
		e.logger.Warn("frame dropped",
			slog.String("session_id", s.id),
			slog.Int64("frame", s.state.frames+1),
			slog.Int("faces", len(detections)),
			slog.Any("error", err),
		)
		return nil, err
	}

	if scene == domain.SceneChanged && s.state.reclassifyCounter == e.interval && len(detections) == len(s.state.faces) {
		e.logger.Info("forced reclassification",
			slog.String("session_id", s.id),
			slog.Int64("frame", next.frames),
			slog.Int("interval", e.interval),
		)
	}
	changed := !sameLabels(s.state.faces, next.faces)
	s.state = next

	faces := make([]domain.TrackedFace, len(next.faces))
	copy(faces, next.faces)
	result := &domain.FrameResult{
		SessionID:         s.id,
		Frame:             next.frames,
		Scene:             scene,
		Faces:             faces,
		ReclassifyCounter: next.reclassifyCounter,
		LabelsChanged:     changed,
		ProcessedAt:       e.now(),
	}

	e.logger.Debug("frame processed",
		slog.String("session_id", s.id),
		slog.Int64("frame", result.Frame),
		slog.String("scene", string(scene)),
		slog.Any("labels", result.Labels()),
	)

	return result, nil
}

// advance computes the state after this frame without touching s.state.
func (s *Session) advance(ctx context.Context, frame []byte, detections []provider.DetectedFace) (state, domain.Scene, error) {
	prev := s.state
	e := s.engine

	next := state{
		faces:  make([]domain.TrackedFace, len(detections)),
		frames: prev.frames + 1,
	}

	if len(detections) == len(prev.faces) && prev.reclassifyCounter != e.interval {
		next.reclassifyCounter = prev.reclassifyCounter
		if hasUnknown(prev.faces) {
			next.reclassifyCounter++
		}

		for i, det := range detections {
			var from domain.TrackedFace
			if len(detections) == 1 {
				from = prev.faces[0]
			} else {
				from = prev.faces[nearest(det.BoundingBox.Centroid(), prev.faces)]
			}
			next.faces[i] = domain.TrackedFace{
				Label:    from.Label,
				Matched:  from.Matched,
				Distance: from.Distance,
				Box:      det.BoundingBox,
				Centroid: det.BoundingBox.Centroid(),
			}
		}
		return next, domain.SceneStable, nil
	}

	for i, det := range detections {
		result, err := e.describeAndMatch(ctx, s.gallery, frame, det)
		if err != nil {
			return state{}, "", err
		}
		next.faces[i] = domain.TrackedFace{
			Label:    result.Label,
			Matched:  result.Matched,
			Distance: result.Distance,
			Box:      det.BoundingBox,
			Centroid: det.BoundingBox.Centroid(),
		}
	}
	return next, domain.SceneChanged, nil
}

// nearest returns the index of the previous face whose centroid is closest to c.
// Strict comparison keeps the earliest index on ties.
func nearest(c domain.Point, prev []domain.TrackedFace) int {
	best := 0
	bestDistance := c.DistanceTo(prev[0].Centroid)
	for j := 1; j < len(prev); j++ {
		if d := c.DistanceTo(prev[j].Centroid); d < bestDistance {
			best, bestDistance = j, d
		}
	}
	return best
}

// sameLabels compares label multisets, ignoring detection order.
func sameLabels(a, b []domain.TrackedFace) bool {
	if len(a) != len(b) {
		return false
	}
	la := make([]string, len(a))
	lb := make([]string, len(b))
	for i := range a {
		la[i], lb[i] = a[i].Label, b[i].Label
	}
	sort.Strings(la)
	sort.Strings(lb)
	for i := range la {
		if la[i] != lb[i] {
			return false
		}
	}
	return true
}

func hasUnknown(faces []domain.TrackedFace) bool {
	for _, f := range faces {
		if !f.Matched {
			return true
		}
	}
	return false
}
