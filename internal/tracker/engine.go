// Package tracker keeps face identities stable across the frames of a stream.
//
// Each Session remembers the previous frame's labelled faces. While the number of faces
// does not change, labels are carried over to the nearest previous centroid and no
// descriptor is computed. A change in face count, or reclassifyInterval consecutive
// stable frames that still show an unknown face, triggers a full re-match of every face.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/matcher"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// DefaultReclassifyInterval is the number of stable frames with an unknown face after
// which every face is matched again.
const DefaultReclassifyInterval = 10

// Engine holds what sessions share: the descriptor source, the matcher and the policy.
// It has no per-stream state and is safe for concurrent use.
type Engine struct {
	source   provider.DescriptorSource
	matcher  *matcher.Matcher
	interval int
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithReclassifyInterval(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.interval = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(source provider.DescriptorSource, m *matcher.Matcher, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		matcher:  m,
		interval: DefaultReclassifyInterval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ReclassifyInterval() int {
	return e.interval
}

// NewSession starts a stream bound to the gallery snapshot g. g must not be mutated
// while the session is alive.
func (e *Engine) NewSession(id string, g *gallery.Gallery) *Session {
	if g == nil {
		g = gallery.New()
	}
	return &Session{
		id:        id,
		engine:    e,
		gallery:   g,
		createdAt: e.now(),
	}
}

// RecognizeOnce identifies the single face in image. Zero or several faces fail with
// ErrDetectionCount before any descriptor is computed.
func (e *Engine) RecognizeOnce(ctx context.Context, g *gallery.Gallery, image []byte) (domain.MatchResult, error) {
	faces, err := e.source.DetectFaces(ctx, image)
	if err != nil {
		return domain.MatchResult{}, domain.SourceFailure(err)
	}
	if len(faces) != 1 {
		return domain.MatchResult{}, domain.ErrDetectionCount.WithError(fmt.Errorf("detected %d faces", len(faces)))
	}

	result, err := e.describeAndMatch(ctx, g, image, faces[0])
	if err != nil {
		return domain.MatchResult{}, err
	}
	return result, nil
}

func (e *Engine) describeAndMatch(ctx context.Context, g *gallery.Gallery, image []byte, face provider.DetectedFace) (domain.MatchResult, error) {
	descriptor, err := e.source.ComputeDescriptor(ctx, image, face)
	if err != nil {
		return domain.MatchResult{}, domain.SourceFailure(err)
	}

	result, err := e.matcher.Match(descriptor, g)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("match face: %w", err)
	}
	return result, nil
}
