package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

const DefaultMaxEnrollImages = 10

// IdentitySummary is the event payload for gallery changes
type IdentitySummary struct {
	Label       string `json:"label"`
	Dimension   int    `json:"dimension"`
	SourceCount int    `json:"source_count"`
	GallerySize int    `json:"gallery_size"`
}

type EnrollmentService struct {
	store     IdentityStore
	source    provider.DescriptorSource
	snapshots *Snapshots
	events    EventPublisher
	logger    *slog.Logger
	maxImages int
	dimension int
}

func NewEnrollmentService(
	store IdentityStore,
	source provider.DescriptorSource,
	snapshots *Snapshots,
	logger *slog.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentService{
		store:     store,
		source:    source,
		snapshots: snapshots,
		events:    noopPublisher{},
		logger:    logger,
		maxImages: DefaultMaxEnrollImages,
	}
}

func (s *EnrollmentService) WithMaxImages(n int) *EnrollmentService {
	if n > 0 {
		s.maxImages = n
	}
	return s
}

// WithDimension requires every enrolled descriptor to have n values
func (s *EnrollmentService) WithDimension(n int) *EnrollmentService {
	s.dimension = n
	return s
}

func (s *EnrollmentService) WithEvents(events EventPublisher) *EnrollmentService {
	if events != nil {
		s.events = events
	}
	return s
}

// Load publishes the stored identities as the current gallery
func (s *EnrollmentService) Load(ctx context.Context) error {
	identities, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	g, err := gallery.FromIdentities(identities)
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	s.snapshots.Replace(g)

	s.logger.Info("gallery loaded",
		slog.Int("identities", g.Len()),
		slog.Int("dimension", g.Dimension()),
	)
	return nil
}

// Enroll builds the identity for label from images and replaces any identity with the
// same label. Nothing is persisted when it fails.
func (s *EnrollmentService) Enroll(ctx context.Context, label string, images [][]byte) (*domain.Identity, error) {
	return s.enroll(ctx, label, images, true)
}

// Register is Enroll for a label that must not exist yet.
func (s *EnrollmentService) Register(ctx context.Context, label string, images [][]byte) (*domain.Identity, error) {
	return s.enroll(ctx, label, images, false)
}

func (s *EnrollmentService) enroll(ctx context.Context, label string, images [][]byte, replace bool) (*domain.Identity, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.ErrValidationFailed.WithMessage("At least one image is required")
	}
	if len(images) > s.maxImages {
		return nil, domain.ErrValidationFailed.WithMessage(fmt.Sprintf("At most %d images per enrollment", s.maxImages))
	}
	if !replace {
		if _, ok := s.snapshots.Load().Get(label); ok {
			return nil, domain.ErrIdentityExists
		}
	}

	descriptors := make([]domain.Descriptor, len(images))
	for i, img := range images {
		d, err := s.describe(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("enroll %q image %d: %w", label, i+1, err)
		}
		descriptors[i] = d
	}

	identity, err := gallery.BuildIdentity(label, descriptors)
	if err != nil {
		return nil, err
	}
	if s.dimension > 0 && identity.Dimension() != s.dimension {
		return nil, domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("descriptor has %d values, service expects %d", identity.Dimension(), s.dimension))
	}

	var size int
	err = s.snapshots.Update(func(next *gallery.Gallery) error {
		if replace {
			if _, err := next.Put(identity); err != nil {
				return err
			}
			if err := s.store.Save(ctx, &identity); err != nil {
				return err
			}
		} else {
			if err := next.Add(identity); err != nil {
				return err
			}
			if err := s.store.Create(ctx, &identity); err != nil {
				return err
			}
		}
		size = next.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity enrolled",
		slog.String("label", identity.Label),
		slog.Int("images", len(images)),
		slog.Int("usable", identity.SourceCount),
		slog.Int("gallery_size", size),
	)
	s.events.Publish("", domain.EventIdentityEnrolled, IdentitySummary{
		Label:       identity.Label,
		Dimension:   identity.Dimension(),
		SourceCount: identity.SourceCount,
		GallerySize: size,
	})

	return &identity, nil
}

// describe returns the descriptor of the first face in img, or a sentinel when the
// image has no face.
func (s *EnrollmentService) describe(ctx context.Context, img []byte) (domain.Descriptor, error) {
	faces, err := s.source.DetectFaces(ctx, img)
	if err != nil {
		return nil, domain.SourceFailure(err)
	}
	if len(faces) == 0 {
		return nil, nil
	}
	if len(faces) > 1 {
		s.logger.Debug("several faces in enrollment image, using the first", slog.Int("faces", len(faces)))
	}

	d, err := s.source.ComputeDescriptor(ctx, img, faces[0])
	if err != nil {
		return nil, domain.SourceFailure(err)
	}
	return d, nil
}

func (s *EnrollmentService) Delete(ctx context.Context, label string) error {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return err
	}

	var size int
	err = s.snapshots.Update(func(next *gallery.Gallery) error {
		if err := s.store.Delete(ctx, label); err != nil {
			return err
		}
		next.Remove(label)
		size = next.Len()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("identity deleted", slog.String("label", label), slog.Int("gallery_size", size))
	s.events.Publish("", domain.EventIdentityDeleted, IdentitySummary{Label: label, GallerySize: size})
	return nil
}

func (s *EnrollmentService) Get(ctx context.Context, label string) (*domain.Identity, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, label)
}

func (s *EnrollmentService) List(ctx context.Context) ([]domain.Identity, error) {
	return s.store.List(ctx)
}

// Export writes the current gallery in the persisted text format
func (s *EnrollmentService) Export(w io.Writer) error {
	return gallery.WriteText(w, s.snapshots.Load())
}

// Ready checks the identity store
func (s *EnrollmentService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
