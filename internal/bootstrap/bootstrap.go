// Package bootstrap wires the configured store, descriptor source and engine. Both the
// HTTP server and the CLI start from here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/database"
	"github.com/saturnino-fabrica-de-software/vigia/internal/face"
	"github.com/saturnino-fabrica-de-software/vigia/internal/matcher"
	"github.com/saturnino-fabrica-de-software/vigia/internal/repository"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

// Store is an identity store plus whatever must be released on shutdown
type Store struct {
	service.IdentityStore
	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore opens the gallery store selected by cfg.Store. The postgres store applies
// pending migrations first.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}

		logger.Info("gallery store ready", slog.String("store", cfg.Store))
		return &Store{
			IdentityStore: repository.NewIdentityRepository(pool),
			close:         pool.Close,
		}, nil

	case config.StoreFile, "":
		if dir := filepath.Dir(cfg.GalleryPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create gallery directory: %w", err)
			}
		}

		logger.Info("gallery store ready",
			slog.String("store", config.StoreFile),
			slog.String("path", cfg.GalleryPath),
		)
		return &Store{
			IdentityStore: repository.NewFileRepository(cfg.GalleryPath, cfg.DescriptorDim),
		}, nil

	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

// Components are the pieces shared by every entry point
type Components struct {
	Store      *Store
	Snapshots  *service.Snapshots
	Enrollment *service.EnrollmentService
	Engine     *tracker.Engine
}

// Build opens the store, creates the descriptor source and loads the gallery.
// The caller owns Components.Store and must Close it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	source, err := face.NewDescriptorSource(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	m := matcher.New(
		matcher.WithThreshold(cfg.MatchThreshold),
		matcher.WithDimension(cfg.DescriptorDim),
	)
	engine := tracker.NewEngine(source, m,
		tracker.WithReclassifyInterval(cfg.ReclassifyInterval),
		tracker.WithLogger(logger),
	)

	snapshots := service.NewSnapshots(nil)
	enrollment := service.NewEnrollmentService(store, source, snapshots, logger).
		WithMaxImages(cfg.MaxEnrollImages).
		WithDimension(cfg.DescriptorDim)

	if err := enrollment.Load(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("load gallery: %w", err)
	}

	return &Components{
		Store:      store,
		Snapshots:  snapshots,
		Enrollment: enrollment,
		Engine:     engine,
	}, nil
}
