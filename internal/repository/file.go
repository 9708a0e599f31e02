package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
)

// FileRepository keeps the gallery in a text file, one "label,v1,...,vD" row per identity.
// Every write rewrites the whole file through a temporary file and a rename.
// The text format has no metadata: timestamps are not persisted and SourceCount reads back as 1.
type FileRepository struct {
	path      string
	dimension int
	mu        sync.Mutex
}

// NewFileRepository uses path as the gallery file. dimension 0 accepts whatever
// width the first row has.
func NewFileRepository(path string, dimension int) *FileRepository {
	return &FileRepository{path: path, dimension: dimension}
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Create(ctx context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.load()
	if err != nil {
		return err
	}
	if err := g.Add(*identity); err != nil {
		return err
	}

	now := time.Now()
	identity.CreatedAt, identity.UpdatedAt = now, now
	return r.store(g)
}

func (r *FileRepository) Save(ctx context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.load()
	if err != nil {
		return err
	}
	if _, err := g.Put(*identity); err != nil {
		return err
	}

	now := time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
	return r.store(g)
}

func (r *FileRepository) Get(ctx context.Context, label string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.load()
	if err != nil {
		return nil, err
	}
	identity, ok := g.Get(label)
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &identity, nil
}

func (r *FileRepository) List(ctx context.Context) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.load()
	if err != nil {
		return nil, err
	}
	return g.Entries(), nil
}

func (r *FileRepository) Delete(ctx context.Context, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := r.load()
	if err != nil {
		return err
	}
	if !g.Remove(label) {
		return domain.ErrIdentityNotFound
	}
	return r.store(g)
}

// Ping checks that the gallery directory is usable.
func (r *FileRepository) Ping(ctx context.Context) error {
	dir := filepath.Dir(r.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("gallery directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("gallery directory: %s is not a directory", dir)
	}
	return nil
}

// load reads the gallery file. A missing file is an empty gallery.
func (r *FileRepository) load() (*gallery.Gallery, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return gallery.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open gallery file: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := gallery.ReadText(f, r.dimension)
	if err != nil {
		return nil, fmt.Errorf("read gallery file %s: %w", r.path, err)
	}
	return g, nil
}

func (r *FileRepository) store(g *gallery.Gallery) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create gallery directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp gallery file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := gallery.WriteText(tmp, g); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write gallery file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync gallery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close gallery file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace gallery file: %w", err)
	}
	return nil
}
