package service

import (
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
)

// Snapshots publishes the current gallery to concurrent readers. Readers get an
// immutable *gallery.Gallery; writers are serialized and publish a modified clone.
type Snapshots struct {
	current atomic.Pointer[gallery.Gallery]
	mu      sync.Mutex
}

func NewSnapshots(g *gallery.Gallery) *Snapshots {
	if g == nil {
		g = gallery.New()
	}
	s := &Snapshots{}
	s.current.Store(g)
	return s
}

// Load returns the published gallery. Callers must not mutate it.
func (s *Snapshots) Load() *gallery.Gallery {
	return s.current.Load()
}

// Update applies fn to a clone of the current gallery and publishes the clone when fn
// succeeds. fn runs with writers locked out, so it may also persist the change.
func (s *Snapshots) Update(fn func(next *gallery.Gallery) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.current.Store(next)
	return nil
}

// Replace publishes g as is.
func (s *Snapshots) Replace(g *gallery.Gallery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(g)
}
