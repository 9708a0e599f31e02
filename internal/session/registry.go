// Package session keeps the live tracking sessions of the service.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/tracker"
)

const (
	DefaultMaxSessions = 256
	DefaultIdleTimeout = 5 * time.Minute
)

// Config holds registry limits
type Config struct {
	// MaxSessions caps concurrent sessions, 0 means DefaultMaxSessions
	MaxSessions int
	// IdleTimeout evicts sessions without frames for this long
	IdleTimeout time.Duration
	// OnEvict is called, outside the lock, for every session removed by the sweeper
	OnEvict func(id string)
}

type entry struct {
	session    *tracker.Session
	lastAccess time.Time
}

// Registry maps session ids to tracker sessions
type Registry struct {
	engine  *tracker.Engine
	config  Config
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry(engine *tracker.Engine, config Config, logger *slog.Logger) *Registry {
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engine:  engine,
		config:  config,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Create starts a new session bound to g. An existing id fails.
func (r *Registry) Create(id string, g *gallery.Gallery) (*tracker.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return nil, domain.ErrValidationFailed.WithMessage(fmt.Sprintf("session %q already exists", id))
	}
	return r.createLocked(id, g)
}

// GetOrCreate returns the session for id, creating it on first use.
// g is only used when a session is created.
func (r *Registry) GetOrCreate(id string, g *gallery.Gallery) (*tracker.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.lastAccess = r.now()
		return e.session, false, nil
	}

	s, err := r.createLocked(id, g)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *Registry) createLocked(id string, g *gallery.Gallery) (*tracker.Session, error) {
	if len(r.entries) >= r.config.MaxSessions {
		return nil, domain.ErrSessionLimitReached
	}

	s := r.engine.NewSession(id, g)
	r.entries[id] = &entry{session: s, lastAccess: r.now()}

	r.logger.Debug("session created",
		slog.String("session_id", id),
		slog.Int("gallery_size", g.Len()),
		slog.Int("active", len(r.entries)),
	)
	return s, nil
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*tracker.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	e.lastAccess = r.now()
	return e.session, nil
}

// Remove ends a session. It reports whether the session existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs lists the active session ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Sweep removes sessions idle for longer than IdleTimeout and returns their ids.
func (r *Registry) Sweep() []string {
	now := r.now()

	r.mu.Lock()
	var evicted []string
	for id, e := range r.entries {
		if now.Sub(e.lastAccess) > r.config.IdleTimeout {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	for _, id := range evicted {
		r.logger.Info("session evicted",
			slog.String("session_id", id),
			slog.Duration("idle_timeout", r.config.IdleTimeout),
		)
		if r.config.OnEvict != nil {
			r.config.OnEvict(id)
		}
	}
	return evicted
}

// Run sweeps idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.config.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
