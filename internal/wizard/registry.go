package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/articlegen/internal/apperr"
)

// Registry keeps the live wizard sessions in memory. A session that is
// abandoned and swept is gone; there is no recovery.
type Registry struct {
	gen      GenerationService
	store    ArticleStore
	sink     NotificationSink
	timeouts Timeouts
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewRegistry creates a registry. Sessions idle for longer than ttl are
// removed by Run.
func NewRegistry(gen GenerationService, store ArticleStore, sink NotificationSink, t Timeouts, ttl time.Duration) *Registry {
	return &Registry{
		gen:      gen,
		store:    store,
		sink:     sink,
		timeouts: t,
		ttl:      ttl,
		sessions: make(map[string]*Controller),
	}
}

// Create opens a new session for owner.
func (r *Registry) Create(owner string) *Controller {
	c := NewController(uuid.NewString(), owner, r.gen, r.store, r.sink, r.timeouts)
	r.mu.Lock()
	r.sessions[c.id] = c
	r.mu.Unlock()
	return c
}

// Get returns the session id if it belongs to owner. Sessions of other
// users are reported as not found.
func (r *Registry) Get(owner, id string) (*Controller, error) {
	r.mu.Lock()
	c, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || c.owner != owner {
		return nil, fmt.Errorf("wizard session %s: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

// Delete abandons a session, canceling any call in flight.
func (r *Registry) Delete(owner, id string) error {
	r.mu.Lock()
	c, ok := r.sessions[id]
	if !ok || c.owner != owner {
		r.mu.Unlock()
		return fmt.Errorf("wizard session %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.sessions, id)
	r.mu.Unlock()
	c.Cancel()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now-ttl and returns how many were
// dropped.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.sessions {
		last, idle := c.IdleSince()
		if idle && now.Sub(last) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	if r.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				slog.Info("wizard sessions expired", slog.Int("count", n))
			}
		}
	}
}
