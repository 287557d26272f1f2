package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"scandeck/internal/domain"
)

// BuildFunc creates an uninitialized session for a user
type BuildFunc func(userID string) *Session

// Registry hands out one session per user and disposes idle ones
type Registry struct {
	build   BuildFunc
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	group singleflight.Group
}

// NewRegistry creates a registry. Sessions unused for idleTTL are removed by
// Sweep.
func NewRegistry(build BuildFunc, idleTTL time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		build:    build,
		idleTTL:  idleTTL,
		logger:   logger.With("component", "sessions"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the user's session, building and initializing it on first use.
// Concurrent first requests for the same user share one build.
func (r *Registry) Get(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("session: %w", domain.ErrUnauthorized)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, domain.E(domain.KindIOFailure, "sessions.get", "server is shutting down", nil)
	}
	if s, ok := r.sessions[userID]; ok {
		s.touch(r.now())
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(userID, func() (any, error) {
		r.mu.Lock()
		existing, ok := r.sessions[userID]
		r.mu.Unlock()
		if ok {
			return existing, nil
		}

		s := r.build(userID)
		// Initialization outlives the request that triggered it
		s.initialize(context.WithoutCancel(ctx))
		s.touch(r.now())

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			s.dispose()
			return nil, domain.E(domain.KindIOFailure, "sessions.get", "server is shutting down", nil)
		}
		r.sessions[userID] = s
		r.logger.Info("session created", "session_id", s.ID, "user_id", userID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Remove disposes the user's session, if any
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.dispose()
		r.logger.Info("session removed", "session_id", s.ID, "user_id", userID)
	}
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep disposes sessions idle for longer than the TTL and returns how many
// were removed
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for userID, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, userID)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.dispose()
		r.logger.Debug("idle session disposed", "session_id", s.ID, "user_id", s.UserID)
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("idle sessions swept", "count", n)
			}
		}
	}
}

// Close disposes every session. Later calls to Get fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.dispose()
	}
}
