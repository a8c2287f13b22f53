package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsgraph/backend/internal/explorer"
	"newsgraph/backend/internal/metrics"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Session is one user's exploration: a controller owning the accumulated
// graph and a router for activations on it.
type Session struct {
	ID         string
	Controller *explorer.Controller
	Router     *explorer.Router

	cancel   context.CancelFunc
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps the live sessions in memory. Nothing survives a restart.
type Registry struct {
	fetcher explorer.Fetcher
	opts    explorer.Options
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions fetch from fetcher. A nil
// metrics disables instrumentation.
func NewRegistry(fetcher explorer.Fetcher, opts explorer.Options, ttl time.Duration, m *metrics.Metrics) *Registry {
	if m != nil {
		opts.Observer = m
	}
	return &Registry{
		fetcher:  fetcher,
		opts:     opts,
		ttl:      ttl,
		metrics:  m,
		logger:   logger.Named("sessions"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session and returns it with the pending initial load.
func (r *Registry) Create() (*Session, <-chan explorer.Outcome) {
	ctx, cancel := context.WithCancel(context.Background())
	controller := explorer.NewController(r.fetcher, r.opts)

	s := &Session{
		ID:         uuid.NewString(),
		Controller: controller,
		cancel:     cancel,
		lastSeen:   r.now(),
	}
	s.Router = explorer.NewRouter(controller, explorer.NavigatorFunc(func(_ context.Context, url string) error {
		r.logger.Debug("Article opened", zap.String("session_id", s.ID), zap.String("url", url))
		return nil
	}))

	initial := controller.Start(ctx)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.SessionOpened()
	}

	r.logger.Info("Session created", zap.String("session_id", s.ID))
	return s, initial
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewSessionNotFound(id)
	}
	s.touch(r.now())
	return s, nil
}

// Close ends a session and discards its graph.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return apperrors.NewSessionNotFound(id)
	}
	r.end(s)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Reap() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.end(s)
	}
	if len(expired) > 0 {
		r.logger.Info("Expired sessions reaped", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunJanitor reaps expired sessions every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}

// CloseAll ends every session, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		r.end(s)
	}
}

func (r *Registry) end(s *Session) {
	s.cancel()
	if r.metrics != nil {
		r.metrics.SessionClosed()
	}
	r.logger.Info("Session ended", zap.String("session_id", s.ID))
}
