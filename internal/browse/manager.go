package browse

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/afrifurn-storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
)

// ManagerConfig controls session lifetime.
type ManagerConfig struct {
	Debounce      time.Duration
	PageSize      int
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxSessions   int
	Scheduler     filters.Scheduler
}

// Manager owns the live browse sessions.
type Manager struct {
	fetcher ProductFetcher
	cfg     ManagerConfig
	logg    *logger.Logger
	metrics *metrics.BrowseMetrics
	now     func() time.Time
	newID   func() string

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(fetcher ProductFetcher, cfg ManagerConfig, logg *logger.Logger, m *metrics.BrowseMetrics) *Manager {
	if logg == nil {
		logg = logger.Nop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		fetcher:  fetcher,
		cfg:      cfg,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session from the initial snapshot. The page size falls back to the
// configured default and the page to 1.
func (m *Manager) Create(ctx context.Context, initial filters.Snapshot) (*Session, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	if initial.PageSize <= 0 {
		initial.PageSize = m.cfg.PageSize
	}
	if initial.Page <= 0 {
		initial.Page = 1
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "browse sessions are shutting down")
	}
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "too many browse sessions")
	}
	id := m.newID()
	session := NewSession(id, initial, m.fetcher, SessionConfig{
		Debounce:  m.cfg.Debounce,
		ViewSize:  m.cfg.PageSize,
		Scheduler: m.cfg.Scheduler,
		Now:       m.now,
	}, m.logg, m.metrics)
	m.sessions[id] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(count)
	m.logg.Info(m.logg.WithSessionID(ctx, id), "browse session created")
	return session, nil
}

// Get looks a session up.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "browse session not found")
	}
	return session, nil
}

// Delete tears a session down.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "browse session not found")
	}

	session.Close()
	m.metrics.SetActiveSessions(count)
	m.logg.Info(m.logg.WithSessionID(ctx, id), "browse session deleted")
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many it evicted.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.SessionTTL)

	m.mu.Lock()
	var expired []*Session
	for id, session := range m.sessions {
		if session.IdleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	if len(expired) > 0 {
		m.metrics.SetActiveSessions(count)
		m.logg.Info(m.logg.WithField(ctx, "evicted", len(expired)), "expired browse sessions evicted")
	}
	return len(expired)
}

// Run sweeps on the configured interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close tears every session down and rejects new ones.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	m.metrics.SetActiveSessions(0)
	return nil
}
