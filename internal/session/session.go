// Package session tracks the single access token held by the server and
// mirrors it to a durable Store so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

// State is the coarse condition of the session.
type State string

const (
	StateNoSession State = "no-session"
	StateExpired   State = "expired"
	StateValid     State = "valid"
)

// Status describes the session at a point in time. Remaining is only set
// when the session is valid and has a known expiry.
type Status struct {
	State     State
	Remaining time.Duration
	Bounded   bool
}

// RemainingSeconds returns Remaining rounded down to whole seconds.
func (s Status) RemainingSeconds() int64 {
	return int64(s.Remaining / time.Second)
}

// Session owns the current access token. All reads and mutations, including
// writes to the store, happen under one mutex.
type Session struct {
	store  Store
	key    string
	probe  Probe
	now    func() time.Time
	logger *common.Logger

	mu        sync.Mutex
	token     string
	expiresAt *time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithProbe replaces DefaultProbe.
func WithProbe(p Probe) Option {
	return func(s *Session) { s.probe = p }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *common.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an empty session persisted to store under key.
func New(store Store, key string, opts ...Option) *Session {
	s := &Session{
		store: store,
		key:   key,
		probe: DefaultProbe,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = common.NewSilentLogger()
	}
	return s
}

// Load restores the session from the store. A missing, unreadable, corrupt
// or expired record leaves the session empty and is removed from the store.
func (s *Session) Load(ctx context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.expiresAt = "", nil

	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug().Msg("no stored session")
		return s.statusLocked()
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read stored session, discarding")
		s.deleteLocked(ctx)
		return s.statusLocked()
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.AccessToken == "" {
		s.logger.Warn().Msg("stored session is invalid, discarding")
		s.deleteLocked(ctx)
		return s.statusLocked()
	}
	if rec.ExpiresAt != nil && !s.now().Before(*rec.ExpiresAt) {
		s.logger.Info().Msg("stored session has expired, discarding")
		s.deleteLocked(ctx)
		return s.statusLocked()
	}

	s.token, s.expiresAt = rec.AccessToken, rec.ExpiresAt
	st := s.statusLocked()
	s.logger.Info().Int64("remaining_seconds", st.RemainingSeconds()).Msg("restored stored session")
	return st
}

// Absorb extracts a token from a login response body and, if one is found,
// makes it the current session and persists it. Returns false and leaves the
// session untouched when the body carries no token.
func (s *Session) Absorb(ctx context.Context, body []byte) bool {
	token, ok := s.probe.Token(body)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.token = token
	s.expiresAt = s.probe.Expiry(body, token, now)

	rec := Record{AccessToken: s.token, ExpiresAt: s.expiresAt, SavedAt: now}
	data, err := json.Marshal(rec)
	if err == nil {
		err = s.store.Save(ctx, s.key, data)
	}
	if err != nil {
		// A stale record must not outlive the token that replaced it.
		s.logger.Warn().Err(err).Msg("failed to persist session, removing stored record")
		s.deleteLocked(ctx)
	}

	st := s.statusLocked()
	s.logger.Info().
		Bool("bounded", st.Bounded).
		Int64("remaining_seconds", st.RemainingSeconds()).
		Msg("session established")
	return true
}

// Status reports whether the session holds a usable token.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Clear drops the token and deletes the stored record. Safe to call on an
// empty session.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.token != ""
	s.token, s.expiresAt = "", nil
	s.deleteLocked(ctx)
	if had {
		s.logger.Info().Msg("session cleared")
	}
}

// BearerToken returns the token while the session is valid.
func (s *Session) BearerToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusLocked().State != StateValid {
		return "", false
	}
	return s.token, true
}

func (s *Session) statusLocked() Status {
	if s.token == "" {
		return Status{State: StateNoSession}
	}
	if s.expiresAt == nil {
		return Status{State: StateValid}
	}
	remaining := s.expiresAt.Sub(s.now())
	if remaining <= 0 {
		return Status{State: StateExpired}
	}
	return Status{State: StateValid, Remaining: remaining, Bounded: true}
}

func (s *Session) deleteLocked(ctx context.Context) {
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete stored session")
	}
}
