package chat

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/biioon/reforco-escolar/internal/ai"
	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/persona"
)

// ErrSessionNotFound is returned when a session ID is unknown or belongs to
// a different user.
var ErrSessionNotFound = errors.New("session not found")

// Service owns the live sessions, keyed by UUID. Sessions are in-memory
// only; an ended or pruned session is gone for good.
type Service struct {
	log       *slog.Logger
	completer ai.Client
	cfg       config.ChatConfig
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates the session registry.
func NewService(log *slog.Logger, completer ai.Client, cfg config.ChatConfig) *Service {
	return &Service{
		log:       log.With("component", "chat"),
		completer: completer,
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Create opens a new session for userID with the given persona. The session
// starts with the configured welcome message as its first bot message.
func (s *Service) Create(userID string, p persona.Persona) *Session {
	sess := &Session{
		id:        uuid.NewString(),
		userID:    userID,
		persona:   p,
		completer: s.completer,
		log:       s.log,
		maxLen:    s.cfg.MaxMessageLength,
		fallback:  s.cfg.FallbackReply,
		now:       s.now,
	}
	sess.mu.Lock()
	sess.append(s.cfg.WelcomeMessage, SenderBot)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info("session created", "session_id", sess.id, "persona", p.String())
	return sess
}

// Get returns the session with the given ID if it exists and belongs to
// userID.
func (s *Service) Get(id, userID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.userID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// End removes the session with the given ID if it belongs to userID.
func (s *Service) End(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.userID != userID {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.log.Info("session ended", "session_id", id)
	return nil
}

// PruneIdle removes sessions that have been inactive longer than the
// configured idle TTL and returns how many were removed.
func (s *Service) PruneIdle() int {
	cutoff := s.now().Add(-s.cfg.SessionIdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		s.log.Info("pruned idle sessions", "count", pruned)
	}
	return pruned
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
