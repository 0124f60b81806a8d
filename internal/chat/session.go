package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/biioon/reforco-escolar/internal/ai"
	"github.com/biioon/reforco-escolar/internal/persona"
	"github.com/biioon/reforco-escolar/internal/sanitize"
)

// Validation and state errors surfaced to callers of Submit. They are
// detected locally and synchronously; nothing is sent to the completion
// service when a guard rejects.
var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds the maximum length")
	ErrBusy           = errors.New("a completion request is already in flight")
)

// Session holds one conversation: an append-only message log plus the
// single-in-flight submission state. All methods are safe for concurrent
// use; only one Submit may be resolving at a time.
type Session struct {
	id      string
	userID  string
	persona persona.Persona

	completer ai.Client
	log       *slog.Logger
	maxLen    int
	fallback  string

	mu         sync.Mutex
	messages   []Message
	nextID     uint
	sending    bool
	lastActive time.Time

	now func() time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Persona returns the persona the session was created with.
func (s *Session) Persona() persona.Persona { return s.persona }

// Messages returns a copy of the message log in creation order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastActive returns the time of the last append or submission.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// append adds a message to the log. Caller must hold s.mu.
func (s *Session) append(text string, sender Sender) Message {
	s.nextID++
	msg := Message{
		ID:        s.nextID,
		Text:      text,
		Sender:    sender,
		CreatedAt: s.now(),
	}
	s.messages = append(s.messages, msg)
	s.lastActive = msg.CreatedAt
	return msg
}

// contextString serializes the log as "<sender>: <text>" lines in creation
// order. It is rebuilt on every submit and includes the message appended by
// the submit in progress, so the completion service always sees the full
// conversation up to and including the newest user turn.
func (s *Session) contextString() string {
	lines := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		lines = append(lines, string(m.Sender)+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}

// Submit runs one turn of the conversation. The raw input is sanitized and
// length-checked; guard failures return a validation error without touching
// the log. On success the user message is appended, the completion client is
// called once with the serialized context, and the sanitized reply is
// appended as the bot message. When the completion fails the fixed fallback
// reply is appended instead; Submit never propagates completion errors.
func (s *Session) Submit(ctx context.Context, raw string) (userMsg, botMsg Message, err error) {
	text := sanitize.Text(raw)

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return Message{}, Message{}, ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return Message{}, Message{}, ErrEmptyMessage
	}
	if !sanitize.ValidLength(text, s.maxLen) {
		s.mu.Unlock()
		return Message{}, Message{}, ErrMessageTooLong
	}

	userMsg = s.append(text, SenderUser)
	conversation := s.contextString()
	s.sending = true
	s.mu.Unlock()

	// Reset the in-flight flag on every exit path, including a panicking
	// completer, so the session cannot get stuck rejecting with ErrBusy.
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	reply, replyErr := s.completer.Reply(ctx, s.persona, text, conversation)
	if replyErr != nil {
		s.log.WarnContext(ctx, "completion failed, using fallback reply",
			"session_id", s.id, "error", replyErr)
		reply = s.fallback
	} else {
		reply = sanitize.Text(reply)
		if reply == "" {
			reply = s.fallback
		}
	}

	s.mu.Lock()
	botMsg = s.append(reply, SenderBot)
	s.mu.Unlock()

	return userMsg, botMsg, nil
}
