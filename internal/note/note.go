// Package note implements saving and listing study notes: sanitization,
// bounds validation, persistence, and the optional save webhook.
package note

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/database"
	"github.com/biioon/reforco-escolar/internal/sanitize"
)

// Validation errors returned by Save. They refer to the sanitized values;
// input that is only markup counts as empty.
var (
	ErrTitleInvalid   = errors.New("note title is empty or too long")
	ErrContentInvalid = errors.New("note content is empty or too long")
)

const webhookTimeout = 10 * time.Second

// Service validates and persists notes.
type Service struct {
	store      database.Store
	log        *slog.Logger
	cfg        config.NotesConfig
	httpClient *http.Client
}

// NewService creates the note service. The webhook is disabled when
// cfg.WebhookURL is empty.
func NewService(store database.Store, log *slog.Logger, cfg config.NotesConfig) *Service {
	return &Service{
		store:      store,
		log:        log.With("component", "note"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// Save sanitizes and validates the title and content, persists the note,
// and fires the save webhook in the background. The webhook outcome never
// affects the returned note or error.
func (s *Service) Save(ctx context.Context, userID uint, title, content string) (*database.Note, error) {
	// Titles get the strict sanitizer; content keeps benign markup.
	title = sanitize.Text(title)
	content = sanitize.Note(content)

	if strings.TrimSpace(title) == "" || !sanitize.ValidLength(title, s.cfg.MaxTitleLength) {
		return nil, ErrTitleInvalid
	}
	if strings.TrimSpace(content) == "" || !sanitize.ValidLength(content, s.cfg.MaxContentLength) {
		return nil, ErrContentInvalid
	}

	note := &database.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := s.store.SaveNote(ctx, note); err != nil {
		return nil, err
	}

	if s.cfg.WebhookURL != "" {
		go s.notifyWebhook(note)
	}
	return note, nil
}

// List returns all notes for a user, newest first.
func (s *Service) List(ctx context.Context, userID uint) ([]database.Note, error) {
	return s.store.GetNotesByUser(ctx, userID)
}

// notifyWebhook POSTs the saved note to the configured webhook. It runs
// detached from the request that saved the note, with its own timeout.
func (s *Service) notifyWebhook(note *database.Note) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"note_id":    note.ID,
		"user_id":    note.UserID,
		"title":      note.Title,
		"content":    note.Content,
		"created_at": note.CreatedAt,
	})
	if err != nil {
		s.log.Warn("failed to marshal webhook payload", "note_id", note.ID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		s.log.Warn("failed to build webhook request", "note_id", note.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("note webhook call failed", "note_id", note.ID, "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		s.log.Warn("note webhook returned error status", "note_id", note.ID, "status", resp.StatusCode)
		return
	}
	s.log.Debug("note webhook delivered", "note_id", note.ID, "status", resp.StatusCode)
}
