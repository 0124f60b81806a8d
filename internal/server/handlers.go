package server

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/biioon/reforco-escolar/internal/auth"
	"github.com/biioon/reforco-escolar/internal/chat"
	"github.com/biioon/reforco-escolar/internal/database"
	"github.com/biioon/reforco-escolar/internal/note"
	"github.com/biioon/reforco-escolar/internal/persona"
	"github.com/biioon/reforco-escolar/internal/sanitize"
	"github.com/biioon/reforco-escolar/internal/validate"
)

// User-facing error messages, matching the tone of the chat UI.
const (
	msgInvalidEmail       = "E-mail inválido"
	msgInvalidCredentials = "Credenciais inválidas"
	msgEmailTaken         = "E-mail já cadastrado"
)

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Persona   string         `json:"persona"`
	Messages  []chat.Message `json:"messages"`
}

type noteResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toNoteResponse(n database.Note) noteResponse {
	return noteResponse{ID: n.ID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validate.Email(req.Email) {
		s.writeError(w, http.StatusBadRequest, msgInvalidEmail)
		return
	}
	if result := validate.Password(req.Password); !result.OK {
		s.writeError(w, http.StatusBadRequest, result.Message)
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to hash password", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &database.User{Name: sanitize.Text(req.Name), Email: req.Email, PasswordHash: hash}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			s.writeError(w, http.StatusConflict, msgEmailTaken)
			return
		}
		s.log.ErrorContext(r.Context(), "failed to create user", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to issue token", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to look up user", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		s.writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to issue token", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// requestUserID returns the authenticated user ID both as the uint the
// database uses and as the string the session registry keys on.
func requestUserID(r *http.Request) (uint, string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, "", false
	}
	return userID, strconv.FormatUint(uint64(userID), 10), true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	_, userKey, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Persona string `json:"persona"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := persona.Parse(req.Persona)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown persona: "+req.Persona)
		return
	}

	sess := s.chat.Create(userKey, p)
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID(),
		Persona:   sess.Persona().String(),
		Messages:  sess.Messages(),
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	_, userKey, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess, err := s.chat.Get(chi.URLParam(r, "sessionID"), userKey)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]chat.Message{"messages": sess.Messages()})
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	_, userKey, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.chat.Get(chi.URLParam(r, "sessionID"), userKey)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	userMsg, botMsg, err := sess.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrBusy):
		s.writeError(w, http.StatusConflict, "a reply is already being generated")
		return
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.ErrorContext(r.Context(), "failed to submit message", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]chat.Message{
		"user_message": userMsg,
		"bot_message":  botMsg,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	_, userKey, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := s.chat.End(chi.URLParam(r, "sessionID"), userKey); err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.notes.Save(r.Context(), userID, req.Title, req.Content)
	switch {
	case errors.Is(err, note.ErrTitleInvalid), errors.Is(err, note.ErrContentInvalid):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.ErrorContext(r.Context(), "failed to save note", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusCreated, toNoteResponse(*saved))
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	notes, err := s.notes.List(r.Context(), userID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list notes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	s.writeJSON(w, http.StatusOK, map[string][]noteResponse{"notes": out})
}

func (s *Server) handleSaveUpload(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requestUserID(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		FileName  string `json:"file_name"`
		MimeType  string `json:"mime_type"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fileName := sanitize.Text(req.FileName)
	if fileName == "" {
		s.writeError(w, http.StatusBadRequest, "file name is required")
		return
	}
	if !slices.Contains(s.cfg.Uploads.AllowedMimeTypes, req.MimeType) {
		s.writeError(w, http.StatusBadRequest, "file type not allowed: "+req.MimeType)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > s.cfg.Uploads.MaxSizeBytes {
		s.writeError(w, http.StatusBadRequest, "file size out of bounds")
		return
	}

	upload := &database.Upload{
		UserID:    userID,
		FileName:  fileName,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	}
	if err := s.store.SaveUpload(r.Context(), upload); err != nil {
		s.log.ErrorContext(r.Context(), "failed to save upload", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":         upload.ID,
		"file_name":  upload.FileName,
		"mime_type":  upload.MimeType,
		"size_bytes": upload.SizeBytes,
	})
}
