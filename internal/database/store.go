package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already
// registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Store defines the interface for database operations. Methods accept a
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateUser inserts a new user. Returns ErrDuplicateEmail when the
	// email is taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail retrieves a user by email. Returns nil, nil if not found.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SaveNote inserts a new note record.
	SaveNote(ctx context.Context, note *Note) error

	// GetNotesByUser retrieves all notes for a user, newest first.
	GetNotesByUser(ctx context.Context, userID uint) ([]Note, error)

	// SaveUpload inserts an upload metadata record.
	SaveUpload(ctx context.Context, upload *Upload) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser inserts a new user record.
func (s *sqlxStore) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.Email == "" {
		return fmt.Errorf("user must have a non-empty email")
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("user must have a non-empty password hash")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for creating user", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var exists bool
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM users WHERE email = ? LIMIT 1`, user.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking if email exists", "error", err)
		return fmt.Errorf("failed to check if email exists: %w", err)
	}
	if exists {
		return ErrDuplicateEmail
	}

	query := `
        INSERT INTO users (name, email, password_hash, created_at, updated_at)
        VALUES (:name, :email, :password_hash, :created_at, :updated_at);
    `
	result, err := tx.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		user.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating user", "error", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "User created", "user_id", user.ID)
	return nil
}

// GetUserByEmail retrieves a user by email. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	query := `SELECT id, created_at, updated_at, name, email, password_hash FROM users WHERE email = ?`

	err := s.db.GetContext(ctx, &user, query, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found for email")
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user by email", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// SaveNote inserts a new note record.
func (s *sqlxStore) SaveNote(ctx context.Context, note *Note) error {
	if note == nil {
		return fmt.Errorf("cannot save nil note")
	}
	if note.UserID == 0 {
		return fmt.Errorf("note must have a non-zero user_id")
	}
	if note.Title == "" {
		return fmt.Errorf("note must have a non-empty title")
	}

	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving note",
			"user_id", note.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO notes (user_id, title, content, created_at, updated_at)
        VALUES (:user_id, :title, :content, :created_at, :updated_at);
    `
	result, err := tx.NamedExecContext(ctx, query, note)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving note", "user_id", note.UserID, "error", err)
		return fmt.Errorf("failed to save note for user %d: %w", note.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		note.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving note",
			"user_id", note.UserID, "error", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "user_id", note.UserID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Note saved", "user_id", note.UserID, "note_id", note.ID)
	return nil
}

// GetNotesByUser retrieves all notes for a user, newest first.
func (s *sqlxStore) GetNotesByUser(ctx context.Context, userID uint) ([]Note, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var notes []Note
	query := `
        SELECT id, created_at, updated_at, user_id, title, content
        FROM notes
        WHERE user_id = ?
        ORDER BY created_at DESC, id DESC;
    `

	err := s.db.SelectContext(ctx, &notes, query, userID)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching notes",
			"user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting notes", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get notes for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Fetched notes", "user_id", userID, "count", len(notes))
	return notes, nil
}

// SaveUpload inserts an upload metadata record.
func (s *sqlxStore) SaveUpload(ctx context.Context, upload *Upload) error {
	if upload == nil {
		return fmt.Errorf("cannot save nil upload")
	}
	if upload.UserID == 0 {
		return fmt.Errorf("upload must have a non-zero user_id")
	}
	if upload.FileName == "" {
		return fmt.Errorf("upload must have a non-empty file name")
	}

	upload.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO uploads (user_id, file_name, mime_type, size_bytes, created_at)
        VALUES (:user_id, :file_name, :mime_type, :size_bytes, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, upload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving upload", "user_id", upload.UserID, "error", err)
		return fmt.Errorf("failed to save upload for user %d: %w", upload.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		upload.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving upload",
			"user_id", upload.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Upload saved", "user_id", upload.UserID, "upload_id", upload.ID)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
