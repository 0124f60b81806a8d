package database

import "time"

// User is a registered account. Authentication is by email and bcrypt
// password hash.
type User struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
}

// Note is a study note saved by a user. Title and content are stored after
// sanitization and bounds checks.
type Note struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID  uint   `db:"user_id"`
	Title   string `db:"title"`
	Content string `db:"content"`
}

// Upload records metadata about a file a user attached. Only the metadata
// is kept; file bytes are not stored.
type Upload struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	UserID    uint   `db:"user_id"`
	FileName  string `db:"file_name"`
	MimeType  string `db:"mime_type"`
	SizeBytes int64  `db:"size_bytes"`
}
