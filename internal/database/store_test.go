package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func TestCreateUserAndGetByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &User{Name: "Aluno", Email: "aluno@escola.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := store.GetUserByEmail(ctx, "aluno@escola.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Aluno", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)

	missing, err := store.GetUserByEmail(ctx, "ninguem@escola.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &User{Email: "a@b.com", PasswordHash: "h1"}))
	err := store.CreateUser(ctx, &User{Email: "a@b.com", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSaveNoteAndGetNotesByUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &User{Email: "aluno@escola.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))

	first := &Note{UserID: user.ID, Title: "Frações", Content: "Revisar denominadores"}
	second := &Note{UserID: user.ID, Title: "Verbos", Content: "Pretérito perfeito"}
	require.NoError(t, store.SaveNote(ctx, first))
	require.NoError(t, store.SaveNote(ctx, second))

	notes, err := store.GetNotesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	// Newest first; same-second inserts fall back to ID order.
	assert.Equal(t, "Verbos", notes[0].Title)
	assert.Equal(t, "Frações", notes[1].Title)

	other, err := store.GetNotesByUser(ctx, user.ID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveNoteValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveNote(ctx, nil))
	assert.Error(t, store.SaveNote(ctx, &Note{Title: "sem dono"}))
	assert.Error(t, store.SaveNote(ctx, &Note{UserID: 1}))
}

func TestSaveUpload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &User{Email: "aluno@escola.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))

	upload := &Upload{UserID: user.ID, FileName: "prova.pdf", MimeType: "application/pdf", SizeBytes: 2048}
	require.NoError(t, store.SaveUpload(ctx, upload))
	assert.NotZero(t, upload.ID)
}

func TestRunSQLMaintenance(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.RunSQLMaintenance(context.Background()))
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
