package note

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/database"
	"github.com/biioon/reforco-escolar/internal/logger"
)

func newTestService(t *testing.T, webhookURL string) (*Service, uint) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	user := &database.User{Email: "aluno@escola.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	cfg := config.NotesConfig{
		MaxTitleLength:   200,
		MaxContentLength: 10000,
		WebhookURL:       webhookURL,
	}
	return NewService(store, logger.NewLogger("error", false), cfg), user.ID
}

func TestSaveAndList(t *testing.T) {
	svc, userID := newTestService(t, "")
	ctx := context.Background()

	saved, err := svc.Save(ctx, userID, "Frações", "Revisar denominadores comuns")
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	notes, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Frações", notes[0].Title)
	assert.Equal(t, "Revisar denominadores comuns", notes[0].Content)
}

func TestSaveSanitizesTitleAndContent(t *testing.T) {
	svc, userID := newTestService(t, "")

	saved, err := svc.Save(context.Background(), userID,
		"<h1>Frações</h1>",
		`Revisar <b onclick=x>tudo</b> javascript:void(0) <script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Equal(t, "Frações", saved.Title)
	assert.Equal(t, "Revisar <b x>tudo</b> void(0)", saved.Content)
}

func TestSaveValidation(t *testing.T) {
	svc, userID := newTestService(t, "")
	ctx := context.Background()

	testCases := []struct {
		name    string
		title   string
		content string
		wantErr error
	}{
		{name: "empty title", title: "", content: "conteúdo", wantErr: ErrTitleInvalid},
		{name: "markup only title", title: "<b></b>", content: "conteúdo", wantErr: ErrTitleInvalid},
		{name: "title too long", title: strings.Repeat("a", 201), content: "conteúdo", wantErr: ErrTitleInvalid},
		{name: "empty content", title: "título", content: "   ", wantErr: ErrContentInvalid},
		{name: "content too long", title: "título", content: strings.Repeat("a", 10001), wantErr: ErrContentInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, userID, tc.title, tc.content)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSaveFiresWebhook(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer srv.Close()

	svc, userID := newTestService(t, srv.URL)

	saved, err := svc.Save(context.Background(), userID, "Verbos", "Pretérito perfeito")
	require.NoError(t, err)

	select {
	case payload := <-received:
		assert.Equal(t, float64(saved.ID), payload["note_id"])
		assert.Equal(t, "Verbos", payload["title"])
		assert.Equal(t, "Pretérito perfeito", payload["content"])
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestSaveSucceedsWhenWebhookFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, userID := newTestService(t, srv.URL)

	saved, err := svc.Save(context.Background(), userID, "Título", "Conteúdo")
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
}
