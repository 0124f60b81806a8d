package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/logger"
	"github.com/biioon/reforco-escolar/internal/persona"
)

type fakeCompleter struct {
	mu          sync.Mutex
	reply       string
	err         error
	lastMessage string
	lastContext string
	calls       int
	release     chan struct{} // when non-nil, Reply blocks until closed
	started     chan struct{} // closed once Reply has been entered
	startedOnce sync.Once
}

func (f *fakeCompleter) Reply(ctx context.Context, p persona.Persona, message, conversation string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastMessage = message
	f.lastContext = conversation
	release := f.release
	f.mu.Unlock()

	if f.started != nil {
		f.startedOnce.Do(func() { close(f.started) })
	}
	if release != nil {
		<-release
	}
	return f.reply, f.err
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		MaxMessageLength: 1000,
		SessionIdleTTL:   30 * time.Minute,
		WelcomeMessage:   "Olá! Sou seu tutor virtual 🎓 O que vamos estudar hoje?",
		FallbackReply:    "Ops! Ocorreu um erro. Tente novamente.",
	}
}

func newTestService(completer *fakeCompleter) *Service {
	return NewService(logger.NewLogger("error", false), completer, testChatConfig())
}

func TestCreateStartsWithWelcomeMessage(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "oi"})
	sess := svc.Create("user-1", persona.Amigo)

	msgs := sess.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, uint(1), msgs[0].ID)
	assert.Equal(t, SenderBot, msgs[0].Sender)
	assert.Equal(t, testChatConfig().WelcomeMessage, msgs[0].Text)
}

func TestSubmitAppendsUserAndBotMessages(t *testing.T) {
	completer := &fakeCompleter{reply: "2+2 é igual a 4!"}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Professor)

	userMsg, botMsg, err := sess.Submit(context.Background(), "Quanto é 2+2?")
	require.NoError(t, err)

	assert.Equal(t, SenderUser, userMsg.Sender)
	assert.Equal(t, "Quanto é 2+2?", userMsg.Text)
	assert.Equal(t, SenderBot, botMsg.Sender)
	assert.Equal(t, "2+2 é igual a 4!", botMsg.Text)
	assert.Equal(t, userMsg.ID+1, botMsg.ID)

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []Message{msgs[0], userMsg, botMsg}, msgs)
}

func TestSubmitSanitizesInput(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Amigo)

	userMsg, _, err := sess.Submit(context.Background(), `<img src=x onerror=alert(1)>oi`)
	require.NoError(t, err)
	assert.Equal(t, "oi", userMsg.Text)
	assert.Equal(t, "oi", completer.lastMessage)
}

func TestSubmitContextIncludesNewMessage(t *testing.T) {
	completer := &fakeCompleter{reply: "resposta"}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Mentor)

	_, _, err := sess.Submit(context.Background(), "primeira pergunta")
	require.NoError(t, err)

	lines := strings.Split(completer.lastContext, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "bot: "+testChatConfig().WelcomeMessage, lines[0])
	assert.Equal(t, "user: primeira pergunta", lines[1])

	_, _, err = sess.Submit(context.Background(), "segunda pergunta")
	require.NoError(t, err)

	lines = strings.Split(completer.lastContext, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "user: primeira pergunta", lines[1])
	assert.Equal(t, "bot: resposta", lines[2])
	assert.Equal(t, "user: segunda pergunta", lines[3])
}

func TestSubmitGuardRejections(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyMessage},
		{name: "whitespace only", input: "   \n\t ", wantErr: ErrEmptyMessage},
		{name: "only markup", input: "<b></b>", wantErr: ErrEmptyMessage},
		{name: "too long", input: strings.Repeat("a", 1001), wantErr: ErrMessageTooLong},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			completer := &fakeCompleter{reply: "ok"}
			svc := newTestService(completer)
			sess := svc.Create("user-1", persona.Amigo)

			_, _, err := sess.Submit(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.wantErr)

			// A rejected submit leaves the log untouched and never calls
			// the completion client.
			assert.Len(t, sess.Messages(), 1)
			assert.Equal(t, 0, completer.calls)
		})
	}
}

func TestSubmitAcceptsMaxLengthMessage(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Amigo)

	_, _, err := sess.Submit(context.Background(), strings.Repeat("é", 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, completer.calls)
}

func TestSubmitFallbackOnCompletionError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Pai)

	userMsg, botMsg, err := sess.Submit(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, "oi", userMsg.Text)
	assert.Equal(t, testChatConfig().FallbackReply, botMsg.Text)
	assert.Len(t, sess.Messages(), 3)
}

func TestSubmitRejectsWhileSending(t *testing.T) {
	completer := &fakeCompleter{
		reply:   "ok",
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := newTestService(completer)
	sess := svc.Create("user-1", persona.Amigo)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := sess.Submit(context.Background(), "primeira")
		assert.NoError(t, err)
	}()

	<-completer.started
	_, _, err := sess.Submit(context.Background(), "segunda")
	assert.ErrorIs(t, err, ErrBusy)

	close(completer.release)
	<-done

	// Only the first submit went through.
	assert.Equal(t, 1, completer.calls)
	assert.Len(t, sess.Messages(), 3)
}

// panicOnceCompleter panics on the first call and answers normally after.
type panicOnceCompleter struct {
	calls int
}

func (c *panicOnceCompleter) Reply(ctx context.Context, p persona.Persona, message, conversation string) (string, error) {
	c.calls++
	if c.calls == 1 {
		panic("completer blew up")
	}
	return "resposta", nil
}

func TestSubmitNotStuckAfterCompleterPanic(t *testing.T) {
	svc := NewService(logger.NewLogger("error", false), &panicOnceCompleter{}, testChatConfig())
	sess := svc.Create("user-1", persona.Amigo)

	func() {
		defer func() { require.NotNil(t, recover()) }()
		_, _, _ = sess.Submit(context.Background(), "primeira")
	}()

	// The session must accept the next submit instead of reporting busy.
	_, botMsg, err := sess.Submit(context.Background(), "segunda")
	require.NoError(t, err)
	assert.Equal(t, "resposta", botMsg.Text)
}

func TestServiceGetEnforcesOwnership(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "ok"})
	sess := svc.Create("user-1", persona.Amigo)

	got, err := svc.Get(sess.ID(), "user-1")
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = svc.Get(sess.ID(), "user-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Get("missing", "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceEnd(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "ok"})
	sess := svc.Create("user-1", persona.Amigo)

	assert.ErrorIs(t, svc.End(sess.ID(), "user-2"), ErrSessionNotFound)
	require.NoError(t, svc.End(sess.ID(), "user-1"))
	assert.ErrorIs(t, svc.End(sess.ID(), "user-1"), ErrSessionNotFound)
	assert.Equal(t, 0, svc.Count())
}

func TestServicePruneIdle(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "ok"})

	stale := svc.Create("user-1", persona.Amigo)
	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	fresh := svc.Create("user-1", persona.Professor)

	assert.Equal(t, 1, svc.PruneIdle())
	_, err := svc.Get(stale.ID(), "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(fresh.ID(), "user-1")
	assert.NoError(t, err)
}
