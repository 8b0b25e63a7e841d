package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sophia_companion_go_backend/internal/ai"
	"sophia_companion_go_backend/internal/chat"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator records every request and returns a canned reply or error.
type stubGenerator struct {
	mu       sync.Mutex
	requests []ai.Request
	reply    string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) lastRequest() ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func newTestService(t *testing.T, gen *stubGenerator) (*chat.Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := chat.NewService(store, gen, 10, 5*time.Second, zerolog.Nop())
	return svc, store
}

func createUser(t *testing.T, store *storage.MemoryStore, user models.User) *models.User {
	t.Helper()
	require.NoError(t, store.CreateUser(&user))
	return &user
}

func TestProcessUserMessage(t *testing.T) {
	t.Run("Free user under the limit gets a generated reply and is metered", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "hey you"}
		svc, store := newTestService(t, gen)
		user := createUser(t, store, models.User{Username: "alice", Email: "alice@example.com"})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "hello")

		// Assert
		require.NoError(t, err)
		assert.False(t, turn.Rejected)
		assert.Equal(t, "hello", turn.Message.Content)
		assert.True(t, turn.Message.FromUser)
		assert.Equal(t, "hey you", turn.AIResponse.Content)
		assert.False(t, turn.AIResponse.FromUser)

		stored, err := store.GetUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.MessageCount)
	})

	t.Run("Free user at the limit is rejected without calling the generator", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "should not be used"}
		svc, store := newTestService(t, gen)
		user := createUser(t, store, models.User{Username: "bob", Email: "bob@example.com", MessageCount: 1})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "one more?")

		// Assert
		require.NoError(t, err)
		assert.True(t, turn.Rejected)
		assert.Equal(t, models.DefaultLimitMessage, turn.AIResponse.Content)
		assert.Zero(t, gen.callCount())

		stored, err := store.GetUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.MessageCount, "rejection must not consume quota")
	})

	t.Run("Rejection text mirrors the configured limit message", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{}
		svc, store := newTestService(t, gen)
		_, err := store.UpdateSettings(map[string]interface{}{"limit_message": "time to upgrade"})
		require.NoError(t, err)
		user := createUser(t, store, models.User{Username: "carol", Email: "carol@example.com", MessageCount: 5})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "hi")

		// Assert
		require.NoError(t, err)
		assert.True(t, turn.Rejected)
		assert.Equal(t, "time to upgrade", turn.AIResponse.Content)
	})

	t.Run("Paid user is never metered and gets conversation history", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "of course darling"}
		svc, store := newTestService(t, gen)
		user := createUser(t, store, models.User{Username: "dave", Email: "dave@example.com", IsPaid: true, MessageCount: 3})

		// Execute
		_, err := svc.ProcessUserMessage(context.Background(), user.ID, "first")
		require.NoError(t, err)
		_, err = svc.ProcessUserMessage(context.Background(), user.ID, "second")

		// Assert
		require.NoError(t, err)
		stored, err := store.GetUser(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.MessageCount, "paid turns must not touch the counter")

		req := gen.lastRequest()
		assert.NotEmpty(t, req.History, "paid users carry multi-turn context")
		assert.Equal(t, "first", req.History[0].Content)
		assert.Equal(t, "user", req.History[0].Role)
		assert.Equal(t, "of course darling", req.History[1].Content)
		assert.Equal(t, "assistant", req.History[1].Role)
	})

	t.Run("Free user prompt carries no history", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "hi"}
		svc, store := newTestService(t, gen)
		_, err := store.UpdateSettings(map[string]interface{}{"free_message_limit": 10})
		require.NoError(t, err)
		user := createUser(t, store, models.User{Username: "erin", Email: "erin@example.com"})

		// Execute
		_, err = svc.ProcessUserMessage(context.Background(), user.ID, "first")
		require.NoError(t, err)
		_, err = svc.ProcessUserMessage(context.Background(), user.ID, "second")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, gen.lastRequest().History)
	})

	t.Run("Expired subscription is treated as free tier", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "hi"}
		svc, store := newTestService(t, gen)
		expired := time.Now().Add(-time.Hour)
		user := createUser(t, store, models.User{
			Username: "frank", Email: "frank@example.com",
			IsPaid: true, SubscriptionExpiry: &expired, MessageCount: 1,
		})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "hello again")

		// Assert
		require.NoError(t, err)
		assert.True(t, turn.Rejected)
		assert.Zero(t, gen.callCount())
	})

	t.Run("Generator failure yields the connectivity fallback, transcript stays paired", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{err: errors.New("provider down")}
		svc, store := newTestService(t, gen)
		user := createUser(t, store, models.User{Username: "grace", Email: "grace@example.com", IsPaid: true})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "hello?")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ai.ConnectivityFallback, turn.AIResponse.Content)

		messages, err := store.GetMessages(user.ID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.True(t, messages[0].FromUser)
		assert.False(t, messages[1].FromUser)
	})

	t.Run("Persisted rows match the returned turn", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "stored reply"}
		svc, store := newTestService(t, gen)
		user := createUser(t, store, models.User{Username: "henry", Email: "henry@example.com", IsAdmin: true})

		// Execute
		turn, err := svc.ProcessUserMessage(context.Background(), user.ID, "persist me")

		// Assert
		require.NoError(t, err)
		messages, err := store.GetMessages(user.ID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, turn.Message.ID, messages[0].ID)
		assert.Equal(t, turn.Message.Content, messages[0].Content)
		assert.Equal(t, turn.AIResponse.ID, messages[1].ID)
		assert.Equal(t, turn.AIResponse.Content, messages[1].Content)
	})

	t.Run("Unknown user id returns ErrUserNotFound", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{}
		svc, _ := newTestService(t, gen)

		// Execute
		_, err := svc.ProcessUserMessage(context.Background(), 999, "anyone there?")

		// Assert
		assert.ErrorIs(t, err, chat.ErrUserNotFound)
	})
}

func TestProcessGuestMessage(t *testing.T) {
	t.Run("Guest turn persists ownerless messages and skips quota", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "hi stranger"}
		svc, _ := newTestService(t, gen)

		// Execute
		turn, err := svc.ProcessGuestMessage(context.Background(), "hello")

		// Assert
		require.NoError(t, err)
		assert.Nil(t, turn.Message.UserID)
		assert.Nil(t, turn.AIResponse.UserID)
		assert.Equal(t, "hi stranger", turn.AIResponse.Content)
	})

	t.Run("Guest prompt carries no history", func(t *testing.T) {
		// Setup
		gen := &stubGenerator{reply: "hi"}
		svc, _ := newTestService(t, gen)

		// Execute
		_, err := svc.ProcessGuestMessage(context.Background(), "first")
		require.NoError(t, err)
		_, err = svc.ProcessGuestMessage(context.Background(), "second")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, gen.lastRequest().History)
	})
}
