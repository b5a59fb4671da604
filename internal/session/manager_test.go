package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"museumhub/internal/analytics"
	"museumhub/internal/channel"
	"museumhub/internal/database"
	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"
	"museumhub/pkg/instagram"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraphClient struct{}

func (fakeGraphClient) SendText(_ context.Context, recipientID, _ string) (*instagram.SendResponse, error) {
	return &instagram.SendResponse{RecipientID: recipientID, MessageID: "mid.fake"}, nil
}

// recordingPublisher captures analytics events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event analytics.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, 0, len(p.events))
	for _, e := range p.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type testEnv struct {
	db        *database.Database
	manager   *Manager
	website   *channel.WebsiteChannel
	instagram *channel.InstagramChannel
	publisher *recordingPublisher
}

func setupTestManager(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	website := channel.NewWebsiteChannel(db, logger)
	ig := channel.NewInstagramChannel(db, fakeGraphClient{}, "verify", logger)

	registry := channel.NewRegistry()
	require.NoError(t, registry.Register(website))
	require.NoError(t, registry.Register(ig))

	publisher := &recordingPublisher{}
	return &testEnv{
		db:        db,
		manager:   NewManager(db, registry, publisher, logger),
		website:   website,
		instagram: ig,
		publisher: publisher,
	}
}

func TestGetOrCreateSession(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	userID := int64(42)
	first, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, &userID, "user:42")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.SessionStatusActive, first.Status)

	// The active session is reused, not recreated.
	second, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, &userID, "user:42")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	assert.Equal(t, []string{analytics.EventSessionCreated}, env.publisher.kinds())
}

func TestGetOrCreateSessionUnknownChannel(t *testing.T) {
	env := setupTestManager(t)

	_, err := env.manager.GetOrCreateSession(context.Background(), "telegraph", nil, "someone")
	assert.Error(t, err)
}

func TestGetOrCreateSessionNeverResumesClosed(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	first, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:closed")
	require.NoError(t, err)
	require.NoError(t, env.manager.CloseSession(ctx, first.SessionID))

	second, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:closed")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestUpdateSessionContext(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	session, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:ctx")
	require.NoError(t, err)

	updated, err := env.manager.UpdateSessionContext(ctx, session.SessionID, models.SessionContext{
		"booking":  json.RawMessage(`{"step":"select_date"}`),
		"language": json.RawMessage(`"en"`),
	})
	require.NoError(t, err)
	require.Len(t, updated.Context, 2)

	// Merge preserves untouched keys and overwrites named ones.
	updated, err = env.manager.UpdateSessionContext(ctx, session.SessionID, models.SessionContext{
		"booking": json.RawMessage(`{"step":"select_time","date":"2026-09-10"}`),
	})
	require.NoError(t, err)
	raw, ok := updated.GetContext("booking")
	require.True(t, ok)
	assert.JSONEq(t, `{"step":"select_time","date":"2026-09-10"}`, string(raw))
	_, ok = updated.GetContext("language")
	assert.True(t, ok)

	// A nil value deletes the key.
	updated, err = env.manager.UpdateSessionContext(ctx, session.SessionID, models.SessionContext{
		"booking": nil,
	})
	require.NoError(t, err)
	_, ok = updated.GetContext("booking")
	assert.False(t, ok)
	_, ok = updated.GetContext("language")
	assert.True(t, ok)
}

func TestUpdateSessionContextNotFound(t *testing.T) {
	env := setupTestManager(t)

	_, err := env.manager.UpdateSessionContext(context.Background(), "missing", models.SessionContext{
		"k": json.RawMessage(`1`),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestTransferSession(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	userID := int64(42)
	source, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, &userID, "user:42")
	require.NoError(t, err)

	_, err = env.manager.UpdateSessionContext(ctx, source.SessionID, models.SessionContext{
		"booking": json.RawMessage(`{"step":"select_visitors","date":"2026-09-10","timeSlot":"1PM–2PM"}`),
	})
	require.NoError(t, err)

	target, err := env.manager.TransferSession(ctx, source.SessionID, channel.NameInstagram, "ig-42")
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, channel.NameInstagram, target.ChannelName)
	assert.Equal(t, "ig-42", target.ChannelUserID)
	require.NotNil(t, target.UserID)
	assert.Equal(t, userID, *target.UserID)

	// The dialogue state followed the conversation to the new channel.
	raw, ok := target.GetContext("booking")
	require.True(t, ok)
	assert.JSONEq(t, `{"step":"select_visitors","date":"2026-09-10","timeSlot":"1PM–2PM"}`, string(raw))

	// Source is transferred and no longer resolvable by identity.
	reloaded, err := env.manager.GetSession(ctx, source.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusTransferred, reloaded.Status)

	active, err := env.website.GetSession(ctx, channel.SessionRef{ChannelUserID: "user:42"})
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.Contains(t, env.publisher.kinds(), analytics.EventSessionTransferred)
}

func TestTransferSessionDefaultsTargetIdentity(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	source, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "shared-id")
	require.NoError(t, err)

	target, err := env.manager.TransferSession(ctx, source.SessionID, channel.NameInstagram, "")
	require.NoError(t, err)
	assert.Equal(t, "shared-id", target.ChannelUserID)
}

func TestTransferSessionValidation(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	source, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:v")
	require.NoError(t, err)

	t.Run("unknown session", func(t *testing.T) {
		_, err := env.manager.TransferSession(ctx, "missing", channel.NameInstagram, "x")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("same channel", func(t *testing.T) {
		_, err := env.manager.TransferSession(ctx, source.SessionID, channel.NameWebsite, "x")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.GetCode(err))
	})

	t.Run("unknown target channel", func(t *testing.T) {
		_, err := env.manager.TransferSession(ctx, source.SessionID, "fax", "x")
		assert.Error(t, err)
	})

	t.Run("non-active source", func(t *testing.T) {
		require.NoError(t, env.manager.CloseSession(ctx, source.SessionID))
		_, err := env.manager.TransferSession(ctx, source.SessionID, channel.NameInstagram, "x")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.GetCode(err))
	})
}

func TestGetConversationHistory(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	session, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:h")
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		_, err := env.website.SaveMessage(ctx, session, models.NewMessage{
			MessageType: models.MessageTypeText,
			Direction:   models.DirectionInbound,
			Content:     fmt.Sprintf("turn %d", i),
		})
		require.NoError(t, err)
	}

	history, err := env.manager.GetConversationHistory(ctx, session.SessionID, 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "turn 1", history[0].Content)
	assert.Equal(t, "turn 4", history[3].Content)

	limited, err := env.manager.GetConversationHistory(ctx, session.SessionID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "turn 3", limited[0].Content)
}

func TestGetConversationHistoryNotFound(t *testing.T) {
	env := setupTestManager(t)

	_, err := env.manager.GetConversationHistory(context.Background(), "missing", 10)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestCloseAndEscalateSession(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	closed, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:c")
	require.NoError(t, err)
	require.NoError(t, env.manager.CloseSession(ctx, closed.SessionID))

	escalated, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:e")
	require.NoError(t, err)
	require.NoError(t, env.manager.EscalateSession(ctx, escalated.SessionID))

	got, err := env.manager.GetSession(ctx, closed.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusClosed, got.Status)

	got, err = env.manager.GetSession(ctx, escalated.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusEscalated, got.Status)

	kinds := env.publisher.kinds()
	assert.Contains(t, kinds, analytics.EventSessionClosed)
	assert.Contains(t, kinds, analytics.EventSessionEscalated)
}

func TestCleanupOldSessionsNothingToDo(t *testing.T) {
	env := setupTestManager(t)
	ctx := context.Background()

	session, err := env.manager.GetOrCreateSession(ctx, channel.NameWebsite, nil, "anon:fresh")
	require.NoError(t, err)
	require.NoError(t, env.manager.CloseSession(ctx, session.SessionID))

	// Freshly closed sessions are inside the retention window.
	count, err := env.manager.CleanupOldSessions(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, count)
}
