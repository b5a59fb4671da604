package database

import (
	"context"
	"fmt"
	"testing"

	"museumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSession(t *testing.T, db *Database, channelUserID string) *models.Session {
	t.Helper()
	ctx := context.Background()
	ch, err := db.GetOrCreateChannel(ctx, "website", models.ChannelTypeChat)
	require.NoError(t, err)
	session, err := db.CreateSession(ctx, "sess-"+channelUserID, nil, ch.ID, channelUserID, nil)
	require.NoError(t, err)
	return session
}

func TestSaveMessage(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	session := createTestSession(t, db, "msg-user")

	mid := "wamid.123"
	url := "https://example.com/audio.mp3"
	msg, err := db.SaveMessage(ctx, session.ID, models.NewMessage{
		MessageType:      models.MessageTypeText,
		Direction:        models.DirectionInbound,
		Content:          "I want to book a ticket",
		ContentURL:       &url,
		ChannelMessageID: &mid,
		Metadata:         []byte(`{"timestamp":1700000000}`),
	})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, session.ID, msg.SessionID)
	assert.Equal(t, "I want to book a ticket", msg.Content)

	messages, err := db.GetRecentMessages(ctx, session.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "I want to book a ticket", messages[0].Content)
	require.NotNil(t, messages[0].ChannelMessageID)
	assert.Equal(t, mid, *messages[0].ChannelMessageID)
	assert.JSONEq(t, `{"timestamp":1700000000}`, string(messages[0].Metadata))
}

func TestSaveMessageBumpsSessionActivity(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	session := createTestSession(t, db, "activity-user")
	before := session.LastActivity

	_, err := db.SaveMessage(ctx, session.ID, models.NewMessage{
		MessageType: models.MessageTypeText,
		Direction:   models.DirectionInbound,
		Content:     "ping",
	})
	require.NoError(t, err)

	reloaded, err := db.GetSessionBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.False(t, reloaded.LastActivity.Before(before))
}

func TestGetRecentMessagesChronologicalOrder(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	session := createTestSession(t, db, "order-user")

	for i := 1; i <= 5; i++ {
		direction := models.DirectionInbound
		if i%2 == 0 {
			direction = models.DirectionOutbound
		}
		_, err := db.SaveMessage(ctx, session.ID, models.NewMessage{
			MessageType: models.MessageTypeText,
			Direction:   direction,
			Content:     fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	messages, err := db.GetRecentMessages(ctx, session.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 5)

	// Oldest first, insertion order preserved by the id tiebreaker.
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("message %d", i+1), msg.Content)
	}
}

func TestGetRecentMessagesLimit(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	session := createTestSession(t, db, "limit-user")

	for i := 1; i <= 8; i++ {
		_, err := db.SaveMessage(ctx, session.ID, models.NewMessage{
			MessageType: models.MessageTypeText,
			Direction:   models.DirectionInbound,
			Content:     fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	messages, err := db.GetRecentMessages(ctx, session.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// The limit keeps the most recent messages, still oldest first.
	assert.Equal(t, "message 6", messages[0].Content)
	assert.Equal(t, "message 8", messages[2].Content)
}

func TestGetRecentMessagesEmptySession(t *testing.T) {
	db := setupTestDatabase(t)
	session := createTestSession(t, db, "empty-user")

	messages, err := db.GetRecentMessages(context.Background(), session.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
