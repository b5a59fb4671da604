package channel

import (
	"context"
	"fmt"
	"testing"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"
	"museumhub/pkg/instagram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraphClient struct {
	fail bool
	sent []string
}

func (c *fakeGraphClient) SendText(_ context.Context, recipientID, text string) (*instagram.SendResponse, error) {
	if c.fail {
		return nil, fmt.Errorf("graph api unavailable")
	}
	c.sent = append(c.sent, text)
	return &instagram.SendResponse{
		RecipientID: recipientID,
		MessageID:   fmt.Sprintf("mid.%d", len(c.sent)),
	}, nil
}

func TestInstagramAuthenticate(t *testing.T) {
	db := setupTestStore(t)
	ch := NewInstagramChannel(db, &fakeGraphClient{}, "verify-me", newTestLogger())
	ctx := context.Background()

	tests := []struct {
		name          string
		creds         Credentials
		wantChallenge string
		wantNil       bool
	}{
		{
			name:          "valid handshake",
			creds:         Credentials{Mode: "subscribe", VerifyToken: "verify-me", Challenge: "12345"},
			wantChallenge: "12345",
		},
		{
			name:    "wrong verify token",
			creds:   Credentials{Mode: "subscribe", VerifyToken: "wrong", Challenge: "12345"},
			wantNil: true,
		},
		{
			name:    "wrong mode",
			creds:   Credentials{Mode: "unsubscribe", VerifyToken: "verify-me", Challenge: "12345"},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := ch.Authenticate(ctx, tt.creds)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, identity)
				return
			}
			require.NotNil(t, identity)
			assert.Equal(t, tt.wantChallenge, identity.Challenge)
		})
	}
}

func TestInstagramReceiveMessageBatch(t *testing.T) {
	db := setupTestStore(t)
	ch := NewInstagramChannel(db, &fakeGraphClient{}, "verify-me", newTestLogger())
	ctx := context.Background()

	// Two entries: the first has a text message and a delivery event, the
	// second carries another text from a different sender.
	payload := `{
		"object": "instagram",
		"entry": [
			{
				"id": "page-1",
				"time": 1700000000,
				"messaging": [
					{"sender":{"id":"ig-alice"},"recipient":{"id":"page-1"},"timestamp":1700000001,
					 "message":{"mid":"mid.a1","text":"Do you have dinosaur exhibits?"}},
					{"sender":{"id":"ig-alice"},"recipient":{"id":"page-1"},"timestamp":1700000002}
				]
			},
			{
				"id": "page-1",
				"time": 1700000003,
				"messaging": [
					{"sender":{"id":"ig-bob"},"recipient":{"id":"page-1"},"timestamp":1700000004,
					 "message":{"mid":"mid.b1","text":"I want to book a ticket"}}
				]
			}
		]
	}`

	inbound, err := ch.ReceiveMessage(ctx, []byte(payload), ReceiveOptions{})
	require.NoError(t, err)
	require.Len(t, inbound, 2)

	assert.Equal(t, "Do you have dinosaur exhibits?", inbound[0].Text)
	assert.Equal(t, "ig-alice", inbound[0].Session.ChannelUserID)
	require.NotNil(t, inbound[0].Message.ChannelMessageID)
	assert.Equal(t, "mid.a1", *inbound[0].Message.ChannelMessageID)

	assert.Equal(t, "I want to book a ticket", inbound[1].Text)
	assert.Equal(t, "ig-bob", inbound[1].Session.ChannelUserID)
	assert.NotEqual(t, inbound[0].Session.SessionID, inbound[1].Session.SessionID)

	// A follow-up from the same sender reuses the session.
	followUp := `{
		"object": "instagram",
		"entry": [{"id":"page-1","time":1700000010,"messaging":[
			{"sender":{"id":"ig-alice"},"recipient":{"id":"page-1"},"timestamp":1700000011,
			 "message":{"mid":"mid.a2","text":"tomorrow please"}}
		]}]
	}`
	again, err := ch.ReceiveMessage(ctx, []byte(followUp), ReceiveOptions{})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, inbound[0].Session.SessionID, again[0].Session.SessionID)
}

func TestInstagramReceiveMessageSkipsNonMessageEvents(t *testing.T) {
	db := setupTestStore(t)
	ch := NewInstagramChannel(db, &fakeGraphClient{}, "verify-me", newTestLogger())

	payload := `{
		"object": "instagram",
		"entry": [{"id":"page-1","time":1,"messaging":[
			{"sender":{"id":"ig-x"},"recipient":{"id":"page-1"},"timestamp":2},
			{"sender":{"id":""},"recipient":{"id":"page-1"},"timestamp":3,
			 "message":{"mid":"mid.x","text":"no sender"}},
			{"sender":{"id":"ig-x"},"recipient":{"id":"page-1"},"timestamp":4,
			 "message":{"mid":"mid.y","text":""}}
		]}]
	}`
	inbound, err := ch.ReceiveMessage(context.Background(), []byte(payload), ReceiveOptions{})
	require.NoError(t, err)
	assert.Empty(t, inbound)
}

func TestInstagramReceiveMessageWrongObject(t *testing.T) {
	db := setupTestStore(t)
	ch := NewInstagramChannel(db, &fakeGraphClient{}, "verify-me", newTestLogger())

	_, err := ch.ReceiveMessage(context.Background(), []byte(`{"object":"page","entry":[]}`), ReceiveOptions{})
	assert.Error(t, err)
}

func TestInstagramSendMessage(t *testing.T) {
	db := setupTestStore(t)
	client := &fakeGraphClient{}
	ch := NewInstagramChannel(db, client, "verify-me", newTestLogger())
	ctx := context.Background()

	session, err := ch.CreateSession(ctx, nil, "ig-carol", nil)
	require.NoError(t, err)

	msg, err := ch.SendMessage(ctx, session, "Your booking is confirmed", SendOptions{})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, models.DirectionOutbound, msg.Direction)
	require.NotNil(t, msg.ChannelMessageID)
	assert.Equal(t, "mid.1", *msg.ChannelMessageID)
	assert.Equal(t, []string{"Your booking is confirmed"}, client.sent)
}

func TestInstagramSendMessageTransportFailurePersistsNothing(t *testing.T) {
	db := setupTestStore(t)
	ch := NewInstagramChannel(db, &fakeGraphClient{fail: true}, "verify-me", newTestLogger())
	ctx := context.Background()

	session, err := ch.CreateSession(ctx, nil, "ig-dave", nil)
	require.NoError(t, err)

	_, err = ch.SendMessage(ctx, session, "hello?", SendOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeChannelTransport, apperrors.GetCode(err))

	history, err := db.GetRecentMessages(ctx, session.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
