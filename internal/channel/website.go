package channel

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"museumhub/internal/constants"
	"museumhub/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebsiteChannel serves the embedded site chat widget. Delivery to the
// browser happens over the WebSocket hub at the HTTP layer; the channel owns
// identity, token auth and persistence.
type WebsiteChannel struct {
	base
}

func NewWebsiteChannel(store Store, logger *logrus.Logger) *WebsiteChannel {
	return &WebsiteChannel{base: newBase(NameWebsite, models.ChannelTypeChat, store, logger)}
}

// GenerateToken issues a new bearer token for a user. The opaque value is
// 32 bytes of randomness, URL-safe encoded.
func (c *WebsiteChannel) GenerateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*models.AuthToken, error) {
	buf := make([]byte, constants.TokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	row, err := c.channelRow(ctx)
	if err != nil {
		return nil, err
	}

	token := &models.AuthToken{
		Token:     base64.RawURLEncoding.EncodeToString(buf),
		UserID:    userID,
		ChannelID: &row.ID,
		Name:      name,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := c.store.InsertToken(ctx, token); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"userId":  userID,
		"tokenId": token.ID,
	}).Info("Auth token issued")
	return token, nil
}

// Authenticate validates a bearer token. Expired or revoked tokens fail
// closed with (nil, nil); last_used is bumped only on success.
func (c *WebsiteChannel) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.Token == "" {
		return nil, nil
	}

	token, err := c.store.GetActiveToken(ctx, creds.Token)
	if err != nil {
		return nil, err
	}
	if token == nil || !token.IsValid(time.Now().UTC()) {
		return nil, nil
	}

	// A token bound to another channel is not valid here. Unbound tokens
	// are channel-agnostic.
	row, err := c.channelRow(ctx)
	if err != nil {
		return nil, err
	}
	if token.ChannelID != nil && *token.ChannelID != row.ID {
		return nil, nil
	}

	if err := c.store.TouchTokenLastUsed(ctx, token.ID); err != nil {
		c.logger.WithError(err).Warn("Failed to update token last_used")
	}

	userID := token.UserID
	return &Identity{UserID: &userID}, nil
}

// SendMessage persists the outbound reply. The website transport is the
// WebSocket hub, driven by the caller after persistence succeeds.
func (c *WebsiteChannel) SendMessage(ctx context.Context, session *models.Session, text string, _ SendOptions) (*models.Message, error) {
	return c.SaveMessage(ctx, session, models.NewMessage{
		MessageType: models.MessageTypeText,
		Direction:   models.DirectionOutbound,
		Content:     text,
	})
}

type websitePayload struct {
	Message string `json:"message"`
}

// ReceiveMessage routes one widget message: resolve the session by explicit
// ID or by identity, create one when none is active, persist the inbound row.
func (c *WebsiteChannel) ReceiveMessage(ctx context.Context, raw []byte, opts ReceiveOptions) ([]Inbound, error) {
	var payload websitePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid message payload: %w", err)
	}

	session, err := c.resolveWebsiteSession(ctx, opts)
	if err != nil {
		return nil, err
	}

	msg, err := c.SaveMessage(ctx, session, models.NewMessage{
		MessageType: models.MessageTypeText,
		Direction:   models.DirectionInbound,
		Content:     payload.Message,
	})
	if err != nil {
		return nil, err
	}

	return []Inbound{{Session: session, Message: msg, Text: payload.Message}}, nil
}

// resolveWebsiteSession prefers an explicitly referenced active session,
// then the identity's active session, then creates a fresh one. Closed or
// transferred sessions are never resumed.
func (c *WebsiteChannel) resolveWebsiteSession(ctx context.Context, opts ReceiveOptions) (*models.Session, error) {
	if opts.SessionID != "" {
		session, err := c.store.GetSessionBySessionID(ctx, opts.SessionID)
		if err != nil {
			return nil, err
		}
		if session != nil && session.IsActive() {
			return session, nil
		}
	}

	identity := opts.ChannelUserID
	if identity == "" {
		if opts.UserID != nil {
			identity = fmt.Sprintf("user:%d", *opts.UserID)
		} else {
			identity = "anon:" + uuid.New().String()
		}
	}
	return c.resolveOrCreateSession(ctx, opts.UserID, identity)
}
