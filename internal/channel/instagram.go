package channel

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"
	"museumhub/pkg/instagram"

	"github.com/sirupsen/logrus"
)

// InstagramChannel bridges Instagram DMs through Meta's Graph API webhooks.
type InstagramChannel struct {
	base
	client      instagram.Client
	verifyToken string
}

func NewInstagramChannel(store Store, client instagram.Client, verifyToken string, logger *logrus.Logger) *InstagramChannel {
	return &InstagramChannel{
		base:        newBase(NameInstagram, models.ChannelTypeSocial, store, logger),
		client:      client,
		verifyToken: verifyToken,
	}
}

// Authenticate handles the webhook verification handshake: subscribe mode
// with a matching verify token echoes the challenge back.
func (c *InstagramChannel) Authenticate(_ context.Context, creds Credentials) (*Identity, error) {
	if creds.Mode != "subscribe" {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(creds.VerifyToken), []byte(c.verifyToken)) != 1 {
		return nil, nil
	}
	return &Identity{Challenge: creds.Challenge}, nil
}

// SendMessage delivers text through the Graph API, then persists the
// outbound row. A transport failure persists nothing.
func (c *InstagramChannel) SendMessage(ctx context.Context, session *models.Session, text string, _ SendOptions) (*models.Message, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	resp, err := c.client.SendText(ctx, session.ChannelUserID, text)
	if err != nil {
		c.logger.WithError(err).WithField("sessionId", session.SessionID).Error("Instagram send failed")
		return nil, apperrors.NewTransportError("instagram", err)
	}

	var channelMessageID *string
	if resp != nil && resp.MessageID != "" {
		channelMessageID = &resp.MessageID
	}

	return c.SaveMessage(ctx, session, models.NewMessage{
		MessageType:      models.MessageTypeText,
		Direction:        models.DirectionOutbound,
		Content:          text,
		ChannelMessageID: channelMessageID,
	})
}

// ReceiveMessage unpacks a webhook POST. A single payload can batch multiple
// entries and events; every text message in it is processed, non-message
// events (delivery receipts, reads) are skipped.
func (c *InstagramChannel) ReceiveMessage(ctx context.Context, raw []byte, _ ReceiveOptions) ([]Inbound, error) {
	var payload models.InstagramWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if payload.Object != "instagram" {
		return nil, fmt.Errorf("unexpected webhook object: %s", payload.Object)
	}

	var results []Inbound
	for _, entry := range payload.Entry {
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.Text == "" {
				continue
			}
			if event.Sender.ID == "" {
				c.logger.Warn("Instagram event without sender, skipping")
				continue
			}

			session, err := c.resolveOrCreateSession(ctx, nil, event.Sender.ID)
			if err != nil {
				return results, err
			}

			mid := event.Message.MID
			var channelMessageID *string
			if mid != "" {
				channelMessageID = &mid
			}
			metadata, _ := json.Marshal(map[string]int64{"timestamp": event.Timestamp})

			msg, err := c.SaveMessage(ctx, session, models.NewMessage{
				MessageType:      models.MessageTypeText,
				Direction:        models.DirectionInbound,
				Content:          event.Message.Text,
				ChannelMessageID: channelMessageID,
				Metadata:         metadata,
			})
			if err != nil {
				return results, err
			}

			results = append(results, Inbound{Session: session, Message: msg, Text: event.Message.Text})
		}
	}

	c.logger.WithFields(logrus.Fields{
		"entries":  len(payload.Entry),
		"messages": len(results),
	}).Debug("Instagram webhook processed")
	return results, nil
}
