package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"museumhub/internal/models"
)

// SaveMessage inserts a message and bumps the owning session's last_activity
// in one transaction; either both happen or neither does.
func (d *Database) SaveMessage(ctx context.Context, sessionPK int64, msg models.NewMessage) (*models.Message, error) {
	encryptedContent, err := d.encryptor.EncryptIfEnabled(msg.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message content: %w", err)
	}

	var metadataRaw interface{}
	if len(msg.Metadata) > 0 {
		metadataRaw = string(msg.Metadata)
	}

	now := time.Now().UTC()
	var messageID int64
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, insertMessageQuery,
			sessionPK, string(msg.MessageType), string(msg.Direction),
			encryptedContent, msg.ContentURL, msg.ChannelMessageID,
			metadataRaw, false, "", nil, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		messageID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get message id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, touchSessionActivityQuery, now, now, sessionPK); err != nil {
			return fmt.Errorf("failed to bump session activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:               messageID,
		SessionID:        sessionPK,
		MessageType:      msg.MessageType,
		Direction:        msg.Direction,
		Content:          msg.Content,
		ContentURL:       msg.ContentURL,
		ChannelMessageID: msg.ChannelMessageID,
		Metadata:         msg.Metadata,
		CreatedAt:        now,
	}, nil
}

// GetRecentMessages returns the most recent limit messages for a session in
// chronological (oldest-first) order.
func (d *Database) GetRecentMessages(ctx context.Context, sessionPK int64, limit int) ([]*models.Message, error) {
	rows, err := d.db.QueryContext(ctx, selectRecentMessagesQuery, sessionPK, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []*models.Message
	for rows.Next() {
		var (
			m                models.Message
			msgType          string
			direction        string
			encryptedContent string
			contentURL       sql.NullString
			channelMsgID     sql.NullString
			metadataRaw      sql.NullString
			intent           sql.NullString
			entitiesRaw      sql.NullString
		)

		err := rows.Scan(
			&m.ID, &m.SessionID, &msgType, &direction, &encryptedContent,
			&contentURL, &channelMsgID, &metadataRaw, &m.Processed,
			&intent, &entitiesRaw, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.MessageType = models.MessageType(msgType)
		m.Direction = models.Direction(direction)
		m.Content, err = d.encryptor.DecryptIfEnabled(encryptedContent)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message content: %w", err)
		}
		if contentURL.Valid {
			m.ContentURL = &contentURL.String
		}
		if channelMsgID.Valid {
			m.ChannelMessageID = &channelMsgID.String
		}
		if metadataRaw.Valid && metadataRaw.String != "" {
			m.Metadata = []byte(metadataRaw.String)
		}
		if intent.Valid {
			m.Intent = intent.String
		}
		if entitiesRaw.Valid && entitiesRaw.String != "" {
			m.Entities = []byte(entitiesRaw.String)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	// Query returns newest-first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
