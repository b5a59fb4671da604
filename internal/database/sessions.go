package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"museumhub/internal/models"
)

// CreateSession persists a new session. Any prior active session for the same
// (channel, channel_user_id) identity is closed inside the same transaction,
// so identity lookup never observes two active sessions at once.
func (d *Database) CreateSession(ctx context.Context, sessionID string, userID *int64, channelID int64, channelUserID string, sessionCtx models.SessionContext) (*models.Session, error) {
	encryptedUserID, err := d.encryptor.EncryptIfEnabled(channelUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt channel user ID: %w", err)
	}
	identityHash := d.encryptor.HashForLookup(channelUserID)

	contextRaw, err := marshalContext(sessionCtx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		if channelUserID != "" {
			if _, err := tx.ExecContext(ctx, closePriorActiveSessionsQuery, now, channelID, identityHash); err != nil {
				return fmt.Errorf("failed to supersede prior sessions: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, insertSessionQuery,
			sessionID, userID, channelID, encryptedUserID, identityHash,
			string(models.SessionStatusActive), contextRaw, now, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d.GetSessionBySessionID(ctx, sessionID)
}

// GetSessionBySessionID returns the session with the given opaque session
// token, or nil when absent.
func (d *Database) GetSessionBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	row := d.db.QueryRowContext(ctx, selectSessionBySessionIDQuery, sessionID)
	return d.scanSession(row)
}

// GetActiveSessionByIdentity returns the most recently active session with
// status=active for the channel identity, or nil when none exists.
func (d *Database) GetActiveSessionByIdentity(ctx context.Context, channelID int64, channelUserID string) (*models.Session, error) {
	identityHash := d.encryptor.HashForLookup(channelUserID)
	row := d.db.QueryRowContext(ctx, selectActiveSessionByIdentityQuery, channelID, identityHash)
	return d.scanSession(row)
}

// UpdateSessionContext replaces the stored context and bumps both updated_at
// and last_activity.
func (d *Database) UpdateSessionContext(ctx context.Context, sessionPK int64, sessionCtx models.SessionContext) error {
	contextRaw, err := marshalContext(sessionCtx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := d.db.ExecContext(ctx, updateSessionContextQuery, contextRaw, now, now, sessionPK); err != nil {
		return fmt.Errorf("failed to update session context: %w", err)
	}
	return nil
}

// UpdateSessionStatus transitions a session's lifecycle status.
func (d *Database) UpdateSessionStatus(ctx context.Context, sessionPK int64, status models.SessionStatus) error {
	now := time.Now().UTC()
	result, err := d.db.ExecContext(ctx, updateSessionStatusQuery, string(status), now, sessionPK)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no session found with id %d", sessionPK)
	}
	return nil
}

// CleanupOldSessions deletes closed sessions whose updated_at is older than
// the cutoff, cascading their messages, and returns the count removed.
// Active, escalated and transferred sessions are never touched.
func (d *Database) CleanupOldSessions(ctx context.Context, daysInactive int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysInactive)
	result, err := d.db.ExecContext(ctx, deleteOldClosedSessionsQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanSession(row rowScanner) (*models.Session, error) {
	var (
		s               models.Session
		userID          sql.NullInt64
		encryptedUserID sql.NullString
		status          string
		contextRaw      sql.NullString
	)

	err := row.Scan(
		&s.ID, &s.SessionID, &userID, &s.ChannelID, &s.ChannelName,
		&encryptedUserID, &status, &contextRaw,
		&s.CreatedAt, &s.UpdatedAt, &s.LastActivity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if userID.Valid {
		s.UserID = &userID.Int64
	}
	if encryptedUserID.Valid {
		s.ChannelUserID, err = d.encryptor.DecryptIfEnabled(encryptedUserID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt channel user ID: %w", err)
		}
	}
	s.Status = models.SessionStatus(status)
	if contextRaw.Valid && contextRaw.String != "" {
		if err := json.Unmarshal([]byte(contextRaw.String), &s.Context); err != nil {
			return nil, fmt.Errorf("failed to parse session context: %w", err)
		}
	}
	return &s, nil
}

func marshalContext(sessionCtx models.SessionContext) (interface{}, error) {
	if len(sessionCtx) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sessionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session context: %w", err)
	}
	return string(raw), nil
}
