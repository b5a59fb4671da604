package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"museumhub/internal/models"
)

// InsertToken persists a newly issued authentication token.
func (d *Database) InsertToken(ctx context.Context, token *models.AuthToken) error {
	var permissionsRaw interface{}
	if len(token.Permissions) > 0 {
		permissionsRaw = string(token.Permissions)
	}

	now := time.Now().UTC()
	result, err := d.db.ExecContext(ctx, insertTokenQuery,
		token.Token, token.UserID, token.ChannelID, token.Name,
		token.ExpiresAt, token.IsActive, permissionsRaw, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	token.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get token id: %w", err)
	}
	token.CreatedAt = now
	return nil
}

// GetActiveToken returns the active token row for the given opaque value, or
// nil when absent or revoked. Expiry is not checked here; callers own the
// validity decision.
func (d *Database) GetActiveToken(ctx context.Context, tokenValue string) (*models.AuthToken, error) {
	var (
		t              models.AuthToken
		channelID      sql.NullInt64
		name           sql.NullString
		expiresAt      sql.NullTime
		lastUsed       sql.NullTime
		permissionsRaw sql.NullString
	)

	err := d.db.QueryRowContext(ctx, selectTokenQuery, tokenValue).Scan(
		&t.ID, &t.Token, &t.UserID, &channelID, &name, &expiresAt,
		&t.IsActive, &lastUsed, &permissionsRaw, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if channelID.Valid {
		t.ChannelID = &channelID.Int64
	}
	if name.Valid {
		t.Name = name.String
	}
	if expiresAt.Valid {
		t.ExpiresAt = &expiresAt.Time
	}
	if lastUsed.Valid {
		t.LastUsed = &lastUsed.Time
	}
	if permissionsRaw.Valid && permissionsRaw.String != "" {
		t.Permissions = []byte(permissionsRaw.String)
	}
	return &t, nil
}

// TouchTokenLastUsed records a successful authentication against the token.
func (d *Database) TouchTokenLastUsed(ctx context.Context, tokenID int64) error {
	if _, err := d.db.ExecContext(ctx, updateTokenLastUsedQuery, time.Now().UTC(), tokenID); err != nil {
		return fmt.Errorf("failed to update token last_used: %w", err)
	}
	return nil
}

// RevokeToken soft-disables a token. The row is kept for audit.
func (d *Database) RevokeToken(ctx context.Context, tokenValue string) error {
	result, err := d.db.ExecContext(ctx, revokeTokenQuery, tokenValue)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no token found")
	}
	return nil
}
