package database

import (
	"context"
	"testing"
	"time"

	"museumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGetActiveToken(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(24 * time.Hour)
	token := &models.AuthToken{
		Token:     "tok-abc",
		UserID:    7,
		Name:      "widget",
		ExpiresAt: &expiresAt,
		IsActive:  true,
	}
	require.NoError(t, db.InsertToken(ctx, token))
	assert.NotZero(t, token.ID)

	got, err := db.GetActiveToken(ctx, "tok-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "widget", got.Name)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expiresAt, *got.ExpiresAt, time.Second)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastUsed)
}

func TestGetActiveTokenMissing(t *testing.T) {
	db := setupTestDatabase(t)

	got, err := db.GetActiveToken(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetActiveTokenReturnsExpiredRow(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	// Expiry is the caller's decision; the store returns the row as long as
	// it has not been revoked.
	expired := time.Now().UTC().Add(-time.Hour)
	token := &models.AuthToken{Token: "tok-expired", UserID: 1, IsActive: true, ExpiresAt: &expired}
	require.NoError(t, db.InsertToken(ctx, token))

	got, err := db.GetActiveToken(ctx, "tok-expired")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsValid(time.Now().UTC()))
}

func TestRevokeToken(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	token := &models.AuthToken{Token: "tok-revoke", UserID: 2, IsActive: true}
	require.NoError(t, db.InsertToken(ctx, token))

	require.NoError(t, db.RevokeToken(ctx, "tok-revoke"))

	got, err := db.GetActiveToken(ctx, "tok-revoke")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, db.RevokeToken(ctx, "never-existed"))
}

func TestTouchTokenLastUsed(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	token := &models.AuthToken{Token: "tok-touch", UserID: 3, IsActive: true}
	require.NoError(t, db.InsertToken(ctx, token))

	require.NoError(t, db.TouchTokenLastUsed(ctx, token.ID))

	got, err := db.GetActiveToken(ctx, "tok-touch")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.LastUsed)
}
