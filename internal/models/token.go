package models

import (
	"encoding/json"
	"time"
)

// AuthToken is a bearer credential for channel or API access. Revocation is
// the IsActive flag; rows are never deleted.
type AuthToken struct {
	ID          int64           `json:"id"`
	Token       string          `json:"-"`
	UserID      int64           `json:"userId"`
	ChannelID   *int64          `json:"channelId,omitempty"`
	Name        string          `json:"name"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	IsActive    bool            `json:"isActive"`
	LastUsed    *time.Time      `json:"lastUsed,omitempty"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsValid reports whether the token is active and unexpired at now.
func (t *AuthToken) IsValid(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
		return false
	}
	return true
}
