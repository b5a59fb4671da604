package models

import (
	"encoding/json"
	"time"
)

type ChannelType string

const (
	ChannelTypeChat   ChannelType = "chat"
	ChannelTypeSocial ChannelType = "social"
	ChannelTypeVoice  ChannelType = "voice"
)

type SessionStatus string

const (
	SessionStatusActive      SessionStatus = "active"
	SessionStatusClosed      SessionStatus = "closed"
	SessionStatusEscalated   SessionStatus = "escalated"
	SessionStatusTransferred SessionStatus = "transferred"
)

// Channel is the persistent identity record for a communication surface.
// Exactly one live row exists per logical channel name.
type Channel struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Type      ChannelType       `json:"type"`
	IsActive  bool              `json:"isActive"`
	Config    map[string]string `json:"config,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SessionContext is the small key-value state carried across turns of a
// conversation. The booking wizard stores its typed state under ContextKeyBooking.
type SessionContext map[string]json.RawMessage

// ContextKeyBooking is the context key holding dialogue.BookingContext.
const ContextKeyBooking = "booking"

// Session is a continuous conversation thread between one end-user identity
// and one channel.
type Session struct {
	ID            int64          `json:"id"`
	SessionID     string         `json:"sessionId"`
	UserID        *int64         `json:"userId,omitempty"`
	ChannelID     int64          `json:"channelId"`
	ChannelName   string         `json:"channelName"`
	ChannelUserID string         `json:"channelUserId,omitempty"`
	Status        SessionStatus  `json:"status"`
	Context       SessionContext `json:"context,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	LastActivity  time.Time      `json:"lastActivity"`
}

// IsActive reports whether the session can still accept turns.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// GetContext returns the raw value stored under key, or false when absent.
func (s *Session) GetContext(key string) (json.RawMessage, bool) {
	if s.Context == nil {
		return nil, false
	}
	v, ok := s.Context[key]
	return v, ok
}

// SetContext stores a value under key, allocating the map on first use.
func (s *Session) SetContext(key string, value json.RawMessage) {
	if s.Context == nil {
		s.Context = make(SessionContext)
	}
	s.Context[key] = value
}
