package models

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Message is one persisted conversation message. Rows are immutable once
// created and ordered by CreatedAt within a session.
type Message struct {
	ID               int64           `json:"id"`
	SessionID        int64           `json:"sessionId"`
	MessageType      MessageType     `json:"messageType"`
	Direction        Direction       `json:"direction"`
	Content          string          `json:"content"`
	ContentURL       *string         `json:"contentUrl,omitempty"`
	ChannelMessageID *string         `json:"channelMessageId,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	Processed        bool            `json:"processed"`
	Intent           string          `json:"intent,omitempty"`
	Entities         json.RawMessage `json:"entities,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// NewMessage carries the fields a channel supplies when persisting a message.
type NewMessage struct {
	MessageType      MessageType
	Direction        Direction
	Content          string
	ContentURL       *string
	ChannelMessageID *string
	Metadata         json.RawMessage
}
