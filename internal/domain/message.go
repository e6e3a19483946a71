package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Sent {
		return "sent"
	}
	return "received"
}

// Classification is how a message row is rendered.
// Divider is never stored on a message; it only appears as a layout row.
type Classification int

const (
	Standalone Classification = iota
	GroupedWithPrevious
	Divider
)

func (c Classification) String() string {
	switch c {
	case Standalone:
		return "standalone"
	case GroupedWithPrevious:
		return "grouped"
	case Divider:
		return "divider"
	default:
		return "unknown"
	}
}

// Message is one chat line. ID, SenderID, SenderAlias, Text, Data, Timestamp and
// Direction are fixed at creation; Classification and DividerBefore are derived
// from the history the message lives in.
type Message struct {
	ID          uuid.UUID       `json:"id"`
	SenderID    ConnectionID    `json:"sender_id,omitempty"`
	SenderAlias string          `json:"sender_alias"`
	Text        string          `json:"text"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Direction   Direction       `json:"direction"`

	Classification Classification `json:"classification"`
	DividerBefore  bool           `json:"divider_before"`
}

// Clone returns a copy that shares no memory with m.
func (m Message) Clone() Message {
	if m.Data != nil {
		m.Data = append(json.RawMessage(nil), m.Data...)
	}
	return m
}
