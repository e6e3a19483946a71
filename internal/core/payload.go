package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

var ErrBadPayload = errors.New("bad chat payload")

// Payload is the chat body every transport carries as opaque bytes.
type Payload struct {
	ID     uuid.UUID       `json:"id"`
	Alias  string          `json:"alias"`
	Text   string          `json:"text,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	SentAt time.Time       `json:"sent_at"`
}

func EncodePayload(m domain.Message) ([]byte, error) {
	return json.Marshal(Payload{
		ID:     m.ID,
		Alias:  m.SenderAlias,
		Text:   m.Text,
		Data:   m.Data,
		SentAt: m.Timestamp,
	})
}

func DecodePayload(b []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.Text == "" && len(p.Data) == 0 {
		return Payload{}, fmt.Errorf("%w: no text or data", ErrBadPayload)
	}
	return p, nil
}
