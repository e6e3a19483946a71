// Package domain contains entity without logic, just meta-data
package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxAliasLen = 36

type ConnectionID string

// Connection describes one signaling endpoint of a chat session.
// It is a value: copies never observe later changes.
type Connection struct {
	ID        ConnectionID `json:"id"`
	Alias     string       `json:"alias"`
	CreatedAt time.Time    `json:"created_at"`
	// Data is the metadata attached when the token was issued.
	Data string `json:"data,omitempty"`
}

// NewConnection is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewConnection(alias, data string) (Connection, error) {
	if err := ValidateAlias(alias); err != nil {
		return Connection{}, err
	}
	return Connection{
		ID:        ConnectionID(uuid.NewString()),
		Alias:     alias,
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}, nil
}

func (c Connection) Equal(other Connection) bool { return c.ID == other.ID }

func (c Connection) IsZero() bool { return c.ID == "" }

// WithAlias returns a copy carrying the new alias.
func (c Connection) WithAlias(alias string) (Connection, error) {
	if alias == "" {
		return c, ErrAliasEmpty
	}
	if err := ValidateAlias(alias); err != nil {
		return c, err
	}
	c.Alias = alias
	return c, nil
}

// ValidateAlias accepts the empty alias; senders without a display name are allowed.
func ValidateAlias(alias string) error {
	if utf8.RuneCountInString(alias) > MaxAliasLen {
		return ErrAliasTooLong
	}
	return nil
}
