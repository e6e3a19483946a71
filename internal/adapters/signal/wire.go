package signal

import (
	"encoding/json"
	"time"

	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// Frame types on /api/ws/signal. Every frame is a JSON object with "type".
const (
	TypeJoin   = "join"
	TypeLeave  = "leave"
	TypePing   = "ping"
	TypeWhoAmI = "whoami"
	TypeRename = "rename"
	TypeSignal = "signal"

	TypeJoined        = "joined"
	TypeMemberJoined  = "member_joined"
	TypeMemberLeft    = "member_left"
	TypeMemberUpdated = "member_updated"
	TypeAck           = "ack"
	TypeNack          = "nack"
	TypePong          = "pong"
	TypeLeft          = "left"
	TypeError         = "error"
)

// Error codes carried by error and nack frames.
const (
	CodeBadPayload    = "bad_payload"
	CodeUnknownType   = "unknown_type"
	CodeAlreadyJoined = "already_joined"
	CodeNotJoined     = "not_joined"
	CodeUnauthorized  = "unauthorized"
	CodeInvalidName   = "invalid_name"
	CodeRateLimited   = "rate_limited"
)

type envelope struct {
	Type string `json:"type"`
}

type JoinFrame struct {
	Type   string `json:"type"`
	Room   string `json:"room"`
	Name   string `json:"name,omitempty"`
	Token  string `json:"token"`
	APIKey string `json:"api_key"`
}

type RenameFrame struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// SignalFrame is a chat payload. Clients set ID; the relay sets From and At.
type SignalFrame struct {
	Type    string              `json:"type"`
	ID      string              `json:"id,omitempty"`
	From    domain.ConnectionID `json:"from,omitempty"`
	Payload json.RawMessage     `json:"payload"`
	At      time.Time           `json:"at,omitzero"`
}

type JoinedFrame struct {
	Type    string              `json:"type"`
	Room    string              `json:"room"`
	Self    domain.Connection   `json:"self"`
	Members []domain.Connection `json:"members"`
}

type MemberFrame struct {
	Type       string            `json:"type"`
	Connection domain.Connection `json:"connection"`
}

type AckFrame struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type WhoAmIFrame struct {
	Type       string             `json:"type"`
	Connection *domain.Connection `json:"connection,omitempty"`
	Room       string             `json:"room,omitempty"`
}

type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
