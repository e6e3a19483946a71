//go:generate go run go.uber.org/mock/mockgen -source=transport_iface.go -destination=mocks/mock_transport.go -package=mocks
package core

import (
	"context"
	"time"

	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

// Credentials are forwarded opaquely to the transport.
type Credentials struct {
	APIKey    string `mapstructure:"api_key" validate:"required"`
	SessionID string `mapstructure:"session_id" validate:"required"`
	Token     string `mapstructure:"token" validate:"required"`
}

func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.SessionID != "" && c.Token != ""
}

type ConnectRequest struct {
	Credentials Credentials
	Alias       string
}

// ConnectResult carries the identity the transport assigned to us and the
// peers already present in the session.
type ConnectResult struct {
	Self  domain.Connection
	Peers []domain.Connection
}

type InboundMessage struct {
	From    domain.ConnectionID
	Payload []byte
	At      time.Time
}

// TransportHandler receives unsolicited transport events.
// Callbacks may arrive from any goroutine.
type TransportHandler interface {
	OnPeerJoined(conn domain.Connection)
	OnPeerLeft(conn domain.Connection)
	OnMessage(msg InboundMessage)
	// OnConnectionLost reports a loss the session did not ask for.
	OnConnectionLost(err error)
}

// Transport owns all blocking network I/O of a chat session.
// Connect, Disconnect and Send block until the round trip completes or ctx is done;
// the session always calls them from its own goroutines.
type Transport interface {
	SetHandler(h TransportHandler)
	Connect(ctx context.Context, req ConnectRequest) (ConnectResult, error)
	Disconnect(ctx context.Context) error
	Send(ctx context.Context, payload []byte) error
}

// Renamer is implemented by transports that can tell peers about an alias change.
type Renamer interface {
	Rename(ctx context.Context, alias string) error
}
