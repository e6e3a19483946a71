package core

import "github.com/z0r1k/textchat-acc-pack/internal/domain"

type EventKind int

const (
	KindConnected EventKind = iota
	KindConnectFailed
	KindDisconnected
	KindConnectionCreated
	KindConnectionDestroyed
	KindMessageSent
	KindMessageReceived
	KindSendFailed
	KindMessageDeliveryFailed
)

var kindNames = map[EventKind]string{
	KindConnected:             "connected",
	KindConnectFailed:         "connect_failed",
	KindDisconnected:          "disconnected",
	KindConnectionCreated:     "connection_created",
	KindConnectionDestroyed:   "connection_destroyed",
	KindMessageSent:           "message_sent",
	KindMessageReceived:       "message_received",
	KindSendFailed:            "send_failed",
	KindMessageDeliveryFailed: "message_delivery_failed",
}

func (k EventKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Event is one session state change. Payloads are copies owned by the receiver.
type Event interface {
	Kind() EventKind
}

type Connected struct {
	Self domain.Connection
}

type ConnectFailed struct {
	Err error
}

// Disconnected carries the transport error, if any. It is informational:
// the session is disconnected either way.
type Disconnected struct {
	Err error
}

type ConnectionCreated struct {
	Connection domain.Connection
}

type ConnectionDestroyed struct {
	Connection domain.Connection
}

type MessageSent struct {
	Message domain.Message
}

type MessageReceived struct {
	Message domain.Message
}

type SendFailed struct {
	Text string
	Err  error
}

type MessageDeliveryFailed struct {
	Message domain.Message
	Err     error
}

func (Connected) Kind() EventKind             { return KindConnected }
func (ConnectFailed) Kind() EventKind         { return KindConnectFailed }
func (Disconnected) Kind() EventKind          { return KindDisconnected }
func (ConnectionCreated) Kind() EventKind     { return KindConnectionCreated }
func (ConnectionDestroyed) Kind() EventKind   { return KindConnectionDestroyed }
func (MessageSent) Kind() EventKind           { return KindMessageSent }
func (MessageReceived) Kind() EventKind       { return KindMessageReceived }
func (SendFailed) Kind() EventKind            { return KindSendFailed }
func (MessageDeliveryFailed) Kind() EventKind { return KindMessageDeliveryFailed }
