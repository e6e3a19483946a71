package domain

import "errors"

// Failure categories reported through session notifications.
var (
	ErrConnectFailure        = errors.New("connect failure")
	ErrTransportDisconnected = errors.New("transport disconnected")
	ErrSendRejected          = errors.New("send rejected")
	ErrDeliveryFailed        = errors.New("delivery failed")
	ErrConfigurationMissing  = errors.New("configuration missing")
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrEmptyMessage = errors.New("empty message")
	ErrInvalidPhase = errors.New("invalid phase")
	ErrAliasTooLong = errors.New("alias too long")
	ErrAliasEmpty   = errors.New("alias empty")
)
